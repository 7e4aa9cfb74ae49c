package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lunaplata/joyeria-backend/api/controllers"
	cartcontrollers "github.com/lunaplata/joyeria-backend/api/controllers/cart"
	componentcontrollers "github.com/lunaplata/joyeria-backend/api/controllers/components"
	ordercontrollers "github.com/lunaplata/joyeria-backend/api/controllers/orders"
	"github.com/lunaplata/joyeria-backend/api/middleware"
	"github.com/lunaplata/joyeria-backend/internal/auth"
	"github.com/lunaplata/joyeria-backend/internal/cart"
	"github.com/lunaplata/joyeria-backend/internal/catalog"
	"github.com/lunaplata/joyeria-backend/internal/checkout"
	"github.com/lunaplata/joyeria-backend/internal/components"
	"github.com/lunaplata/joyeria-backend/internal/media"
	"github.com/lunaplata/joyeria-backend/internal/orders"
	"github.com/lunaplata/joyeria-backend/pkg/auth/session"
	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
	"github.com/lunaplata/joyeria-backend/pkg/metrics"
)

// RedisStore is the Redis surface the HTTP layer needs.
type RedisStore interface {
	middleware.IdempotencyStore
	middleware.RateLimitStore
}

// Deps are the services constructed in cmd/api. Nil Redis disables
// idempotency and rate limiting.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Metrics     *metrics.HTTPMetrics
	Redis       RedisStore
	Sessions    session.AccessSessionChecker
	Readiness   map[string]controllers.Pinger
	Auth        auth.Service
	Catalog     catalog.Service
	Cart        cart.Service
	Checkout    checkout.Service
	Orders      orders.Service
	Components  components.Service
	Media       media.Service
	MetricsPage http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	maxUpload := cfg.Media.MaxUploadBytes()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, d.Metrics),
	)

	loginPolicy := middleware.AuthRateLimitPolicy{
		Name:       "login",
		Window:     cfg.AuthRateLimit.LoginWindow,
		IPLimit:    cfg.AuthRateLimit.LoginIPLimit,
		EmailLimit: cfg.AuthRateLimit.LoginEmailLimit,
	}
	adminLoginPolicy := loginPolicy
	adminLoginPolicy.Name = "admin-login"

	var rateStore middleware.RateLimitStore
	var idemStore middleware.IdempotencyStore
	if d.Redis != nil {
		rateStore, idemStore = d.Redis, d.Redis
	}
	authenticated := middleware.Auth(cfg.JWT, d.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(d.Readiness, logg))
	})
	if d.MetricsPage != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsPage)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.Post("/guest", controllers.AuthGuest(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
		})

		r.Get("/products", controllers.ProductList(d.Catalog, logg))
		r.Get("/products/{productId}", controllers.ProductGet(d.Catalog, logg))
		r.Get("/shipping-options", controllers.ShippingOptions(d.Checkout))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.RequireRole(logg, enums.UserRoleCustomer, enums.UserRoleGuest))
			r.Use(middleware.Idempotency(idemStore, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartGet(d.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(d.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(d.Cart, logg))
				r.Post("/items/{lineId}/decrease", cartcontrollers.CartDecreaseItem(d.Cart, logg))
				r.Delete("/items/{lineId}", cartcontrollers.CartRemoveItem(d.Cart, logg))
			})
			r.Post("/checkout", controllers.Checkout(d.Checkout, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(d.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Get(d.Orders, logg))
				r.Post("/{orderId}/proof", ordercontrollers.UploadProof(d.Orders, maxUpload, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(adminLoginPolicy, rateStore, logg)).Post("/auth/login", controllers.AdminAuthLogin(d.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Use(middleware.Idempotency(idemStore, logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminProductCreate(d.Catalog, logg))
				r.Patch("/{productId}", controllers.AdminProductUpdate(d.Catalog, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(d.Catalog, logg))
			})
			r.Post("/media/images", controllers.AdminMediaUploadImage(d.Media, maxUpload, logg))
			// Registered flat so the idempotency middleware sees the full pattern.
			r.Get("/orders", ordercontrollers.AdminList(d.Orders, logg))
			r.Get("/orders/{orderId}", ordercontrollers.AdminGet(d.Orders, logg))
			r.Patch("/orders/{orderId}/status", ordercontrollers.AdminUpdateStatus(d.Orders, logg))
			r.Route("/components", func(r chi.Router) {
				r.Get("/", componentcontrollers.List(d.Components, logg))
				r.Post("/", componentcontrollers.Create(d.Components, logg))
				r.Post("/estimate", componentcontrollers.Estimate(d.Components, logg))
				r.Get("/{componentId}", componentcontrollers.Get(d.Components, logg))
				r.Patch("/{componentId}", componentcontrollers.Update(d.Components, logg))
				r.Delete("/{componentId}", componentcontrollers.Delete(d.Components, logg))
				r.Post("/{componentId}/usage", componentcontrollers.RecordUsage(d.Components, logg))
				r.Post("/{componentId}/stock", componentcontrollers.AdjustStock(d.Components, logg))
			})
		})
	})

	return r
}
