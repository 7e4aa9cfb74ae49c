package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/api"
	"github.com/lunaplata/joyeria-backend/api/controllers"
	"github.com/lunaplata/joyeria-backend/api/routes"
	"github.com/lunaplata/joyeria-backend/internal/auth"
	"github.com/lunaplata/joyeria-backend/internal/cart"
	"github.com/lunaplata/joyeria-backend/internal/catalog"
	"github.com/lunaplata/joyeria-backend/internal/checkout"
	"github.com/lunaplata/joyeria-backend/internal/components"
	"github.com/lunaplata/joyeria-backend/internal/media"
	"github.com/lunaplata/joyeria-backend/internal/orders"
	"github.com/lunaplata/joyeria-backend/internal/users"
	"github.com/lunaplata/joyeria-backend/pkg/auth/session"
	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/db"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
	"github.com/lunaplata/joyeria-backend/pkg/metrics"
	"github.com/lunaplata/joyeria-backend/pkg/migrate"
	"github.com/lunaplata/joyeria-backend/pkg/outbox"
	"github.com/lunaplata/joyeria-backend/pkg/redis"
	"github.com/lunaplata/joyeria-backend/pkg/storage/gcs"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	deps, err := buildDeps(cfg, logg, dbClient, redisClient, gcsClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := api.NewServer(port, routes.NewRouter(deps))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
		return
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func buildDeps(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	gcsClient *gcs.Client,
	sessionManager *session.Manager,
) (routes.Deps, error) {
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	mediaService, err := media.NewService(gcsClient, cfg.Media.MaxUploadBytes(), logg)
	if err != nil {
		return routes.Deps{}, err
	}

	productRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(productRepo, dbClient, mediaService, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, dbClient, func(tx *gorm.DB) cart.ProductLoader {
		return productRepo.WithTx(tx)
	}, cfg.Shop.Currency)
	if err != nil {
		return routes.Deps{}, err
	}

	events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	orderRepo := orders.NewRepository(dbClient.DB())
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:     dbClient,
		Cart:   cartRepo,
		Orders: orderRepo,
		Products: func(tx *gorm.DB) checkout.ProductLoader {
			return productRepo.WithTx(tx)
		},
		Outbox: events,
		Shop:   cfg.Shop,
		Logger: logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:    orderRepo,
		Tx:      dbClient,
		Outbox:  events,
		Proofs:  mediaService,
		Metrics: metrics.NewStockMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,

		LowStockThreshold: cfg.Shop.LowStockThreshold,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	componentService, err := components.NewService(components.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Metrics:  metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Redis:    redisClient,
		Sessions: sessionManager,
		Readiness: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
			"gcs":   gcsClient,
		},
		Auth:        authService,
		Catalog:     catalogService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      orderService,
		Components:  componentService,
		Media:       mediaService,
		MetricsPage: promhttp.Handler(),
	}, nil
}
