package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/api/controllers"
	"github.com/lunaplata/joyeria-backend/internal/auth"
	"github.com/lunaplata/joyeria-backend/internal/cart"
	"github.com/lunaplata/joyeria-backend/internal/catalog"
	"github.com/lunaplata/joyeria-backend/internal/checkout"
	"github.com/lunaplata/joyeria-backend/internal/components"
	"github.com/lunaplata/joyeria-backend/internal/media"
	"github.com/lunaplata/joyeria-backend/internal/orders"
	pkgAuth "github.com/lunaplata/joyeria-backend/pkg/auth"
	"github.com/lunaplata/joyeria-backend/pkg/auth/session"
	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/db"
	"github.com/lunaplata/joyeria-backend/pkg/db/dbtest"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
	"github.com/lunaplata/joyeria-backend/pkg/outbox"
)

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubAuth struct{ auth.Service }

type stubMedia struct{}

func (stubMedia) Upload(_ context.Context, kind enums.MediaKind, _ media.File) (*media.Object, error) {
	object := kind.ObjectPrefix() + "/2026/10/" + uuid.NewString() + ".png"
	return &media.Object{URL: "https://cdn.test/" + object, Object: object, ContentType: "image/png"}, nil
}

func (stubMedia) Delete(context.Context, string) error { return nil }

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return io.ErrUnexpectedEOF }

type harness struct {
	t      *testing.T
	client *db.Client
	cfg    *config.Config
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Open(t,
		&models.Product{}, &models.ProductTag{}, &models.CartLine{}, &models.Order{},
		&models.OrderItem{}, &models.OutboxEvent{}, &models.Component{})
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "joyeria-test", ExpirationMinutes: 30},
		Shop: config.ShopConfig{
			Currency:             "MXN",
			LocalDeliveryCost:    decimal.NewFromInt(60),
			NationalShippingCost: decimal.NewFromInt(150),
		},
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})

	productRepo := catalog.NewRepository(client.DB())
	catalogSvc, err := catalog.NewService(productRepo, client, stubMedia{}, logg)
	require.NoError(t, err)

	cartRepo := cart.NewRepository(client.DB())
	cartSvc, err := cart.NewService(cartRepo, client, func(tx *gorm.DB) cart.ProductLoader {
		return productRepo.WithTx(tx)
	}, "MXN")
	require.NoError(t, err)

	events := outbox.NewService(outbox.NewRepository(client.DB()), logg)
	orderRepo := orders.NewRepository(client.DB())
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:     client,
		Cart:   cartRepo,
		Orders: orderRepo,
		Products: func(tx *gorm.DB) checkout.ProductLoader {
			return productRepo.WithTx(tx)
		},
		Outbox: events,
		Shop:   cfg.Shop,
		Logger: logg,
	})
	require.NoError(t, err)

	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:   orderRepo,
		Tx:     client,
		Outbox: events,
		Proofs: stubMedia{},
		Logger: logg,
	})
	require.NoError(t, err)

	componentSvc, err := components.NewService(components.NewRepository(client.DB()), client, logg)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Config:     cfg,
		Logger:     logg,
		Sessions:   stubSessions{},
		Readiness:  map[string]controllers.Pinger{"db": client},
		Auth:       stubAuth{},
		Catalog:    catalogSvc,
		Cart:       cartSvc,
		Checkout:   checkoutSvc,
		Orders:     orderSvc,
		Components: componentSvc,
		Media:      stubMedia{},
	})
	return &harness{t: t, client: client, cfg: cfg, router: router}
}

func (h *harness) token(subject uuid.UUID, role enums.UserRole) string {
	h.t.Helper()
	token, err := pkgAuth.MintAccessToken(h.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: subject,
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	require.NoError(h.t, err)
	return token
}

type call struct {
	method, path, token, idemKey string
	body                         any
}

func (h *harness) do(c call) (*httptest.ResponseRecorder, map[string]any) {
	h.t.Helper()
	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(h.t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.idemKey != "" {
		req.Header.Set("Idempotency-Key", c.idemKey)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func (h *harness) product(name string, price int64, stock int, tags ...string) models.Product {
	h.t.Helper()
	p := models.Product{Name: name, Price: decimal.NewFromInt(price), Stock: stock, Tags: tags}
	require.NoError(h.t, h.client.DB().Create(&p).Error)
	return p
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data envelope: %v", body)
	return data
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(call{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec, body := h.do(call{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", dataMap(t, body)["checks"].(map[string]any)["db"])
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	rec := httptest.NewRecorder()
	controllers.HealthReady(map[string]controllers.Pinger{"redis": failingPinger{}}, nil).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCatalogFiltersOverHTTP(t *testing.T) {
	h := newHarness(t)
	h.product("Anillo Luna", 300, 3, "anillos")
	h.product("Pulsera Sol", 120, 3, "pulseras")
	h.product("Collar Mar", 450, 3, "collares")

	rec, body := h.do(call{method: http.MethodGet, path: "/api/v1/products?min_price=100&max_price=400&sort=price-desc"})
	require.Equal(t, http.StatusOK, rec.Code)
	items := body["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Anillo Luna", items[0].(map[string]any)["name"])
	assert.Equal(t, "Pulsera Sol", items[1].(map[string]any)["name"])

	rec, _ = h.do(call{method: http.MethodGet, path: "/api/v1/products?sort=popular"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireRoles(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(call{method: http.MethodGet, path: "/api/v1/cart"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	customer := h.token(uuid.New(), enums.UserRoleCustomer)
	rec, _ = h.do(call{method: http.MethodGet, path: "/api/admin/v1/orders", token: customer})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := h.token(uuid.New(), enums.UserRoleAdmin)
	rec, _ = h.do(call{method: http.MethodGet, path: "/api/v1/cart", token: admin})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuestCheckoutAndAdminVerification(t *testing.T) {
	h := newHarness(t)
	ring := h.product("Anillo", 300, 5)
	bracelet := h.product("Pulsera", 120, 2)

	guest := h.token(uuid.New(), enums.UserRoleGuest)
	for _, add := range []map[string]any{
		{"product_id": ring.ID, "quantity": 3},
		{"product_id": bracelet.ID, "quantity": 2},
	} {
		rec, _ := h.do(call{method: http.MethodPost, path: "/api/v1/cart/items", token: guest, body: add})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	checkoutBody := map[string]any{
		"customer":        map[string]any{"name": "Ana", "phone": "2221234567"},
		"shipping_method": "pickup",
		"payment_method":  "bank_transfer",
	}
	rec, _ := h.do(call{method: http.MethodPost, path: "/api/v1/checkout", token: guest, body: checkoutBody})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order struct {
		Data struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "pending_payment", order.Data.Status)

	rec, body := h.do(call{method: http.MethodGet, path: "/api/v1/orders", token: guest})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"].([]any), 1)

	admin := h.token(uuid.New(), enums.UserRoleAdmin)
	statusPath := "/api/admin/v1/orders/" + order.Data.ID.String() + "/status"
	rec, _ = h.do(call{method: http.MethodPatch, path: statusPath, token: admin, body: map[string]any{"status": "payment_verified"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stocks []models.Product
	require.NoError(t, h.client.DB().Order("name").Find(&stocks).Error)
	assert.Equal(t, 2, stocks[0].Stock)
	assert.Equal(t, 0, stocks[1].Stock)
}

func TestAdminVerificationRejectsShortfall(t *testing.T) {
	h := newHarness(t)
	ring := h.product("Anillo", 300, 5)
	guest := h.token(uuid.New(), enums.UserRoleGuest)

	rec, _ := h.do(call{method: http.MethodPost, path: "/api/v1/cart/items", token: guest,
		body: map[string]any{"product_id": ring.ID, "quantity": 4}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body := h.do(call{method: http.MethodPost, path: "/api/v1/checkout", token: guest, body: map[string]any{
		"customer":        map[string]any{"name": "Ana", "phone": "2221234567"},
		"shipping_method": "pickup",
		"payment_method":  "whatsapp",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := dataMap(t, body)["id"].(string)

	require.NoError(t, h.client.DB().Model(&models.Product{}).Where("id = ?", ring.ID).Update("stock", 1).Error)

	admin := h.token(uuid.New(), enums.UserRoleAdmin)
	rec, body = h.do(call{method: http.MethodPatch, path: "/api/admin/v1/orders/" + orderID + "/status", token: admin,
		body: map[string]any{"status": "payment_verified"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["error"].(map[string]any)["code"])

	var p models.Product
	require.NoError(t, h.client.DB().First(&p, "id = ?", ring.ID).Error)
	assert.Equal(t, 1, p.Stock)
}

func TestAdminComponentsEstimate(t *testing.T) {
	h := newHarness(t)
	admin := h.token(uuid.New(), enums.UserRoleAdmin)

	rec, body := h.do(call{method: http.MethodPost, path: "/api/admin/v1/components", token: admin, body: map[string]any{
		"name":             "Cadena plata",
		"type":             "cadena",
		"stock":            "10",
		"min_stock":        "2",
		"cost_price":       "80",
		"suggested_margin": "50",
		"purchase_unit":    "metro",
		"usage_unit":       "pieza",
		"unit_equivalence": "4",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	componentID := dataMap(t, body)["id"].(string)

	rec, body = h.do(call{method: http.MethodPost, path: "/api/admin/v1/components/estimate", token: admin, body: map[string]any{
		"lines": []map[string]any{{"component_id": componentID, "quantity": "2"}},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := dataMap(t, body)
	assert.Equal(t, "40", result["total_cost"])
	assert.Equal(t, "60", result["suggested_price"])
}
