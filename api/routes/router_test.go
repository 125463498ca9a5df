package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/pharmalink-backend/api/controllers"
	"github.com/pharmalink/pharmalink-backend/api/middleware"
	"github.com/pharmalink/pharmalink-backend/internal/auth"
	"github.com/pharmalink/pharmalink-backend/internal/catalog"
	"github.com/pharmalink/pharmalink-backend/internal/orders"
	"github.com/pharmalink/pharmalink-backend/internal/pharmacies"
	"github.com/pharmalink/pharmalink-backend/internal/session"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
	"github.com/pharmalink/pharmalink-backend/pkg/geo"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/metrics"
	"github.com/pharmalink/pharmalink-backend/pkg/scheduler"
)

var fixedNow = time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "pharmalink", ExpirationMinutes: 60},
		Auth: config.AuthConfig{
			LoginRateLimit:  5,
			LoginRateWindow: time.Minute,
		},
	}
}

func testAccounts(t *testing.T) *auth.AccountsGateway {
	t.Helper()
	gw, err := auth.NewAccountsGateway([]auth.Account{
		{Email: "awa.diop@pharmalink.sn", FullName: "Awa Diop", Role: "pharmacist", PharmacyID: "ph-plateau", Password: "plateau-dev"},
		{Email: "moussa.ndiaye@pharmalink.sn", FullName: "Moussa Ndiaye", Role: "manager", PharmacyID: "ph-medina", Password: "medina-dev"},
	}, config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
	require.NoError(t, err)
	return gw
}

func newTestRouter(t *testing.T, readiness ...controllers.ReadinessCheck) http.Handler {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{Output: io.Discard})
	now := func() time.Time { return fixedNow }

	plateau := geo.Coords{Lat: 14.6928, Lng: -17.4467}
	medina := geo.Coords{Lat: 14.6840, Lng: -17.4550}
	cat, err := catalog.New(catalog.Seed{
		Pharmacies: []catalog.Pharmacy{
			{ID: "ph-plateau", Name: "Pharmacie du Plateau", City: "Dakar", Location: &plateau, Opens: "08:00", Closes: "20:00"},
			{ID: "ph-medina", Name: "Pharmacie Médina", City: "Dakar", Location: &medina, OnDuty: true},
		},
		Products: []catalog.Product{
			{ID: "prd-doliprane", Name: "Doliprane 1000 mg", Price: 1500, Stock: 2, PharmacyID: "ph-plateau"},
			{ID: "prd-amox", Name: "Amoxicilline", Price: 3500, Stock: 0, PharmacyID: "ph-medina", RequiresPrescription: true},
		},
	}, 0)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	store, err := orders.NewStore(orders.NewMemoryGateway(0), orders.NewNumberer("CMD", nil), logg,
		orders.WithClock(now), orders.WithMetrics(metrics.NewOrderMetrics(reg)))
	require.NoError(t, err)

	sched := scheduler.NewManual()
	svc := pharmacies.NewService(cat, pharmacies.WithClock(now))
	registry := session.NewRegistry(session.Params{
		AuthGateway: testAccounts(t),
		Issuer:      auth.NewIssuer(cfg.JWT, nil),
		Scheduler:   sched,
		Logger:      logg,
	})

	return NewRouter(Deps{
		Config:         cfg,
		Logger:         logg,
		Sessions:       registry,
		Orders:         store,
		Pharmacies:     svc,
		Searcher:       pharmacies.NewSearcher(svc, sched, 300*time.Millisecond),
		RateCounter:    middleware.NewMemoryRateCounter(now),
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Readiness:      readiness,
		Now:            now,
	})
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type client struct {
	t       *testing.T
	handler http.Handler
	session string
	token   string
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.session != "" {
		req.Header.Set(session.Header, c.session)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func checkoutForm() map[string]any {
	return map[string]any{
		"deliveryAddress": map[string]any{
			"fullName": "Fatou Sarr",
			"phone":    "+221771234567",
			"street":   "Avenue Pompidou",
			"city":     "Dakar",
		},
		"paymentDetails": map[string]any{"method": "cash_on_delivery"},
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, controllers.ReadinessCheck{Name: "redis", Pinger: stubPinger{}})
	c := &client{t: t, handler: h}

	rec, _ := c.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env := c.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, env.Data)["redis"])

	rec, _ = c.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	h := newTestRouter(t, controllers.ReadinessCheck{Name: "postgres", Pinger: stubPinger{err: errors.New("down")}})
	rec, env := (&client{t: t, handler: h}).do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEPENDENCY_ERROR", env.Error.Code)
}

func TestSessionHeaderIsIssued(t *testing.T) {
	h := newTestRouter(t)
	rec, _ := (&client{t: t, handler: h}).do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, session.ValidID(rec.Header().Get(session.Header)))
}

func TestCheckoutFlow(t *testing.T) {
	h := newTestRouter(t)
	c := &client{t: t, handler: h, session: "customer-session-1"}

	for i := 0; i < 3; i++ {
		rec, _ := c.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": "prd-doliprane"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := c.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cartView := decode[map[string]any](t, env.Data)
	assert.EqualValues(t, 2, cartView["itemCount"], "quantity is capped at stock")
	assert.EqualValues(t, 3000, cartView["total"])

	_, env = c.do(http.MethodGet, "/api/v1/toasts", nil)
	toastList := decode[[]map[string]any](t, env.Data)
	require.Len(t, toastList, 3)
	assert.Equal(t, "warning", toastList[2]["type"])

	badPayment := checkoutForm()
	badPayment["paymentDetails"] = map[string]any{"method": "cheque"}
	rec, env = c.do(http.MethodPost, "/api/v1/orders", badPayment)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Mode de paiement inconnu", env.Error.Message)

	rec, env = c.do(http.MethodPost, "/api/v1/orders", checkoutForm())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[orders.Order](t, env.Data)
	assert.Equal(t, "CMD202503100001", order.OrderNumber)
	assert.Equal(t, int64(3000), order.TotalAmount)
	assert.Equal(t, "3 000 FCFA", decode[map[string]any](t, env.Data)["formattedTotal"])

	_, env = c.do(http.MethodGet, "/api/v1/cart", nil)
	assert.EqualValues(t, 0, decode[map[string]any](t, env.Data)["itemCount"])

	rec, env = c.do(http.MethodPost, "/api/v1/orders", checkoutForm())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Le panier est vide", env.Error.Message)

	rec, env = c.do(http.MethodGet, "/api/v1/orders?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[orders.ListResult](t, env.Data)
	require.Len(t, list.Orders, 1)

	rec, env = c.do(http.MethodGet, "/api/v1/orders?page=461168601842738791", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	other := &client{t: t, handler: h, session: "customer-session-2"}
	rec, env = other.do(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Commande introuvable", env.Error.Message)

	rec, env = c.do(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", string(decode[orders.Order](t, env.Data).Status))

	rec, env = c.do(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, orders.CancelRejectedMessage, env.Error.Message)
}

func TestOutOfStockProductIsNotAdded(t *testing.T) {
	h := newTestRouter(t)
	c := &client{t: t, handler: h, session: "customer-session-3"}

	rec, env := c.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": "prd-amox"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, env.Data)["itemCount"])

	rec, env = c.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": "prd-unknown"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Médicament introuvable", env.Error.Message)
}

func TestDashboardRequiresTokenAndScopesByPharmacy(t *testing.T) {
	h := newTestRouter(t)
	customer := &client{t: t, handler: h, session: "customer-session-4"}
	customer.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": "prd-doliprane"})
	_, env := customer.do(http.MethodPost, "/api/v1/orders", checkoutForm())
	order := decode[orders.Order](t, env.Data)

	anon := &client{t: t, handler: h}
	rec, _ := anon.do(http.MethodGet, "/api/v1/dashboard/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	plateau := login(t, h, "pharmacist-session-1", "awa.diop@pharmalink.sn", "plateau-dev")
	rec, env = plateau.do(http.MethodPatch, "/api/v1/dashboard/orders/"+order.ID.String()+"/status", map[string]any{"status": "ready"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[orders.Order](t, env.Data)
	assert.Equal(t, "ready", string(updated.Status))
	assert.Len(t, updated.StatusHistory, 2)

	rec, env = plateau.do(http.MethodGet, "/api/v1/dashboard/orders/status/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[[]map[string]any](t, env.Data)
	require.Len(t, ready, 1)
	assert.Equal(t, "à l'instant", ready[0]["createdAgo"])

	rec, env = plateau.do(http.MethodGet, "/api/v1/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[orders.Stats](t, env.Data)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, int64(1500), stats.Revenue)

	medina := login(t, h, "pharmacist-session-2", "moussa.ndiaye@pharmalink.sn", "medina-dev")
	rec, env = medina.do(http.MethodPatch, "/api/v1/dashboard/orders/"+order.ID.String()+"/status", map[string]any{"status": "delivered"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Accès refusé", env.Error.Message)

	rec, env = medina.do(http.MethodGet, "/api/v1/dashboard/orders/status/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]orders.Order](t, env.Data))

	rec, _ = customer.do(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newTestRouter(t)
	c := &client{t: t, handler: h, session: "pharmacist-session-3"}

	rec, env := c.do(http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "awa.diop@pharmalink.sn", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email ou mot de passe incorrect", env.Error.Message)

	rec, _ = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLocationErrorDegradesGracefully(t *testing.T) {
	h := newTestRouter(t)
	c := &client{t: t, handler: h, session: "customer-session-5"}

	rec, env := c.do(http.MethodPut, "/api/v1/location", map[string]any{
		"userCoords":         map[string]any{"latitude": 14.69, "longitude": -17.44},
		"selectedPharmacyId": "ph-plateau",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, env.Data)["available"])

	rec, env = c.do(http.MethodGet, "/api/v1/pharmacies/nearest?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nearest := decode[[]map[string]any](t, env.Data)
	require.Len(t, nearest, 1)
	assert.Equal(t, "ph-plateau", nearest[0]["id"])

	rec, env = c.do(http.MethodPost, "/api/v1/location/error", map[string]any{"kind": "permission_denied"})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[map[string]any](t, env.Data)
	assert.Equal(t, false, view["available"])

	rec, env = c.do(http.MethodGet, "/api/v1/pharmacies/nearest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, env.Error.Message)
}

func TestFiltersApplyResetsPage(t *testing.T) {
	h := newTestRouter(t)
	rec, env := (&client{t: t, handler: h}).do(http.MethodPost, "/api/v1/filters/apply", map[string]any{
		"query":  "status=pending&page=3",
		"update": map[string]any{"search": "CMD2025"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[map[string]any](t, env.Data)
	assert.Equal(t, "search=CMD2025&status=pending", out["query"])
}

func login(t *testing.T, h http.Handler, sessionID, email, password string) *client {
	t.Helper()
	c := &client{t: t, handler: h, session: sessionID}
	rec, env := c.do(http.MethodPost, "/api/v1/auth/login", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[auth.LoginResult](t, env.Data)
	require.NotEmpty(t, result.AccessToken)
	c.token = result.AccessToken
	return c
}

func TestToastsCreateValidatesInput(t *testing.T) {
	h := newTestRouter(t)
	c := &client{t: t, handler: h, session: "toast-session-1"}

	rec, env := c.do(http.MethodPost, "/api/v1/toasts", map[string]any{"message": "Bonjour", "durationMs": int64(9_000_000_000_000_000)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "Durée de notification trop longue", env.Error.Message)

	rec, env = c.do(http.MethodPost, "/api/v1/toasts", map[string]any{"message": " \n\t "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, _ = c.do(http.MethodPost, "/api/v1/toasts", map[string]any{"message": "  Stock   mis à jour ", "type": "success", "durationMs": 1500})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, env = c.do(http.MethodGet, "/api/v1/toasts", nil)
	list := decode[[]map[string]any](t, env.Data)
	require.Len(t, list, 1)
	assert.Equal(t, "Stock mis à jour", list[0]["message"])
	assert.EqualValues(t, 1500, list[0]["durationMs"])
}
