package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmalink/pharmalink-backend/api/controllers"
	"github.com/pharmalink/pharmalink-backend/api/middleware"
	"github.com/pharmalink/pharmalink-backend/internal/orders"
	"github.com/pharmalink/pharmalink-backend/internal/pharmacies"
	"github.com/pharmalink/pharmalink-backend/internal/session"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/metrics"
)

// Deps is everything the router hands to controllers.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Sessions   *session.Registry
	Orders     *orders.Store
	Pharmacies *pharmacies.Service
	Searcher   *pharmacies.Searcher
	// RateCounter backs login throttling; redis when configured, memory otherwise.
	RateCounter    middleware.RateCounter
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	Readiness      []controllers.ReadinessCheck
	Now            func() time.Time
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	now := d.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.Auth.LoginRateWindow,
		cfg.Auth.LoginRateLimit,
		cfg.Auth.LoginRateLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Readiness...))
	})
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/filters/apply", controllers.FiltersApply(logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(d.Sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(logg))
				r.Delete("/", controllers.CartClear(logg))
				r.Post("/toggle", controllers.CartToggle(logg))
				r.Post("/items", controllers.CartAddItem(d.Pharmacies, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrdersCreate(d.Orders, logg))
				r.Get("/", controllers.OrdersList(d.Orders, now, logg))
				r.Get("/{orderId}", controllers.OrdersGet(d.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrdersCancel(d.Orders, logg))
			})

			r.Route("/toasts", func(r chi.Router) {
				r.Get("/", controllers.ToastsList(logg))
				r.Post("/", controllers.ToastsCreate(logg))
				r.Delete("/{toastId}", controllers.ToastsDelete(logg))
			})

			r.Route("/pharmacies", func(r chi.Router) {
				r.Get("/", controllers.PharmaciesList(d.Pharmacies, logg))
				r.Get("/on-duty", controllers.PharmaciesOnDuty(d.Pharmacies, now, logg))
				r.Get("/nearest", controllers.PharmaciesNearest(d.Pharmacies, logg))
				r.Get("/{pharmacyId}", controllers.PharmacyGet(d.Pharmacies, logg))
			})
			r.Get("/medications", controllers.MedicationsSearch(d.Pharmacies, logg))
			r.Get("/medications/{productId}", controllers.MedicationGet(d.Pharmacies, logg))
			r.Get("/search/suggest", controllers.SearchSuggest(d.Searcher, logg))

			r.Route("/location", func(r chi.Router) {
				r.Get("/", controllers.LocationGet(logg))
				r.Put("/", controllers.LocationUpdate(logg))
				r.Delete("/", controllers.LocationClear(logg))
				r.Post("/error", controllers.LocationError(now, logg))
			})

			r.Route("/auth", func(r chi.Router) {
				r.With(middleware.AuthRateLimit(loginPolicy, d.RateCounter, logg)).Post("/login", controllers.AuthLogin(logg))
				r.Post("/logout", controllers.AuthLogout(logg))
				r.Get("/me", controllers.AuthMe(logg))
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/orders", controllers.DashboardOrders(d.Orders, now, logg))
			r.Get("/orders/status/{status}", controllers.DashboardOrdersByStatus(d.Orders, now, logg))
			r.Patch("/orders/{orderId}/status", controllers.DashboardUpdateStatus(d.Orders, logg))
			r.Get("/stats", controllers.DashboardStats(d.Orders, now, logg))
		})
	})

	return r
}
