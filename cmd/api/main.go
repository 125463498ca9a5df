package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/pharmalink/pharmalink-backend/api"
	"github.com/pharmalink/pharmalink-backend/api/controllers"
	"github.com/pharmalink/pharmalink-backend/api/middleware"
	"github.com/pharmalink/pharmalink-backend/api/routes"
	"github.com/pharmalink/pharmalink-backend/internal/auth"
	"github.com/pharmalink/pharmalink-backend/internal/catalog"
	"github.com/pharmalink/pharmalink-backend/internal/orders"
	"github.com/pharmalink/pharmalink-backend/internal/pharmacies"
	"github.com/pharmalink/pharmalink-backend/internal/session"
	"github.com/pharmalink/pharmalink-backend/pkg/backend"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
	"github.com/pharmalink/pharmalink-backend/pkg/db"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/metrics"
	"github.com/pharmalink/pharmalink-backend/pkg/migrate"
	"github.com/pharmalink/pharmalink-backend/pkg/persist"
	"github.com/pharmalink/pharmalink-backend/pkg/redis"
	"github.com/pharmalink/pharmalink-backend/pkg/scheduler"
)

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
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// run wires the optional stores, serves until ctx is done and closes every
// resource it opened.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var readiness []controllers.ReadinessCheck

	var redisClient *redis.Client
	stateBackend := persist.Backend(persist.NewMemoryBackend())
	var rateCounter middleware.RateCounter = middleware.NewMemoryRateCounter(nil)
	var sequencer orders.Sequencer
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		stateBackend = persist.NewRedisBackend(redisClient, cfg.Redis.StateTTL)
		rateCounter = redisClient
		sequencer = orders.NewRedisSequencer(redisClient)
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	}

	gateway := orders.Gateway(orders.NewMemoryGateway(cfg.Orders.SimulatedLatency))
	if cfg.Orders.Store == config.OrdersStoreSQL {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		closers = append(closers, dbClient.Close)
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		gateway = orders.NewRepository(dbClient.DB(), dbClient)
		readiness = append(readiness, controllers.ReadinessCheck{Name: "database", Pinger: dbClient})
	}

	orderStore, err := orders.NewStore(gateway, orders.NewNumberer(cfg.Orders.NumberPrefix, sequencer), logg,
		orders.WithMetrics(metrics.NewOrderMetrics(reg)))
	if err != nil {
		return err
	}

	pharmacyGateway, authGateway, err := buildGateways(cfg)
	if err != nil {
		return err
	}

	sched := scheduler.NewTimer()
	pharmacyService := pharmacies.NewService(pharmacyGateway)
	searcher := pharmacies.NewSearcher(pharmacyService, sched, cfg.Search.Debounce)

	registry := session.NewRegistry(session.Params{
		Backend:       stateBackend,
		AuthGateway:   authGateway,
		Issuer:        auth.NewIssuer(cfg.JWT, nil),
		Scheduler:     sched,
		ToastDuration: cfg.Toasts.DefaultDuration,
		Logger:        logg,
	})
	registry.OnEvict(searcher.Forget)

	handler := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		Sessions:       registry,
		Orders:         orderStore,
		Pharmacies:     pharmacyService,
		Searcher:       searcher,
		RateCounter:    rateCounter,
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Readiness:      readiness,
	})

	server := api.NewServer(cfg, handler)
	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         server.Addr,
		"orders_store": cfg.Orders.Store,
		"redis":        cfg.Redis.Enabled(),
		"backend":      cfg.Backend.BaseURL != "",
	}), "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return registry.RunSweeper(gctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		logg.Info(shutdownCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildGateways picks the remote backend when a base URL is configured and
// the local seed files otherwise.
func buildGateways(cfg *config.Config) (pharmacies.Gateway, auth.Gateway, error) {
	if cfg.Backend.BaseURL != "" {
		client, err := backend.NewClient(cfg.Backend.BaseURL,
			backend.WithTimeout(cfg.Backend.Timeout),
			backend.WithToken(cfg.Backend.APIToken),
			backend.WithRateLimit(cfg.Backend.RatePerSec, cfg.Backend.RateBurst),
		)
		if err != nil {
			return nil, nil, err
		}
		return pharmacies.NewClient(client), auth.NewHTTPGateway(client, cfg.Backend.AuthLoginURL), nil
	}

	cat, err := catalog.LoadFile(cfg.Catalog.SeedFile, cfg.Catalog.SimulatedLatency)
	if err != nil {
		return nil, nil, err
	}
	accounts, err := auth.LoadAccountsFile(cfg.Auth.AccountsFile, cfg.Password)
	if err != nil {
		return nil, nil, err
	}
	return cat, accounts, nil
}
