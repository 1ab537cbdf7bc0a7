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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/promoschemes/api/routes"
	"github.com/angelmondragon/promoschemes/internal/catalog"
	"github.com/angelmondragon/promoschemes/internal/invoices"
	"github.com/angelmondragon/promoschemes/internal/notifications"
	"github.com/angelmondragon/promoschemes/internal/promotions"
	"github.com/angelmondragon/promoschemes/internal/reports"
	"github.com/angelmondragon/promoschemes/internal/schemes"
	"github.com/angelmondragon/promoschemes/pkg/config"
	"github.com/angelmondragon/promoschemes/pkg/db"
	"github.com/angelmondragon/promoschemes/pkg/logger"
	"github.com/angelmondragon/promoschemes/pkg/metrics"
	"github.com/angelmondragon/promoschemes/pkg/migrate"
	pkgredis "github.com/angelmondragon/promoschemes/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var (
		redisPinger pkgredis.Pinger
		idemStore   pkgredis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, redisErr := pkgredis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		redisPinger = redisClient
		idemStore = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, idempotency replay disabled")
	}

	loc, err := cfg.Schemes.Location()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	schemeMetrics := metrics.NewSchemeMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		return err
	}

	schemesService, err := schemes.NewService(schemes.NewRepository(dbClient.DB()), dbClient, cfg.Schemes.OverlapLimit)
	if err != nil {
		return err
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return err
	}

	hook, err := promotions.NewHook(promotions.HookOptions{
		Schemes:       schemesService,
		Lookup:        catalogRepo,
		Sink:          notifications.LogSink{Logger: logg},
		Metrics:       schemeMetrics,
		Logger:        logg,
		StrictLookups: cfg.Schemes.StrictLookups,
		Location:      loc,
	})
	if err != nil {
		return err
	}

	invoicesService, err := invoices.NewService(invoices.ServiceParams{
		Repo:          invoices.NewRepository(dbClient.DB()),
		DB:            dbClient,
		Hook:          hook,
		Notifications: notificationsRepo,
		Directory:     catalogService,
		Logger:        logg,
	})
	if err != nil {
		return err
	}

	reportsService, err := reports.NewService(reports.ServiceParams{
		Schemes: schemesService,
		DB:      dbClient,
		Lookup:  catalogRepo,
		Metrics: schemeMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisPinger,
			idemStore,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			httpMetrics,
			catalogService,
			schemesService,
			invoicesService,
			notificationsService,
			reportsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"timezone": loc.String(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
