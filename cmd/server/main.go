// Command server runs the provenance registry: the product ledger, the
// verified-farmer registry, and the notification stream behind one HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	farmerhandler "agritrace/internal/farmer/handler"
	farmerservice "agritrace/internal/farmer/service"
	farmerstore "agritrace/internal/farmer/store"
	ledgerhandler "agritrace/internal/ledger/handler"
	ledgermetrics "agritrace/internal/ledger/metrics"
	ledgerservice "agritrace/internal/ledger/service"
	ledgerstore "agritrace/internal/ledger/store"
	"agritrace/internal/notify"
	"agritrace/internal/payments"
	"agritrace/internal/platform/config"
	"agritrace/internal/platform/httpserver"
	"agritrace/internal/platform/logger"
	platformmetrics "agritrace/internal/platform/metrics"
	"agritrace/internal/platform/middleware"
	"agritrace/internal/platform/postgres"
	platformredis "agritrace/internal/platform/redis"
	"agritrace/internal/platform/token"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Product store: postgres when configured, memory otherwise.
	var products ledgerstore.ProductStore
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		products = ledgerstore.NewPostgres(db)
		log.Info("using postgres product store")
	} else {
		products = ledgerstore.NewInMemory()
		log.Info("using in-memory product store")
	}

	// Farmer store: redis when configured, memory otherwise.
	var farmers farmerstore.FarmerStore
	if cfg.RedisURL != "" {
		client, err := platformredis.Open(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		farmers = farmerstore.NewRedis(client)
		log.Info("using redis farmer store")
	} else {
		farmers = farmerstore.NewInMemory()
		log.Info("using in-memory farmer store")
	}

	// Notifier: kafka when configured, memory otherwise.
	var ledgerNotifier ledgerservice.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := notify.NewKafka(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer kafka.Close()
		ledgerNotifier = kafka
		log.Info("using kafka notifier", "topic", cfg.KafkaTopic)
	} else {
		ledgerNotifier = notify.NewMemory()
		log.Info("using in-memory notifier")
	}

	bank := payments.NewMemoryBank()
	tokens := token.NewService(cfg.JWTSigningKey)

	farmerSvc := farmerservice.New(cfg.AdminPrincipal, farmers,
		farmerservice.WithLogger(log),
		farmerservice.WithNotifier(ledgerNotifier),
	)

	ledgerOpts := []ledgerservice.Option{
		ledgerservice.WithLogger(log),
		ledgerservice.WithNotifier(ledgerNotifier),
		ledgerservice.WithMetrics(ledgermetrics.New()),
		ledgerservice.WithTracer(otel.Tracer("agritrace/ledger")),
	}
	if cfg.RequireVerifiedFarmers {
		ledgerOpts = append(ledgerOpts, ledgerservice.WithFarmerRegistry(farmerSvc))
	}
	ledgerSvc := ledgerservice.New(products, bank, ledgerOpts...)

	auth := middleware.RequireAuth(tokens, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logging(log))
	router.Use(platformmetrics.NewHTTP().Middleware)

	ledgerhandler.New(ledgerSvc, log).Register(router, auth)
	farmerhandler.New(farmerSvc, log).Register(router, auth)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting agritrace server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
