package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/db"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
	"github.com/lunaplata/joyeria-backend/pkg/metrics"
	"github.com/lunaplata/joyeria-backend/pkg/migrate"
	"github.com/lunaplata/joyeria-backend/pkg/outbox"
	"github.com/lunaplata/joyeria-backend/pkg/outbox/registry"
	"github.com/lunaplata/joyeria-backend/pkg/pubsub"
)

const serviceKind = "outbox-publisher"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, logg)
	stop()
	if err != nil {
		logg.Error(context.Background(), "outbox publisher exited", err)
		os.Exit(1)
	}
}

// run owns every client it opens; they are closed before it returns.
func run(ctx context.Context, logg *logger.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeLogged(logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer closeLogged(logg, "pubsub client", pubsubClient.Close)

	service, err := wirePublisher(cfg, logg, dbClient, pubsubClient, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"topic":       cfg.PubSub.OrdersTopic,
	})
	logg.Info(ctx, "starting outbox publisher")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("publisher loop: %w", err)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
	return nil
}

// wirePublisher builds the publisher over an open database and Pub/Sub client.
func wirePublisher(cfg *config.Config, logg *logger.Logger, store *db.Client, ps pubSubClient, reg prometheus.Registerer) (*Service, error) {
	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return nil, fmt.Errorf("build event registry: %w", err)
	}
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         store,
		PubSub:     ps,
		Repository: outbox.NewRepository(store.DB()),
		Registry:   eventRegistry,
		Metrics:    metrics.NewOutboxMetrics(reg),
	})
	if err != nil {
		return nil, fmt.Errorf("create outbox publisher: %w", err)
	}
	return service, nil
}

func closeLogged(logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+what, err)
	}
}
