package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comply/internal/catalog"
	compliancehandler "comply/internal/compliance/handler"
	compliancemetrics "comply/internal/compliance/metrics"
	"comply/internal/compliance/service"
	compliancepg "comply/internal/compliance/store/postgres"
	"comply/internal/dashboard"
	"comply/internal/directory"
	"comply/internal/notify"
	notifykafka "comply/internal/notify/kafka"
	"comply/internal/platform/config"
	"comply/internal/platform/httpserver"
	"comply/internal/platform/logger"
	platformmetrics "comply/internal/platform/metrics"
	"comply/internal/platform/postgres"
	"comply/internal/platform/redis"
	"comply/internal/platform/token"
	httptransport "comply/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New("comply-api")

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	log.Info("requirement catalog loaded", "path", cfg.CatalogPath)

	pool, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	cache, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	var notifier notify.Notifier = notify.NewInMemory()
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := notifykafka.New(ctx, cfg.KafkaBrokers, cfg.ReminderTopic, log)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := pub.Close(flushCtx); err != nil {
				log.Warn("kafka producer close failed", "error", err)
			}
		}()
		notifier = pub
	} else {
		log.Warn("no kafka brokers configured, reminders stay in-process")
	}

	st := compliancepg.New(pool)
	dir := directory.NewHTTPClient(cfg.DirectoryURL)
	m := compliancemetrics.New()

	generator, err := service.NewGenerator(cat, dir, st, log, m)
	if err != nil {
		return err
	}
	reminder, err := service.NewReminder(st, notifier, log, m)
	if err != nil {
		return err
	}
	sweeper, err := service.NewSweeper(st, log, m)
	if err != nil {
		return err
	}
	recurrence, err := service.NewRecurrence(cat, dir, st, log, m)
	if err != nil {
		return err
	}
	tick, err := service.NewTick(st, sweeper, reminder, recurrence, log, m, cfg.SweepBatchSize, cfg.SweepWorkers)
	if err != nil {
		return err
	}
	dash, err := dashboard.New(st, cat, dir, cache, log)
	if err != nil {
		return err
	}

	health := map[string]httptransport.HealthChecker{"postgres": pool}
	if cache != nil {
		health["redis"] = cache
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        platformmetrics.New(),
		Validator:      token.NewValidator(cfg.JWTSigningKey),
		ServiceKeyHash: cfg.ServiceKeyHash,
		Compliance:     compliancehandler.New(generator, recurrence, tick, st, log),
		Dashboard:      dashboard.NewHandler(dash),
		Health:         health,
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting comply api", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
