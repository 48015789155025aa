package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"comply/internal/catalog"
	compliancemetrics "comply/internal/compliance/metrics"
	"comply/internal/compliance/service"
	"comply/internal/compliance/store"
	compliancepg "comply/internal/compliance/store/postgres"
	"comply/internal/directory"
	"comply/internal/notify"
	notifykafka "comply/internal/notify/kafka"
	"comply/internal/platform/config"
	"comply/internal/platform/logger"
	"comply/internal/platform/postgres"
)

// main runs the periodic deadline sweep as its own process so the API can be
// scaled without multiplying sweep schedules.
func main() {
	cfg := config.FromEnv()
	log := logger.New("comply-sweeper")

	if err := run(cfg, log); err != nil {
		log.Error("sweeper exited", "error", err)
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

	pool, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

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

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(cfg.SweepSchedule, func() {
		sweep(ctx, tick, log)
	})
	if err != nil {
		return err
	}

	log.Info("starting comply sweeper", "schedule", cfg.SweepSchedule)
	c.Start()

	// Run once on startup so a fresh deploy does not wait a full interval.
	sweep(ctx, tick, log)

	<-ctx.Done()
	log.Info("shutting down")
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		log.Warn("sweep still running at shutdown deadline")
	}
	return nil
}

// sweep drains one full pass over due events, following the resume cursor
// until the store reports no further batches.
func sweep(ctx context.Context, tick *service.Tick, log *slog.Logger) {
	now := time.Now().UTC()
	var (
		cursor store.Cursor
		total  service.TickStats
	)
	for {
		next, stats, err := tick.Run(ctx, now, cursor)
		total.Add(stats)
		if err != nil {
			log.Error("sweep pass failed", "error", err)
			return
		}
		if next.IsZero() {
			break
		}
		cursor = next
	}
	log.Info("sweep pass complete",
		"processed", total.Processed,
		"overdue", total.Overdue,
		"reminders", total.Reminders,
		"regenerated", total.Regenerated,
		"errors", total.Errors,
	)
}
