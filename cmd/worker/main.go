package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/scheduling-api/internal/bootstrap"
	"github.com/jwalitptl/scheduling-api/internal/config"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	appointmentService "github.com/jwalitptl/scheduling-api/internal/service/appointment"
	"github.com/jwalitptl/scheduling-api/internal/service/notification"
	practitionerService "github.com/jwalitptl/scheduling-api/internal/service/practitioner"
	"github.com/jwalitptl/scheduling-api/internal/worker"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
	"github.com/jwalitptl/scheduling-api/pkg/metrics"
	jobs "github.com/jwalitptl/scheduling-api/pkg/worker"
)

func setupHealthCheck(port int, store repository.Store, registry *prometheus.Registry, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := bootstrap.NewLogger(cfg.Logging, "reminder-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal(err, "failed to open storage", "driver", cfg.Storage.Driver)
	}
	defer store.Close()

	notifier, closeNotifier, err := bootstrap.NewNotifier(ctx, cfg, log)
	if err != nil {
		log.Fatal(err, "failed to create notifier", "channel", cfg.Notifier.Channel)
	}
	defer closeNotifier()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry, "scheduling", "worker")

	appointmentSvc := appointmentService.NewService(store, log, m, appointmentService.Config{
		MaxRetries: cfg.Scheduling.MaxRetries,
	})
	practitionerSvc := practitionerService.NewService(store, log, practitionerService.CacheConfig{
		TTL:             cfg.Cache.PractitionerTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})
	dispatcher := notification.NewService(notifier, notification.Config{
		Channel:         cfg.Notifier.Channel,
		BreakerFailures: cfg.Notifier.BreakerFailures,
		BreakerTimeout:  cfg.Notifier.BreakerTimeout,
		SendTimeout:     cfg.Notifier.SendTimeout,
	}, log)

	scanner := worker.NewReminderScanner(appointmentSvc, dispatcher, practitionerSvc, log, m)

	scheduler := jobs.NewScheduler(log)
	if err := scheduler.Add(cfg.Reminder.Schedule, scanner, cfg.Reminder.ScanTimeout); err != nil {
		log.Fatal(err, "failed to schedule reminder scan")
	}

	healthSrv := setupHealthCheck(cfg.Reminder.HealthPort, store, registry, log)

	if cfg.Reminder.RunOnStartup {
		scheduler.RunNow(scanner, cfg.Reminder.ScanTimeout)
	}
	scheduler.Start()
	log.Info("reminder worker started", "schedule", cfg.Reminder.Schedule, "channel", cfg.Notifier.Channel)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Reminder.ScanTimeout)
	defer stop()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error(err, "reminder scan did not finish before shutdown")
	}
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "health server shutdown failed")
	}
}
