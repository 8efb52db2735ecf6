package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/scheduling-api/internal/bootstrap"
	"github.com/jwalitptl/scheduling-api/internal/config"
	appointmentHandler "github.com/jwalitptl/scheduling-api/internal/handler/appointment"
	"github.com/jwalitptl/scheduling-api/internal/handler/health"
	practitionerHandler "github.com/jwalitptl/scheduling-api/internal/handler/practitioner"
	promHandler "github.com/jwalitptl/scheduling-api/internal/handler/prometheus"
	reminderHandler "github.com/jwalitptl/scheduling-api/internal/handler/reminder"
	"github.com/jwalitptl/scheduling-api/internal/router"
	appointmentService "github.com/jwalitptl/scheduling-api/internal/service/appointment"
	availabilityService "github.com/jwalitptl/scheduling-api/internal/service/availability"
	practitionerService "github.com/jwalitptl/scheduling-api/internal/service/practitioner"
	"github.com/jwalitptl/scheduling-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := bootstrap.NewLogger(cfg.Logging, "scheduling-api")

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		log.Fatal(err, "invalid scheduling timezone")
	}

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal(err, "failed to open storage", "driver", cfg.Storage.Driver)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry, "scheduling", "api")

	// Initialize services
	appointmentSvc := appointmentService.NewService(store, log, m, appointmentService.Config{
		MaxRetries: cfg.Scheduling.MaxRetries,
	})
	availabilitySvc := availabilityService.NewService(store, log, m)
	practitionerSvc := practitionerService.NewService(store, log, practitionerService.CacheConfig{
		TTL:             cfg.Cache.PractitionerTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})

	r := router.NewRouter(router.Dependencies{
		Logger:         log,
		Metrics:        m,
		MetricsHandler: promHandler.New(registry).Handler(),
		Health:         health.NewHandler(store),
		Handlers: []router.Handler{
			appointmentHandler.NewHandler(appointmentSvc),
			practitionerHandler.NewHandler(practitionerSvc, availabilitySvc, appointmentSvc, loc),
			reminderHandler.NewHandler(appointmentSvc),
		},
	}, router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RateLimit:      rate.Limit(cfg.Server.RequestsPerSecond),
		RateBurst:      cfg.Server.Burst,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}
	log.Info("server exited")
}
