package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"broadcast-orchestrator/internal/broadcast"
	"broadcast-orchestrator/internal/engine"
	"broadcast-orchestrator/internal/host"
	"broadcast-orchestrator/internal/mainloop"
	"broadcast-orchestrator/internal/notify"
	"broadcast-orchestrator/internal/platform/config"
	"broadcast-orchestrator/internal/platform/logger"
	"broadcast-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	profilePath := config.GetEnv("BROADCAST_PROFILE", "")
	strict := config.GetEnvBool("BROADCAST_STRICT", false)
	previewDelay := config.GetEnvDuration("ENGINE_PREVIEW_DELAY", engine.DefaultPreviewDelay)
	relaySignals := config.GetEnvBool("INTERRUPTION_SIGNALS", true)
	faultInjection := config.GetEnvBool("ENGINE_FAULT_INJECTION", false)
	queueSize := config.GetEnvInt("MAIN_LOOP_QUEUE_SIZE", mainloop.DefaultQueueSize)

	log := logger.New(logLevel, logFormat)
	met := metrics.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := mainloop.New(queueSize)
	go loop.Run(ctx)

	center := notify.NewCenter()
	if relaySignals {
		notify.RelaySignals(ctx, center, notify.DefaultSignalMap(), loop.Post)
	}

	engines := engine.NewTracker(engine.Options{
		Post:         loop.Post,
		PreviewDelay: previewDelay,
		Logger:       log,
	})
	view := host.NewView()
	hub := host.NewHub(log, met)

	ctrl := broadcast.NewController(broadcast.Options{
		NewEngine:     engines.Factory(),
		Surfaces:      view,
		Sleep:         view,
		Notifications: center,
		Logger:        log.With("component", "controller"),
		Metrics:       met,
		Strict:        strict,
	})

	var profile broadcast.Configuration
	if profilePath != "" {
		p, err := config.LoadProfile(profilePath)
		if err != nil {
			log.Error("load broadcast profile failed", "path", profilePath, "error", err)
			os.Exit(1)
		}
		profile = p
	}
	if v := config.GetEnv("RTMPS_URL", ""); v != "" {
		profile.EndpointURL = v
	}
	if v := config.GetEnv("STREAM_KEY", ""); v != "" {
		profile.StreamKey = v
	}

	err := loop.Do(ctx, func() error {
		hub.Register(ctrl.Events())
		return ctrl.Config().SetAll(profile)
	})
	if err != nil {
		log.Warn("broadcast profile partially applied", "error", err)
	}

	h := host.NewHandler(ctrl, loop, view, center, log)
	if faultInjection {
		h.SetFaults(engines)
	}

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetEventClients(hub.ClientCount()) }).ServeHTTP(w, r)
	})
	r.Get("/events", hub.ServeHTTP)
	h.Routes(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"log_level", logLevel,
		"strict", strict,
		"preview_delay", previewDelay.String(),
		"profile", profilePath,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Release the engine session before the loop stops.
	if err := loop.Do(shutdownCtx, func() error { ctrl.OnDetach(); return nil }); err != nil {
		log.Warn("detach on shutdown failed", "error", err)
	}
	hub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	cancel()
	<-loop.Done()

	log.Info("server stopped")
}
