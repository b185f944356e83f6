package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/maternity-ward/reporting/internal/adapters/wardapi"
	"github.com/maternity-ward/reporting/internal/cache"
	"github.com/maternity-ward/reporting/internal/feedback"
	"github.com/maternity-ward/reporting/internal/lookup"
	"github.com/maternity-ward/reporting/internal/report"
	"github.com/maternity-ward/reporting/internal/shared/config"
	apperrors "github.com/maternity-ward/reporting/internal/shared/errors"
	"github.com/maternity-ward/reporting/internal/shared/logging"
	"github.com/maternity-ward/reporting/internal/shared/metrics"
	secmiddleware "github.com/maternity-ward/reporting/internal/shared/middleware"
	"github.com/maternity-ward/reporting/internal/ward"
)

const maxBodyBytes = 1 << 20

// App holds all application dependencies
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Source   ward.Source
	Cache      *cache.RecordCache
	CacheAdmin *cache.Handler
	Engine     *report.Engine
	Feedback   *feedback.Log
}

func newApp(cfg *config.Config, src ward.Source, logger zerolog.Logger) *App {
	records := cache.New(src, logger)
	return &App{
		Config:   cfg,
		Logger:   logger,
		Source:   src,
		Cache:      records,
		CacheAdmin: cache.NewHandler(records, logger),
		Engine:     report.NewEngine(records, logger),
		Feedback:   feedback.NewLog(cfg.Feedback.LogPath),
	}
}

func runServer(cfg *config.Config) error {
	logger := logging.New(cfg.IsDevelopment(), cfg.Log.Level)

	client := wardapi.New(wardAPIConfig(cfg), logger)
	app := newApp(cfg, client, logger)

	ctx := context.Background()

	refresher := cache.NewRefresher(app.Cache, cfg.Cache.RefreshInterval, cfg.Cache.WarmOnStart, logger)
	if err := refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cache refresher: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newRouter(app),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info().Msg("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		app.shutdown(ctx, srv, refresher)
		close(done)
	}()

	logger.Info().
		Str("env", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Str("ward_api", cfg.WardAPI.BaseURL).
		Dur("refresh_interval", cfg.Cache.RefreshInterval).
		Str("feedback_log", cfg.Feedback.LogPath).
		Msg("ward reporting server starting")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info().Msg("server stopped")
	return nil
}

// shutdown stops the server first, then waits for background cache work
func (a *App) shutdown(ctx context.Context, srv *http.Server, refresher *cache.Refresher) {
	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("server shutdown error")
	}
	if err := a.CacheAdmin.Wait(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("manual cache refresh did not finish")
	}
	if err := refresher.Stop(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("cache refresher shutdown error")
	}
}

func newRouter(app *App) chi.Router {
	cfg := app.Config

	cors := secmiddleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.Server.CORSOrigins
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(secmiddleware.RequestLogger(app.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.CORS(cors))
	r.Use(secmiddleware.BodyLimit(maxBodyBytes))

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/", infoHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(secmiddleware.RateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

		r.Mount("/reports", report.NewHandler(app.Engine, app.Logger).Routes())
		r.Mount("/cache", app.CacheAdmin.Routes())
		r.Mount("/feedback", feedback.NewHandler(app.Feedback, app.Logger).Routes())
		r.Mount("/", lookup.NewHandler(app.Cache, app.Source, app.Logger).Routes())
	})

	return r
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    "Maternity Ward Reporting",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// readyHandler reports ready once every cache slot holds data
func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string, len(ward.Kinds))
		for _, slot := range app.Cache.Status() {
			if slot.Populated {
				checks[string(slot.Kind)] = "ready"
			} else {
				checks[string(slot.Kind)] = "not loaded"
			}
		}

		ready := app.Cache.Ready()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}

		apperrors.WriteJSON(w, status, map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[ready],
			"checks": checks,
		})
	}
}
