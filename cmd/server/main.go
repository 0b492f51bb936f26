package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/zoompan/internal/auth"
	"github.com/inamate/zoompan/internal/collab"
	"github.com/inamate/zoompan/internal/config"
	mw "github.com/inamate/zoompan/internal/middleware"
	"github.com/inamate/zoompan/internal/stage"
	"github.com/inamate/zoompan/internal/telemetry"
	"github.com/inamate/zoompan/internal/viewport"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	stages := stage.NewService(viewport.WithScaleLimits(cfg.MinScale, cfg.MaxScale))

	stopSweeper := make(chan struct{})
	go stages.RunSweeper(cfg.StageIdleTTL, time.Minute, stopSweeper)

	hub := collab.NewHub(stages)
	go hub.Run()

	stageHandler := stage.NewHandler(stages, authService)
	wsHandler := collab.NewHandler(hub, authService, stages, cfg.OriginHosts())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.Handle("/metrics", telemetry.Handler()).Methods("GET")

	stageHandler.Mount(r)

	// WebSocket endpoint
	r.Handle("/ws/stages/{stageId}", wsHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		close(stopSweeper)
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "minScale", cfg.MinScale, "maxScale", cfg.MaxScale)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
