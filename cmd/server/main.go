package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studypilot/studypilot/internal/platform/cache"
	"github.com/studypilot/studypilot/internal/platform/config"
	"github.com/studypilot/studypilot/internal/platform/database"
	"github.com/studypilot/studypilot/internal/state"
	"github.com/studypilot/studypilot/internal/syllabus"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	loader, err := syllabus.NewLoader(cfg.SyllabusPath)
	if err != nil {
		slog.Error("failed to load syllabus", "error", err)
		os.Exit(1)
	}

	var store state.Store
	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		store, err = state.NewPostgresStore(db.Pool)
		if err != nil {
			slog.Error("failed to create snapshot store", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("no database configured, snapshots are not durable")
		store = state.NewMemoryStore()
	}

	var plans *cache.PlanCache
	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()
		plans = cache.NewPlanCache(c, time.Duration(cfg.Cache.PlanTTLMin)*time.Minute)
	}

	srv := newServer(cfg, loader, store, plans, db)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.mux(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
