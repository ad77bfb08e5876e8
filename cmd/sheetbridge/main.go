package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sheetbridge/sheetbridge/internal/access"
	"github.com/sheetbridge/sheetbridge/internal/api"
	"github.com/sheetbridge/sheetbridge/internal/auth"
	"github.com/sheetbridge/sheetbridge/internal/cache"
	"github.com/sheetbridge/sheetbridge/internal/config"
	"github.com/sheetbridge/sheetbridge/internal/fallback"
	"github.com/sheetbridge/sheetbridge/internal/metrics"
	"github.com/sheetbridge/sheetbridge/internal/ratelimit"
	"github.com/sheetbridge/sheetbridge/internal/sheets"
	"github.com/sheetbridge/sheetbridge/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("sheetbridge starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"spreadsheet", cfg.Sheets.SpreadsheetID,
		"tables", len(cfg.Data.Tables),
		"ttl", cfg.Data.TTL,
		"min_request_interval", cfg.Data.MinRequestInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := sheets.New(cfg.Sheets)
	if err != nil {
		slog.Error("failed to build sheets client", "err", err)
		os.Exit(1)
	}

	// Row cache with background purge of expired entries.
	rowCache := cache.New(cfg.Data.TTL)
	go rowCache.Run(ctx)

	// WebSocket hub broadcasts write and invalidation events to dashboards.
	hub := ws.New()
	go hub.Run(ctx)

	reg := metrics.New()
	med := access.New(
		client,
		ratelimit.New(cfg.Data.MinRequestInterval),
		rowCache,
		fallback.New(),
		reg,
		hub,
	)

	// Watch config file for hot-reload (logs only in this phase; table and
	// quota changes need a restart).
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			slog.Info("config hot-reloaded", "tables", len(updated.Data.Tables))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Combined HTTP server: REST API, metrics and WebSocket stream.
	apiHandler := api.WithRequestLog(api.New(med, cfg.Data))
	guard := auth.APIKeyMiddleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", guard(apiHandler))
	httpMux.Handle("/metrics", reg.Handler())
	httpMux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("sheetbridge shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
