package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/pokegate/pkg/audit"
	"github.com/pario-ai/pokegate/pkg/cache"
	"github.com/pario-ai/pokegate/pkg/config"
	"github.com/pario-ai/pokegate/pkg/gateway"
	"github.com/pario-ai/pokegate/pkg/insight"
	"github.com/pario-ai/pokegate/pkg/metrics"
	"github.com/pario-ai/pokegate/pkg/pokeapi"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := newLogger(cfg.LogLevel)
			slog.SetDefault(logger)

			reg := metrics.New()
			store := cache.New(
				cache.WithDefaultTTL[[]byte](cfg.Cache.ShortTTL),
				cache.WithSweepInterval[[]byte](cfg.Cache.SweepInterval),
			)
			defer func() { _ = store.Close() }()

			data := pokeapi.New(cfg.Upstream, pokeapi.WithObserver(reg))
			ai := insight.New(cfg.Insight, insight.WithObserver(reg), insight.WithLogger(logger))

			opts := []gateway.Option{gateway.WithLogger(logger)}
			if cfg.Audit.Enabled {
				a, err := audit.New(cfg.Audit)
				if err != nil {
					return fmt.Errorf("init audit log: %w", err)
				}
				defer func() { _ = a.Close() }()
				opts = append(opts, gateway.WithAuditLogger(a))
			}

			srv := gateway.New(cfg, data, ai, store, reg, opts...)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting pokegate", "config", configPath, "version", version)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults when empty)")
	return cmd
}

// loadConfig returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
