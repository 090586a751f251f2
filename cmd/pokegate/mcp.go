package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/pokegate/pkg/audit"
	"github.com/pario-ai/pokegate/pkg/client"
	"github.com/pario-ai/pokegate/pkg/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve gateway tools to MCP clients over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// stdout carries the protocol, so logs go to stderr only
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

			var auditor mcp.AuditSearcher
			if cfg.Audit.Enabled {
				a, err := audit.New(cfg.Audit)
				if err != nil {
					return fmt.Errorf("open audit db: %w", err)
				}
				defer func() { _ = a.Close() }()
				auditor = a
			}

			srv := mcp.New(client.New(addr, nil), auditor, version, logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to pokegate config file")
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:3000", "gateway base URL")
	return cmd
}
