package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pario-ai/pokegate/pkg/audit"
	"github.com/pario-ai/pokegate/pkg/models"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and manage the insight audit log",
	}

	cmd.AddCommand(
		newAuditSearchCmd(),
		newAuditStatsCmd(),
		newAuditCleanupCmd(),
	)
	return cmd
}

func newAuditSearchCmd() *cobra.Command {
	var (
		configPath string
		pokemon    string
		source     string
		since      string
		requestID  string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search audited insight resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := models.AuditQueryOpts{
				Pokemon:   strings.ToLower(pokemon),
				Source:    models.InsightSource(source),
				RequestID: requestID,
				Limit:     limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			records, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatInsightRecords(records, time.Now()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to pokegate config file")
	cmd.Flags().StringVar(&pokemon, "pokemon", "", "filter by pokemon name")
	cmd.Flags().StringVar(&source, "source", "", "filter by source (ai or fallback)")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&requestID, "request-id", "", "filter by request ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "max records to return")

	return cmd
}

func newAuditStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show insight counts by source and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := l.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatAuditStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to pokegate config file")
	return cmd
}

func newAuditCleanupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete records older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := l.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s audit records.\n", humanize.Comma(deleted))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to pokegate config file")
	return cmd
}

func openAuditLogger(configPath string) (*audit.Logger, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	l, err := audit.New(cfg.Audit)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit db: %w", err)
	}
	return l, func() { _ = l.Close() }, nil
}

func formatInsightRecords(records []models.InsightRecord, now time.Time) string {
	if len(records) == 0 {
		return "No audit records found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-16s %-4s %-28s %-8s %8s  %s\n",
		"REQUEST ID", "POKEMON", "LANG", "MODEL", "SOURCE", "LATENCY", "WHEN")
	b.WriteString(strings.Repeat("-", 124) + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%-36s %-16s %-4s %-28s %-8s %6dms  %s\n",
			r.RequestID, r.Pokemon, r.Lang, r.Model, r.Source,
			r.LatencyMs, humanize.RelTime(r.CreatedAt, now, "ago", "from now"))
		if r.Error != "" {
			fmt.Fprintf(&b, "    error: %s\n", r.Error)
		}
	}
	return b.String()
}

func formatAuditStats(stats []models.AuditStat) string {
	if len(stats) == 0 {
		return "No audit stats found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-12s %8s\n", "SOURCE", "DAY", "COUNT")
	b.WriteString(strings.Repeat("-", 32) + "\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "%-10s %-12s %8s\n", s.Source, s.Day, humanize.Comma(int64(s.Count)))
	}
	return b.String()
}
