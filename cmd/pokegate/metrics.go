package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pario-ai/pokegate/pkg/client"
	"github.com/pario-ai/pokegate/pkg/models"
)

func newMetricsCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show counters of a running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			snap, err := client.New(addr, nil).Metrics(ctx)
			if err != nil {
				return err
			}
			return writeSnapshot(cmd.OutOrStdout(), snap)
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Zero the counters of a running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := client.New(addr, nil).ResetMetrics(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Metrics reset.")
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:3000", "gateway base URL")
	cmd.AddCommand(resetCmd)
	return cmd
}

func writeSnapshot(w io.Writer, s models.MetricsSnapshot) error {
	hitRate := "-"
	if lookups := s.CacheHits + s.CacheMisses; lookups > 0 {
		hitRate = humanize.FtoaWithDigits(float64(s.CacheHits)*100/float64(lookups), 1) + "%"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Requests:\t%s\n", humanize.Comma(s.TotalRequests))
	fmt.Fprintf(tw, "Cache hits:\t%s\n", humanize.Comma(s.CacheHits))
	fmt.Fprintf(tw, "Cache misses:\t%s\n", humanize.Comma(s.CacheMisses))
	fmt.Fprintf(tw, "Hit rate:\t%s\n", hitRate)
	fmt.Fprintf(tw, "AI errors:\t%s\n", humanize.Comma(s.AIErrors))
	fmt.Fprintf(tw, "Fallbacks:\t%s\n", humanize.Comma(s.FallbacksUsed))
	return tw.Flush()
}
