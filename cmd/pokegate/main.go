package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "pokegate",
		Short:        "Pokegate: caching edge gateway for Pokémon data and generated insights",
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMetricsCmd(),
		newAuditCmd(),
		newMCPCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
