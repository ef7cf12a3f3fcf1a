package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configPath string

// Execute builds and runs the oddsaxiom command tree under ctx,
// following the teacher's cmd/cprotocol Execute(ctx) entrypoint shape.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:   "oddsaxiom",
		Short: "OddsAxiom cross-venue odds ingestion and arbitrage pipeline",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")

	root.AddCommand(serveCmd(ctx))
	root.AddCommand(workerCmd(ctx))
	root.AddCommand(migrateCmd(ctx))
	root.AddCommand(healthCmd(ctx))

	log.Info().Msg("oddsaxiom starting")
	return root.ExecuteContext(ctx)
}
