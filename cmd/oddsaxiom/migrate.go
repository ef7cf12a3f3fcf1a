package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Just-Trades13/OddsAxiome/internal/snapshot"
)

// migrateCmd applies durable-store schema migrations and exits, per
// spec.md §2.
func migrateCmd(parentCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply durable-store schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(parentCtx)
			if err != nil {
				return err
			}
			defer a.rdb.Close()

			if !a.cfg.Postgres.Enabled {
				return fmt.Errorf("oddsaxiom: postgres.enabled is false, nothing to migrate")
			}
			if err := snapshot.Migrate(a.cfg.Postgres.DSN); err != nil {
				return err
			}
			a.log.Info().Msg("migrate: schema up to date")
			return nil
		},
	}
}
