package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pgrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/postgres"
)

func migrateCmd(load configLoader) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long: `Apply the embedded schema to the configured Postgres database.

Every statement is idempotent, so running it against an up to date database
is a no-op.

Examples:
  lovevibesctl migrate
  lovevibesctl migrate --print > schema.sql`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), pgrepo.Schema())
				return err
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			pool, err := pgrepo.NewPool(cmd.Context(), cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgrepo.EnsureSchema(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}
