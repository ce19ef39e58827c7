package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/vortex/internal/config"
	"github.com/vadimbarashkov/vortex/pkg/postgres"
)

func newMigrateCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}

				if err := postgres.RunMigrations(cfg.MigrationsPath, cfg.Postgres.DSN()); err != nil {
					return err
				}

				return printVersion(cmd, cfg)
			},
		},
		newMigrateDownCmd(loadConfig),
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}

				return printVersion(cmd, cfg)
			},
		},
	)

	return cmd
}

func newMigrateDownCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if err := postgres.RollbackMigrations(cfg.MigrationsPath, cfg.Postgres.DSN(), steps); err != nil {
				return err
			}

			return printVersion(cmd, cfg)
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")

	return cmd
}

func printVersion(cmd *cobra.Command, cfg *config.Config) error {
	version, dirty, err := postgres.MigrationVersion(cfg.MigrationsPath, cfg.Postgres.DSN())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)

	return nil
}
