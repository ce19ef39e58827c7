package main

import (
	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/vortex/internal/app"
	"github.com/vadimbarashkov/vortex/internal/config"
)

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply pending migrations and start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := app.NewLogger(cfg)

			if err := app.Run(cmd.Context(), cfg, logger); err != nil {
				logger.Error("service stopped with error", "err", err)
				return err
			}

			return nil
		},
	}
}
