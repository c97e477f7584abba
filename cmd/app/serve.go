package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"StockDash/internal/di"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()

			// blocks until signal
			return app.Run()
		},
	}
}
