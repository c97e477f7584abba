package main

import (
	"github.com/spf13/cobra"

	"StockDash/pkg/config"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "stockdash",
		Short: "Stock price dashboard",
		Long: `Fetches daily prices from Yahoo Finance and renders them as an
interactive chart with min/max reference lines and summary statistics,
optionally converted into another currency.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(newServeCmd(opts), newShowCmd(opts))
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.LoadWithEnv(o.configPath)
}
