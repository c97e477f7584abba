package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"StockDash/internal/di"
	"StockDash/internal/domain/models"
	"StockDash/internal/usecase"
	xhttp "StockDash/pkg/http"
)

type showOptions struct {
	req    models.DashboardRequest
	asJSON bool
}

func newShowCmd(root *rootOptions) *cobra.Command {
	opts := &showOptions{}
	cmd := &cobra.Command{
		Use:   "show [symbol]",
		Short: "Print the dashboard summary for one symbol",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.req.Symbol = args[0]
			}
			if err := xhttp.ValidateStruct(&opts.req); err != nil {
				for _, v := range xhttp.ValidationErrors(err) {
					fmt.Fprintln(cmd.ErrOrStderr(), v.Message)
				}
				return fmt.Errorf("invalid selection")
			}

			cfg, err := root.load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			cfg.Log.Output = "stderr"

			uc, cleanup, err := di.InitializeDashboard(cfg)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			defer cleanup()

			view, err := uc.Build(cmd.Context(), opts.req)
			if err != nil {
				return err
			}
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return printView(cmd.OutOrStdout(), view)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.req.Lookback, "lookback", "l", "", "history window: 1mo, 3mo, 6mo or 1y")
	f.StringVarP(&opts.req.ChartStyle, "chart", "c", "", "chart style: line or candlestick")
	f.StringVar(&opts.req.Currency, "currency", "", "display currency, e.g. USD or KRW")
	f.BoolVar(&opts.asJSON, "json", false, "print the full view including the figure as JSON")
	return cmd
}

func printView(w io.Writer, v *usecase.DashboardView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Request.Symbol, v.Request.Lookback, v.Request.Currency)
	fmt.Fprintf(tw, "Current\t%s\t%s\n", v.Panel.CurrentPrice, v.Panel.CurrentDate)
	if v.Panel.FXRate != "" {
		fmt.Fprintf(tw, "FX\t%s\t\n", v.Panel.FXRate)
	}
	for _, b := range v.Panel.Boxes {
		for _, r := range b.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Kind, r.Label, r.Value)
		}
	}
	return tw.Flush()
}
