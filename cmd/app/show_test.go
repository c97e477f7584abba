package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockDash/internal/domain/models"
	"StockDash/internal/render"
	"StockDash/internal/usecase"
)

func TestPrintView(t *testing.T) {
	v := &usecase.DashboardView{
		Request: models.DashboardRequest{Symbol: "AAPL", Lookback: "1mo", Currency: "KRW"},
		Panel: render.Panel{
			CurrentPrice: "₩136,500.00",
			CurrentDate:  "2024-01-04",
			FXRate:       "USD → KRW ₩1,300.00",
			Boxes: []render.Box{
				{Kind: "min", Rows: []render.Row{{Label: "Low", Value: "117000.00 KRW"}}},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printView(&buf, v))
	out := buf.String()
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "₩136,500.00")
	assert.Contains(t, out, "117000.00 KRW")
	assert.Contains(t, out, "FX")
}

func TestShowCmd_RejectsInvalidSelection(t *testing.T) {
	root := newRootCmd()
	var stderr bytes.Buffer
	root.SetErr(&stderr)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"show", "AAPL", "--lookback", "10y"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "lookback must be one of")
}
