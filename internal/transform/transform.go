// Package transform turns a raw OHLCV series into the series and summary
// statistics shown on the dashboard. It does no I/O.
package transform

import (
	"errors"
	"math"

	"StockDash/internal/domain/models"
)

var (
	ErrEmptySeries = errors.New("transform: empty series")
	ErrInvalidRate = errors.New("transform: conversion rate must be positive and finite")
	// ErrZeroExtreme is returned when the min or max close is zero and the
	// percentage change from it is undefined.
	ErrZeroExtreme = errors.New("transform: zero close at extreme")
)

// Factor returns the multiplier applied to price fields for mode.
// The rate is ignored in Native mode.
func Factor(mode models.CurrencyMode, rate float64) (float64, error) {
	if mode == models.Native {
		return 1, nil
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, ErrInvalidRate
	}
	return rate, nil
}

// ConvertPrice expresses a single price in the display currency.
func ConvertPrice(price float64, mode models.CurrencyMode, rate float64) (float64, error) {
	f, err := Factor(mode, rate)
	if err != nil {
		return 0, err
	}
	return price * f, nil
}

// Transform converts series into the display currency and computes the
// summary against currentPrice, which must already be in that currency.
//
// The returned series has the same length and order as the input; the
// input is not modified. Volumes are never converted. When several bars
// share the extreme close the earliest one is reported.
func Transform(series models.Series, currentPrice float64, mode models.CurrencyMode, rate float64) (models.Series, models.Summary, error) {
	if len(series) == 0 {
		return nil, models.Summary{}, ErrEmptySeries
	}
	f, err := Factor(mode, rate)
	if err != nil {
		return nil, models.Summary{}, err
	}

	display := make(models.Series, len(series))
	minIdx, maxIdx := 0, 0
	for i, b := range series {
		if mode == models.Converted {
			b.Open *= f
			b.High *= f
			b.Low *= f
			b.Close *= f
		}
		display[i] = b

		// strict comparisons keep the first occurrence on ties
		if b.Close < display[minIdx].Close {
			minIdx = i
		}
		if b.Close > display[maxIdx].Close {
			maxIdx = i
		}
	}

	lo, hi := display[minIdx], display[maxIdx]
	if lo.Close == 0 || hi.Close == 0 {
		return display, models.Summary{}, ErrZeroExtreme
	}

	return display, models.Summary{
		MinClose:         lo.Close,
		MinCloseDate:     lo.Time,
		MinCloseVolume:   lo.Volume,
		MaxClose:         hi.Close,
		MaxCloseDate:     hi.Time,
		MaxCloseVolume:   hi.Volume,
		CurrentPrice:     currentPrice,
		PctChangeFromMin: PctChange(currentPrice, lo.Close),
		PctChangeFromMax: PctChange(currentPrice, hi.Close),
	}, nil
}

// PctChange returns (current-ref)/ref*100. ref must be non-zero.
func PctChange(current, ref float64) float64 {
	return (current - ref) / ref * 100
}
