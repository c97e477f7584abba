package api

import (
	"context"
	"errors"

	"StockDash/internal/service/yahoo"
	"StockDash/internal/transform"
	"StockDash/internal/usecase"
	xhttp "StockDash/pkg/http"
)

// toAppError classifies a use case error for the HTTP envelope.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrFXUnavailable), errors.Is(err, transform.ErrInvalidRate):
		return xhttp.BadGatewayError("ERR_FX_UNAVAILABLE", "exchange rate is unavailable").WithError(err)
	case errors.Is(err, transform.ErrEmptySeries):
		return xhttp.NotFoundError("ERR_NO_DATA", "no price data for the selected period").WithError(err)
	case errors.Is(err, usecase.ErrInsufficientData):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", "not enough price data to summarise").WithError(err)
	case errors.Is(err, transform.ErrZeroExtreme):
		return xhttp.UnprocessableError("ERR_ZERO_EXTREME", "a zero close makes the change undefined").WithError(err)
	case errors.Is(err, yahoo.ErrSymbolNotFound):
		return xhttp.NotFoundError("ERR_SYMBOL_NOT_FOUND", "unknown symbol").WithError(err)
	case errors.Is(err, yahoo.ErrRateLimited):
		return xhttp.TooManyRequestsError("market data provider is rate limiting").WithError(err)
	case errors.Is(err, yahoo.ErrUpstream), errors.Is(err, yahoo.ErrNoData),
		errors.Is(err, yahoo.ErrInvalidQuote), errors.Is(err, context.DeadlineExceeded):
		return xhttp.BadGatewayError("ERR_UPSTREAM", "market data provider failed").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
