package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"StockDash/internal/domain/models"
	"StockDash/internal/render"
	"StockDash/internal/usecase"
	xhttp "StockDash/pkg/http"
	xlogger "StockDash/pkg/logger"
)

const pageTemplate = "dashboard.html"

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// DashboardHandler serves the dashboard page, its JSON API and health.
type DashboardHandler struct {
	logger *xlogger.Logger
	uc     *usecase.DashboardUseCase
	checks map[string]HealthCheck
}

func NewDashboardHandler(logger *xlogger.Logger, uc *usecase.DashboardUseCase, checks map[string]HealthCheck) *DashboardHandler {
	return &DashboardHandler{logger: logger, uc: uc, checks: checks}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Page)
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/dashboard", h.Dashboard)
	g.GET("/summary", h.Summary)
	g.GET("/fx", h.FX)
}

// Page renders the HTML dashboard. Errors are shown on the page with the
// mapped status code.
func (h *DashboardHandler) Page(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		msgs := make([]string, 0)
		for _, v := range verr.([]xhttp.ValidationError) {
			msgs = append(msgs, v.Message)
		}
		return h.renderPage(c, http.StatusBadRequest, *req, nil, strings.Join(msgs, "; "))
	}

	view, err := h.uc.Build(c.Request().Context(), *req)
	if err != nil {
		appErr := toAppError(err)
		h.logError("page", *req, err)
		return h.renderPage(c, appErr.Status, usecase.Normalize(*req), nil, appErr.Message)
	}
	return h.renderPage(c, http.StatusOK, view.Request, view, "")
}

func (h *DashboardHandler) renderPage(c echo.Context, status int, req models.DashboardRequest, view *usecase.DashboardView, msg string) error {
	var (
		fig   *render.Figure
		panel *render.Panel
	)
	if view != nil {
		fig, panel = &view.Figure, &view.Panel
	}
	data, err := render.NewPageData(req, h.uc.Currencies(), fig, panel)
	if err != nil {
		h.logger.Error("page data error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	data.Error = msg
	return c.Render(status, pageTemplate, data)
}

func (h *DashboardHandler) Dashboard(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.uc.Build(c.Request().Context(), *req)
	if err != nil {
		h.logError("dashboard", *req, err)
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, view)
}

// SummaryResponse is the body of GET /api/summary.
type SummaryResponse struct {
	Symbol      string         `json:"symbol"`
	Lookback    string         `json:"lookback"`
	Currency    string         `json:"currency"`
	Mode        string         `json:"currency_mode"`
	Rate        float64        `json:"rate"`
	CurrentDate string         `json:"current_date"`
	Summary     models.Summary `json:"summary"`
	Panel       render.Panel   `json:"panel"`
}

func (h *DashboardHandler) Summary(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.uc.Build(c.Request().Context(), *req)
	if err != nil {
		h.logError("summary", *req, err)
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, SummaryResponse{
		Symbol:      view.Request.Symbol,
		Lookback:    view.Request.Lookback,
		Currency:    view.Request.Currency,
		Mode:        view.Mode.String(),
		Rate:        view.Rate,
		CurrentDate: view.CurrentDate.Format("2006-01-02"),
		Summary:     view.Summary,
		Panel:       view.Panel,
	})
}

type FXResponse struct {
	Base  string  `json:"base"`
	Quote string  `json:"quote"`
	Rate  float64 `json:"rate"`
}

func (h *DashboardHandler) FX(c echo.Context) error {
	req := &models.FXRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	quote := strings.ToUpper(req.Currency)
	rate, err := h.uc.FXRate(c.Request().Context(), quote)
	if err != nil {
		h.logger.Error("fx usecase error", xlogger.String("currency", quote), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, FXResponse{Base: h.uc.Currencies()[0], Quote: quote, Rate: rate})
}

// Health runs every dependency check with a short deadline.
func (h *DashboardHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			result[name] = err.Error()
			continue
		}
		result[name] = "ok"
	}
	return xhttp.DataResponse(c, status, result)
}

func (h *DashboardHandler) logError(route string, req models.DashboardRequest, err error) {
	h.logger.Error(route+" usecase error",
		xlogger.String("symbol", req.Symbol),
		xlogger.String("lookback", req.Lookback),
		xlogger.String("currency", req.Currency),
		xlogger.Error(err),
	)
}
