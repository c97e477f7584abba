package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"StockDash/internal/domain/models"
	"StockDash/internal/usecase"
	xhttp "StockDash/pkg/http"
	xlogger "StockDash/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// liveMessage is one frame of the live feed. Exactly one of View and
// Error is set.
type liveMessage struct {
	View  *usecase.DashboardView `json:"view,omitempty"`
	Error *xhttp.AppError        `json:"error,omitempty"`
}

// LiveHandler pushes a rebuilt dashboard to websocket clients on an interval.
type LiveHandler struct {
	logger   *xlogger.Logger
	uc       *usecase.DashboardUseCase
	interval time.Duration
	upgrader websocket.Upgrader
}

func NewLiveHandler(logger *xlogger.Logger, uc *usecase.DashboardUseCase, interval time.Duration) *LiveHandler {
	return &LiveHandler{
		logger:   logger,
		uc:       uc,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// the page is served from this origin
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

func (h *LiveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/dashboard", h.Serve)
}

func (h *LiveHandler) Serve(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already replied to the client
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go h.readPump(conn, cancel)

	h.logger.Debug("live feed opened", xlogger.String("symbol", req.Symbol))
	h.writePump(ctx, conn, *req)
	h.logger.Debug("live feed closed", xlogger.String("symbol", req.Symbol))
	return nil
}

// readPump drains client frames so pongs and close frames are processed.
func (h *LiveHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveHandler) writePump(ctx context.Context, conn *websocket.Conn, req models.DashboardRequest) {
	tick := time.NewTicker(h.interval)
	defer tick.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if !h.push(ctx, conn, req) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-tick.C:
			if !h.push(ctx, conn, req) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// push builds one view and writes it. Build failures are sent to the
// client and keep the feed open.
func (h *LiveHandler) push(ctx context.Context, conn *websocket.Conn, req models.DashboardRequest) bool {
	var msg liveMessage
	view, err := h.uc.Build(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		msg.Error = toAppError(err)
		h.logger.Warn("live build failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
	} else {
		msg.View = view
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("live write failed", xlogger.Error(err))
		return false
	}
	return true
}
