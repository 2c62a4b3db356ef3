package api

import (
	"time"

	"github.com/labstack/echo/v4"

	domrepo "quantdesk/internal/domain/repository"
	"quantdesk/internal/ml"
	"quantdesk/internal/usecase"
	"quantdesk/internal/ws"
	xhttp "quantdesk/pkg/http"
	xlogger "quantdesk/pkg/logger"
)

// StatusHandler serves system health and status plus the websocket
// upgrade endpoint.
type StatusHandler struct {
	logger   *xlogger.Logger
	loop     *usecase.TradingLoop
	registry *ml.Registry
	store    domrepo.HistoryStore
	hub      *ws.Hub
	started  time.Time
}

func NewStatusHandler(lgr *xlogger.Logger, loop *usecase.TradingLoop, registry *ml.Registry, store domrepo.HistoryStore, hub *ws.Hub) *StatusHandler {
	return &StatusHandler{
		logger:   lgr,
		loop:     loop,
		registry: registry,
		store:    store,
		hub:      hub,
		started:  time.Now().UTC(),
	}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/status", h.Status)

	e.GET("/ws", func(c echo.Context) error {
		h.hub.HandleWebSocket(c.Response(), c.Request())
		return nil
	})
}

func (h *StatusHandler) Health(c echo.Context) error {
	components := map[string]interface{}{
		"storage":        "ok",
		"models_loaded":  h.registry.Count(),
		"trading_active": h.loop.Active(),
	}

	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		components["storage"] = err.Error()
		return xhttp.ServiceUnavailableResponse(c, map[string]interface{}{
			"status":     "degraded",
			"components": components,
		})
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":     "ok",
		"components": components,
	})
}

func (h *StatusHandler) Status(c echo.Context) error {
	status := map[string]interface{}{
		"trading_active": h.loop.Active(),
		"models_loaded":  h.registry.Count(),
		"ws_clients":     h.hub.Clients(),
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC(),
	}
	if session := h.loop.Session(); session != nil {
		status["session"] = session
	}
	return xhttp.SuccessResponse(c, status)
}
