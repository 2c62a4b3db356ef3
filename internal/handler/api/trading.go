package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/usecase"
	xhttp "quantdesk/pkg/http"
	xlogger "quantdesk/pkg/logger"
)

// TradingHandler controls the background trading loop.
type TradingHandler struct {
	logger *xlogger.Logger
	loop   *usecase.TradingLoop
}

func NewTradingHandler(lgr *xlogger.Logger, loop *usecase.TradingLoop) *TradingHandler {
	return &TradingHandler{logger: lgr, loop: loop}
}

func (h *TradingHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/trading")
	g.POST("/start", h.Start)
	g.POST("/stop", h.Stop)
	g.GET("/session", h.Session)
}

func (h *TradingHandler) Start(c echo.Context) error {
	req := &models.StartTradingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	useML := req.UseML == nil || *req.UseML

	session, err := h.loop.Start(usecase.LoopParams{
		Symbols:       req.Symbols,
		Interval:      time.Duration(req.Interval) * time.Second,
		MaxIterations: req.MaxIterations,
		UseML:         useML,
		UseAlgo:       req.UseAlgo,
		Execute:       req.Execute,
		Broker:        req.Broker,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrAlreadyRunning) {
			return xhttp.ConflictResponse(c, map[string]string{"error": err.Error()})
		}
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.CreatedResponse(c, session)
}

func (h *TradingHandler) Stop(c echo.Context) error {
	if err := h.loop.Stop(c.Request().Context()); err != nil {
		if errors.Is(err, usecase.ErrNotRunning) {
			return xhttp.ConflictResponse(c, map[string]string{"error": err.Error()})
		}
		h.logger.Error("trading stop failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"stopped": true,
		"session": h.loop.Session(),
	})
}

func (h *TradingHandler) Session(c echo.Context) error {
	session := h.loop.Session()
	if session == nil {
		return xhttp.NotFoundResponse(c, map[string]string{"error": "no trading session yet"})
	}
	return xhttp.SuccessResponse(c, session)
}
