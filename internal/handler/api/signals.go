package api

import (
	"github.com/labstack/echo/v4"

	"quantdesk/internal/broker"
	"quantdesk/internal/domain/models"
	domrepo "quantdesk/internal/domain/repository"
	"quantdesk/internal/usecase"
	xhttp "quantdesk/pkg/http"
	xlogger "quantdesk/pkg/logger"
	"quantdesk/pkg/util"
)

// SignalsHandler serves current and historical signals, on-demand
// generation and manual execution.
type SignalsHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.SignalPipeline
	current  domrepo.SignalCache
	store    domrepo.HistoryStore
	brokers  *broker.Service
}

func NewSignalsHandler(lgr *xlogger.Logger, pipeline *usecase.SignalPipeline, current domrepo.SignalCache, store domrepo.HistoryStore, brokers *broker.Service) *SignalsHandler {
	return &SignalsHandler{
		logger:   lgr,
		pipeline: pipeline,
		current:  current,
		store:    store,
		brokers:  brokers,
	}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals/current", h.Current)
	g.GET("/signals/history", h.History)
	g.POST("/signals/generate", h.Generate)
	g.POST("/signals/execute", h.Execute)
	g.GET("/sessions", h.Sessions)
}

func (h *SignalsHandler) Current(c echo.Context) error {
	minConfidence := util.ParseFloatDefault(c.QueryParam("min_confidence"), 0)

	signals := h.current.All()
	if minConfidence > 0 {
		for symbol, s := range signals {
			if s.Confidence < minConfidence {
				delete(signals, symbol)
			}
		}
	}
	return xhttp.SuccessResponse(c, signals)
}

func (h *SignalsHandler) History(c echo.Context) error {
	q := &models.SignalHistoryQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signals, err := h.store.QuerySignals(c.Request().Context(), q.Symbol, q.Limit)
	if err != nil {
		h.logger.Error("signal history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

func (h *SignalsHandler) Generate(c echo.Context) error {
	req := &models.GenerateSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signal, err := h.pipeline.GenerateForSymbol(c.Request().Context(), req.Symbol, req.Models)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()))
	}
	if signal == nil {
		return xhttp.SuccessResponse(c, map[string]interface{}{
			"symbol": req.Symbol,
			"signal": nil,
			"reason": "no consensus",
		})
	}
	return xhttp.SuccessResponse(c, signal)
}

func (h *SignalsHandler) Execute(c echo.Context) error {
	req := &models.ExecuteSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signals := make(map[string]*models.Signal, len(req.Signals))
	for symbol := range req.Signals {
		s := req.Signals[symbol]
		s.Symbol = symbol
		signals[symbol] = &s
	}

	results, err := h.brokers.ExecuteSignals(c.Request().Context(), req.Broker, signals)
	if err != nil {
		return brokerError(c, err)
	}
	return xhttp.SuccessResponse(c, results)
}

func (h *SignalsHandler) Sessions(c echo.Context) error {
	limit := util.ParseIntDefault(c.QueryParam("limit"), 20)
	sessions, err := h.store.QuerySessions(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("sessions query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, sessions, int64(len(sessions)))
}
