package api

import (
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"quantdesk/internal/broker"
	"quantdesk/internal/domain/models"
	"quantdesk/internal/usecase"
	xhttp "quantdesk/pkg/http"
	xlogger "quantdesk/pkg/logger"
	"quantdesk/pkg/util"
)

// BrokersHandler serves the broker catalog, connection lifecycle and
// account/market-data proxies.
type BrokersHandler struct {
	logger  *xlogger.Logger
	brokers *broker.Service
	market  *usecase.MarketProvider
}

func NewBrokersHandler(lgr *xlogger.Logger, brokers *broker.Service, market *usecase.MarketProvider) *BrokersHandler {
	return &BrokersHandler{logger: lgr, brokers: brokers, market: market}
}

func (h *BrokersHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/brokers", h.List)
	g.GET("/brokers/active", h.Connections)
	g.POST("/brokers/connect", h.Connect)
	g.POST("/brokers/:name/disconnect", h.Disconnect)
	g.GET("/brokers/:name/account", h.Account)
	g.GET("/brokers/:name/positions", h.Positions)
	g.GET("/market-data", h.MarketData)
	g.GET("/executions", h.Executions)
}

func (h *BrokersHandler) List(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.brokers.SupportedBrokers())
}

func (h *BrokersHandler) Connections(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.brokers.Connections())
}

func (h *BrokersHandler) Connect(c echo.Context) error {
	req := &models.ConnectBrokerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.brokers.ConnectBroker(c.Request().Context(), req.Name, req.Credentials); err != nil {
		h.logger.Warn("broker connect rejected",
			xlogger.String("broker", req.Name),
			xlogger.Error(err))
		if errors.Is(err, broker.ErrCredential) {
			return xhttp.BadRequestResponse(c, map[string]string{"error": err.Error()})
		}
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()))
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"connected": true,
		"broker":    req.Name,
	})
}

func (h *BrokersHandler) Disconnect(c echo.Context) error {
	name := c.Param("name")
	if !h.brokers.DisconnectBroker(c.Request().Context(), name) {
		return xhttp.NotFoundResponse(c, map[string]string{"error": "no active connection to " + name})
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"disconnected": true,
		"broker":       name,
	})
}

func (h *BrokersHandler) Account(c echo.Context) error {
	info, err := h.brokers.GetAccountInfo(c.Request().Context(), c.Param("name"))
	if err != nil {
		return brokerError(c, err)
	}
	return xhttp.SuccessResponse(c, info)
}

func (h *BrokersHandler) Positions(c echo.Context) error {
	positions, err := h.brokers.GetPositions(c.Request().Context(), c.Param("name"))
	if err != nil {
		return brokerError(c, err)
	}
	return xhttp.SuccessResponse(c, positions)
}

func (h *BrokersHandler) MarketData(c echo.Context) error {
	raw := c.QueryParam("symbols")
	if raw == "" {
		return xhttp.BadRequestResponse(c, map[string]string{"error": "symbols query parameter is required"})
	}
	symbols := strings.Split(raw, ",")

	ticks := h.market.Snapshot(c.Request().Context(), symbols)
	return xhttp.SuccessResponse(c, ticks)
}

func (h *BrokersHandler) Executions(c echo.Context) error {
	limit := util.ParseIntDefault(c.QueryParam("limit"), 50)
	since := util.ParseTimeDefault(c.QueryParam("since"), time.Time{})

	executions := h.brokers.TradeHistory(limit)
	if !since.IsZero() {
		kept := executions[:0]
		for _, e := range executions {
			if !e.ExecutedAt.Before(since) {
				kept = append(kept, e)
			}
		}
		executions = kept
	}
	return xhttp.SuccessResponse(c, executions)
}

func brokerError(c echo.Context, err error) error {
	if errors.Is(err, broker.ErrNoConnection) {
		return xhttp.NotFoundResponse(c, map[string]string{"error": err.Error()})
	}
	return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()))
}
