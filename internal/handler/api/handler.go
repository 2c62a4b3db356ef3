package api

import (
	"github.com/labstack/echo/v4"
)

// Handler aggregates the API route groups behind one registration
// point for the HTTP server.
type Handler struct {
	status  *StatusHandler
	brokers *BrokersHandler
	models  *ModelsHandler
	signals *SignalsHandler
	trading *TradingHandler
}

func NewHandler(
	status *StatusHandler,
	brokers *BrokersHandler,
	models *ModelsHandler,
	signals *SignalsHandler,
	trading *TradingHandler,
) *Handler {
	return &Handler{
		status:  status,
		brokers: brokers,
		models:  models,
		signals: signals,
		trading: trading,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	h.status.RegisterRoutes(e)
	h.brokers.RegisterRoutes(e)
	h.models.RegisterRoutes(e)
	h.signals.RegisterRoutes(e)
	h.trading.RegisterRoutes(e)
}
