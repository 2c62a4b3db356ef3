package api

import (
	"github.com/labstack/echo/v4"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/ml"
	"quantdesk/internal/usecase"
	xhttp "quantdesk/pkg/http"
	xlogger "quantdesk/pkg/logger"
	"quantdesk/pkg/queue"
)

// ModelsHandler serves the model registry and training jobs.
type ModelsHandler struct {
	logger   *xlogger.Logger
	registry *ml.Registry
	queue    queue.QueueService
}

func NewModelsHandler(lgr *xlogger.Logger, registry *ml.Registry, q queue.QueueService) *ModelsHandler {
	return &ModelsHandler{logger: lgr, registry: registry, queue: q}
}

func (h *ModelsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/models", h.List)
	g.GET("/models/:name", h.Get)
	g.POST("/models/train", h.Train)
	g.PUT("/models/:name", h.Update)
	g.DELETE("/models/:name", h.Delete)
}

func (h *ModelsHandler) List(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.registry.List())
}

func (h *ModelsHandler) Get(c echo.Context) error {
	name := c.Param("name")
	pred, ok := h.registry.Get(name)
	if !ok {
		return xhttp.NotFoundResponse(c, map[string]string{"error": "model " + name + " not found"})
	}
	return xhttp.SuccessResponse(c, pred.Info())
}

func (h *ModelsHandler) Train(c echo.Context) error {
	req := &models.TrainModelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.queue.PublishMessage(c.Request().Context(), usecase.TrainModelType, req); err != nil {
		h.logger.Error("training enqueue failed",
			xlogger.String("model", req.Name),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("failed to enqueue training job"))
	}

	h.logger.Info("training enqueued",
		xlogger.String("model", req.Name),
		xlogger.String("algorithm", req.Algorithm))
	return xhttp.CreatedResponse(c, map[string]interface{}{
		"queued": true,
		"model":  req.Name,
	})
}

func (h *ModelsHandler) Update(c echo.Context) error {
	name := c.Param("name")
	req := &models.UpdateModelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.registry.UpdateDescription(name, req.Description); err != nil {
		return xhttp.NotFoundResponse(c, map[string]string{"error": err.Error()})
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"updated": true,
		"model":   name,
	})
}

func (h *ModelsHandler) Delete(c echo.Context) error {
	name := c.Param("name")
	if err := h.registry.Delete(name); err != nil {
		return xhttp.NotFoundResponse(c, map[string]string{"error": err.Error()})
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"deleted": true,
		"model":   name,
	})
}
