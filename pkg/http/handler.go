package http

import "github.com/labstack/echo/v4"

// Handler registers a group of routes on the echo instance. The server
// accepts any number of route groups through this interface.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
