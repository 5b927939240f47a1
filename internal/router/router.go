package router // package router wires handlers and middleware for each service

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/photo-platform/internal/handler"
    "github.com/iliyamo/photo-platform/internal/middleware"
)

// New returns an echo instance with the shared error handler, validator,
// request id, panic recovery, request logging and GET /health.
func New(service string) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.HTTPErrorHandler = handler.HTTPErrorHandler
    e.Validator = handler.NewValidator()

    e.Use(echomw.RequestID())
    e.Use(middleware.RequestLogger())
    e.Use(echomw.Recover())

    e.GET("/health", handler.Health(service))
    return e
}
