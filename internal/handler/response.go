package handler

import (
    "context"
    "time"

    "github.com/labstack/echo/v4"
)

// requestTimeout bounds store calls made on behalf of one request.
const requestTimeout = 5 * time.Second

// envelope is the body of every JSON success response.
type envelope struct {
    Success bool        `json:"success"`
    Message string      `json:"message,omitempty"`
    Data    interface{} `json:"data"`
}

func respond(c echo.Context, status int, message string, data interface{}) error {
    if data == nil {
        data = struct{}{}
    }
    return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}
