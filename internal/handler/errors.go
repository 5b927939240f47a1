package handler

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/apperr"
    "github.com/iliyamo/photo-platform/internal/logger"
)

type errorDetail struct {
    Kind apperr.Kind `json:"kind"`
    Code string      `json:"code"`
}

type errorBody struct {
    Success bool        `json:"success"`
    Message string      `json:"message"`
    Error   errorDetail `json:"error"`
}

// kindForStatus classifies echo's own HTTP errors (404 route, 405, 413
// from BodyLimit, bad binds).
func kindForStatus(status int) apperr.Kind {
    switch {
    case status == http.StatusUnauthorized:
        return apperr.KindAuth
    case status == http.StatusForbidden:
        return apperr.KindAuthorization
    case status == http.StatusNotFound:
        return apperr.KindNotFound
    case status == http.StatusTooManyRequests:
        return apperr.KindRateLimited
    case status == http.StatusConflict:
        return apperr.KindConflict
    case status >= 500:
        return apperr.KindInternal
    default:
        return apperr.KindValidation
    }
}

// HTTPErrorHandler renders every error returned by handlers and middleware
// as {success:false, message, error:{kind, code}}. Unclassified errors
// become a generic 500 and are logged with the request id.
func HTTPErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        logger.Log.Warnw("error after response started", "path", c.Path(), "error", err)
        return
    }

    var (
        status int
        body   = errorBody{Success: false}
        he     *echo.HTTPError
    )
    if e, ok := apperr.As(err); ok {
        status = e.HTTPStatus()
        body.Message = e.Message
        body.Error = errorDetail{Kind: e.Kind, Code: e.Code}
    } else if errors.As(err, &he) {
        status = he.Code
        body.Message = fmt.Sprint(he.Message)
        kind := kindForStatus(status)
        code := string(kind)
        if status == http.StatusRequestEntityTooLarge {
            code = apperr.CodeTooLarge
        }
        body.Error = errorDetail{Kind: kind, Code: code}
    } else {
        status = http.StatusInternalServerError
        body.Message = "internal server error"
        body.Error = errorDetail{Kind: apperr.KindInternal, Code: "internal_error"}
    }

    if status >= 500 {
        logger.Log.Errorw("request failed",
            "request_id", c.Response().Header().Get(echo.HeaderXRequestID),
            "method", c.Request().Method, "path", c.Path(), "status", status, "error", err)
    }

    if c.Request().Method == http.MethodHead {
        err = c.NoContent(status)
    } else {
        err = c.JSON(status, body)
    }
    if err != nil {
        logger.Log.Errorw("write error response", "error", err)
    }
}
