package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/logger"
)

// RequestLogger writes one structured line per request. It expects echo's
// RequestID middleware to run first.
func RequestLogger() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler pick the status before logging it
                c.Error(err)
            }
            req, res := c.Request(), c.Response()
            fields := []interface{}{
                "request_id", res.Header().Get(echo.HeaderXRequestID),
                "method", req.Method,
                "path", c.Path(),
                "status", res.Status,
                "bytes", res.Size,
                "latency_ms", time.Since(start).Milliseconds(),
                "ip", c.RealIP(),
            }
            if cl := Claims(c); cl != nil {
                fields = append(fields, "user_id", cl.UserID())
            }
            switch {
            case res.Status >= 500:
                logger.Log.Errorw("request", fields...)
            case res.Status >= 400:
                logger.Log.Warnw("request", fields...)
            default:
                logger.Log.Infow("request", fields...)
            }
            return nil
        }
    }
}
