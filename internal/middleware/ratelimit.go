package middleware

import (
    "math"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/apperr"
    "github.com/iliyamo/photo-platform/internal/audit"
    "github.com/iliyamo/photo-platform/internal/logger"
    "github.com/iliyamo/photo-platform/internal/model"
    "github.com/iliyamo/photo-platform/internal/ratelimit"
)

// ErrRateLimited is returned once a client exceeds its class limit.
var ErrRateLimited = apperr.New(apperr.KindRateLimited, "rate_limited", "rate limit exceeded")

// RateLimit counts requests per (class, client IP) and rejects those over
// the class limit before the handler runs. A nil limiter disables it. When
// the store is unreachable the request is let through.
func RateLimit(l *ratelimit.Limiter, class string, rec audit.Recorder) echo.MiddlewareFunc {
    if l == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ip := c.RealIP()
            d, err := l.Allow(c.Request().Context(), class, ip)
            if err != nil {
                logger.Log.Warnw("rate limiter unavailable; allowing request", "class", class, "ip", ip, "error", err)
                return next(c)
            }

            h := c.Response().Header()
            reset := seconds(d.ResetAfter)
            h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
            h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
            h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix()+int64(reset), 10))

            if !d.Allowed {
                h.Set("Retry-After", strconv.Itoa(reset))
                meta := Meta(c)
                ev := audit.Event{
                    Type: model.EventSecurityRateLimit, Action: "rate_limited",
                    IP: meta.IP, UserAgent: meta.UserAgent, Status: model.AuditWarning,
                    Metadata: map[string]any{"class": class, "limit": d.Limit, "path": c.Path()},
                }
                if cl := Claims(c); cl != nil {
                    ev.UserID, ev.Username = cl.UserID(), cl.Username
                }
                rec.Record(c.Request().Context(), ev)
                return ErrRateLimited
            }
            return next(c)
        }
    }
}

func seconds(d time.Duration) int {
    s := int(math.Ceil(d.Seconds()))
    if s < 0 {
        return 0
    }
    return s
}
