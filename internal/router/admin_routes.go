package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/audit"
    "github.com/iliyamo/photo-platform/internal/handler"
    "github.com/iliyamo/photo-platform/internal/middleware"
    "github.com/iliyamo/photo-platform/internal/model"
    "github.com/iliyamo/photo-platform/internal/ratelimit"
)

// RegisterAdmin mounts /v1/admin behind the ADMIN role. analyticsCache
// wraps the analytics route only.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, logs *handler.AuditLogHandler, v middleware.Verifier, l *ratelimit.Limiter, rec audit.Recorder, analyticsCache echo.MiddlewareFunc) {
    g := e.Group("/v1/admin",
        middleware.RateLimit(l, ratelimit.ClassAPI, rec),
        middleware.JWTAuth(v, rec, middleware.HeaderLookup),
        middleware.RequireRole(string(model.RoleAdmin)))

    g.GET("/submissions", a.List)
    g.GET("/submissions/:id", a.Get)
    g.DELETE("/submissions/:id", a.Delete)
    g.GET("/analytics", a.Analytics, analyticsCache)
    g.GET("/export/submissions/:format", a.Export)

    g.GET("/audit-logs", logs.List)
    g.GET("/audit-logs/security", logs.Security)
    g.GET("/audit-logs/user/:id", logs.UserActivity)
}
