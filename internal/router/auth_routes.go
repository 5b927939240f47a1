package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/audit"
    "github.com/iliyamo/photo-platform/internal/handler"
    "github.com/iliyamo/photo-platform/internal/middleware"
    "github.com/iliyamo/photo-platform/internal/ratelimit"
)

// RegisterAuth mounts the auth service. Register, login and refresh have
// their own rate-limit classes; everything else counts against "api".
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v middleware.Verifier, l *ratelimit.Limiter, rec audit.Recorder) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register, middleware.RateLimit(l, ratelimit.ClassRegister, rec))
    g.POST("/login", a.Login, middleware.RateLimit(l, ratelimit.ClassLogin, rec))
    g.POST("/refresh", a.Refresh, middleware.RateLimit(l, ratelimit.ClassRefresh, rec))
    g.POST("/logout", a.Logout,
        middleware.RateLimit(l, ratelimit.ClassAPI, rec),
        middleware.JWTAuth(v, rec, middleware.HeaderLookup))

    u := e.Group("/v1/users",
        middleware.RateLimit(l, ratelimit.ClassAPI, rec),
        middleware.JWTAuth(v, rec, middleware.HeaderLookup))
    u.GET("/me", a.Me)
    u.PUT("/me", a.UpdateMe)
    u.POST("/change-password", a.ChangePassword)
}
