package middleware

// identity.go holds the accessors shared by middleware and handlers for the
// authenticated caller stored in the echo context.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/auth"
    "github.com/iliyamo/photo-platform/internal/service"
)

// ClaimsKey is the context key under which JWTAuth stores *auth.Claims.
const ClaimsKey = "claims"

// Claims returns the verified access token claims, or nil on public routes.
func Claims(c echo.Context) *auth.Claims {
    cl, _ := c.Get(ClaimsKey).(*auth.Claims)
    return cl
}

// Actor builds the service-level caller from the claims.
func Actor(c echo.Context) service.Actor {
    cl := Claims(c)
    if cl == nil {
        return service.Actor{}
    }
    return service.Actor{UserID: cl.UserID(), Username: cl.Username, Admin: cl.IsAdmin()}
}

// Meta is the client address and user agent for audit events.
func Meta(c echo.Context) service.Meta {
    return service.Meta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}
