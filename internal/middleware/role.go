package middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/apperr"
)

// ErrForbidden is returned when the caller's role is not allowed.
var ErrForbidden = apperr.New(apperr.KindAuthorization, "forbidden", "insufficient permissions")

// RequireRole enforces that the authenticated caller has one of roles. It
// must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            cl := Claims(c)
            if cl == nil {
                return ErrMissingToken
            }
            if !allowed[cl.Role] {
                return ErrForbidden
            }
            return next(c)
        }
    }
}
