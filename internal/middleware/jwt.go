package middleware

import (
    "context"
    "errors"

    echojwt "github.com/labstack/echo-jwt/v4"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/apperr"
    "github.com/iliyamo/photo-platform/internal/audit"
    "github.com/iliyamo/photo-platform/internal/auth"
    "github.com/iliyamo/photo-platform/internal/model"
)

// ErrMissingToken is returned when a protected route is called without a
// bearer token.
var ErrMissingToken = apperr.New(apperr.KindAuth, "missing_token", "not authenticated")

// Verifier checks an access token, including the blacklist.
type Verifier interface {
    Verify(ctx context.Context, raw string) (*auth.Claims, error)
}

// Lookups for JWTAuth. The photo route also accepts ?token=, for use as
// an image source URL.
const (
    HeaderLookup        = "header:Authorization:Bearer "
    HeaderOrQueryLookup = HeaderLookup + ",query:token"
)

// JWTAuth verifies the bearer token with v and stores the claims under
// ClaimsKey. Rejected tokens are audited as security.invalid_token.
func JWTAuth(v Verifier, rec audit.Recorder, lookup string) echo.MiddlewareFunc {
    return echojwt.WithConfig(echojwt.Config{
        TokenLookup: lookup,
        ContextKey:  ClaimsKey,
        ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
            return v.Verify(c.Request().Context(), raw)
        },
        ErrorHandler: func(c echo.Context, err error) error {
            var e *apperr.Error
            if !errors.As(err, &e) {
                return ErrMissingToken
            }
            meta := Meta(c)
            rec.Record(c.Request().Context(), audit.Event{
                Type: model.EventSecurityInvalidToken, Action: "token_rejected",
                IP: meta.IP, UserAgent: meta.UserAgent, Status: model.AuditWarning,
                Metadata: map[string]any{"reason": e.Code, "path": c.Path()},
            })
            return e
        },
    })
}
