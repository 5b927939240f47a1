package router

import (
    "fmt"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/photo-platform/internal/audit"
    "github.com/iliyamo/photo-platform/internal/handler"
    "github.com/iliyamo/photo-platform/internal/middleware"
    "github.com/iliyamo/photo-platform/internal/ratelimit"
)

// multipartOverhead is the allowance for form fields and part headers on
// top of the photo itself.
const multipartOverhead = 1 << 20

// RegisterApplication mounts the submission routes. The photo route also
// takes the access token from ?token=.
func RegisterApplication(e *echo.Echo, h *handler.SubmissionHandler, v middleware.Verifier, l *ratelimit.Limiter, rec audit.Recorder) {
    api := middleware.RateLimit(l, ratelimit.ClassAPI, rec)
    bearer := middleware.JWTAuth(v, rec, middleware.HeaderLookup)

    g := e.Group("/v1/submissions")
    g.POST("/upload", h.Upload,
        middleware.RateLimit(l, ratelimit.ClassUpload, rec),
        bearer,
        echomw.BodyLimit(fmt.Sprintf("%dB", h.Submissions.MaxBytes()+multipartOverhead)))
    g.GET("", h.List, api, bearer)
    g.GET("/:id", h.Get, api, bearer)
    g.DELETE("/:id", h.Delete, api, bearer)
    g.GET("/:id/photo", h.Photo, api, middleware.JWTAuth(v, rec, middleware.HeaderOrQueryLookup))
}
