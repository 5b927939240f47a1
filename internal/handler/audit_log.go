package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/apperr"
    "github.com/iliyamo/photo-platform/internal/audit"
    "github.com/iliyamo/photo-platform/internal/model"
)

// AuditQuerier is the read side of the audit log.
type AuditQuerier interface {
    List(ctx context.Context, q audit.Query) ([]model.AuditLogEntry, int64, audit.Query, error)
    UserActivity(ctx context.Context, userID string, limit int) ([]model.AuditLogEntry, int64, error)
    SecurityEvents(ctx context.Context, limit int, since time.Time) (audit.SecuritySummary, error)
}

// securityWindow is how far back the security counters look.
const securityWindow = 24 * time.Hour

// AuditLogHandler serves /v1/admin/audit-logs.
type AuditLogHandler struct {
    Logs AuditQuerier
    now  func() time.Time
}

func NewAuditLogHandler(q AuditQuerier) *AuditLogHandler {
    return &AuditLogHandler{Logs: q, now: time.Now}
}

type auditListResp struct {
    Total      int64                 `json:"total"`
    Page       int                   `json:"page"`
    PageSize   int                   `json:"page_size"`
    TotalPages int                   `json:"total_pages"`
    Logs       []model.AuditLogEntry `json:"logs"`
}

type userActivityResp struct {
    UserID           string                `json:"user_id"`
    Username         string                `json:"username,omitempty"`
    TotalEvents      int64                 `json:"total_events"`
    ActivityTimeline []model.AuditLogEntry `json:"activity_timeline"`
}

// limitParam reads ?limit=, defaulting to def and rejecting values outside
// [1, max].
func limitParam(c echo.Context, def, max int) (int, error) {
    raw := c.QueryParam("limit")
    if raw == "" {
        return def, nil
    }
    n, err := strconv.Atoi(raw)
    if err != nil || n < 1 || n > max {
        return 0, apperr.Validation("invalid_limit", "limit must be between 1 and "+strconv.Itoa(max))
    }
    return n, nil
}

// List pages through audit entries, newest first.
func (h *AuditLogHandler) List(c echo.Context) error {
    from, err := optTime(c, "date_from")
    if err != nil {
        return err
    }
    to, err := optTime(c, "date_to")
    if err != nil {
        return err
    }
    page, _ := strconv.Atoi(c.QueryParam("page"))
    size, _ := strconv.Atoi(c.QueryParam("page_size"))
    ctx, cancel := reqCtx(c)
    defer cancel()

    logs, total, q, err := h.Logs.List(ctx, audit.Query{
        Category: strings.TrimSpace(c.QueryParam("event_type")),
        UserID:   strings.TrimSpace(c.QueryParam("user_id")),
        From:     from,
        To:       to,
        Page:     page,
        PageSize: size,
    })
    if err != nil {
        return apperr.Wrap(apperr.KindInternal, "internal_error", "internal server error", err)
    }
    pages := 0
    if total > 0 {
        pages = int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
    }
    return respond(c, http.StatusOK, "", auditListResp{Total: total, Page: q.Page, PageSize: q.PageSize, TotalPages: pages, Logs: logs})
}

// UserActivity is one user's recent timeline.
func (h *AuditLogHandler) UserActivity(c echo.Context) error {
    limit, err := limitParam(c, 50, 200)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    userID := c.Param("id")
    logs, total, err := h.Logs.UserActivity(ctx, userID, limit)
    if err != nil {
        return apperr.Wrap(apperr.KindInternal, "internal_error", "internal server error", err)
    }
    resp := userActivityResp{UserID: userID, TotalEvents: total, ActivityTimeline: logs}
    if len(logs) > 0 {
        resp.Username = logs[0].Username
    }
    return respond(c, http.StatusOK, "", resp)
}

// Security summarizes recent security events.
func (h *AuditLogHandler) Security(c echo.Context) error {
    limit, err := limitParam(c, 100, 500)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    sum, err := h.Logs.SecurityEvents(ctx, limit, h.now().Add(-securityWindow))
    if err != nil {
        return apperr.Wrap(apperr.KindInternal, "internal_error", "internal server error", err)
    }
    return respond(c, http.StatusOK, "", sum)
}
