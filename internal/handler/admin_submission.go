package handler

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/apperr"
    "github.com/iliyamo/photo-platform/internal/middleware"
    "github.com/iliyamo/photo-platform/internal/model"
    "github.com/iliyamo/photo-platform/internal/repository"
    "github.com/iliyamo/photo-platform/internal/service"
)

// AdminHandler serves /v1/admin/submissions, analytics and export.
type AdminHandler struct {
    Admin *service.AdminService
    now   func() time.Time
}

func NewAdminHandler(a *service.AdminService) *AdminHandler {
    return &AdminHandler{Admin: a, now: time.Now}
}

func optInt(c echo.Context, name string) (*int, error) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return nil, nil
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return nil, apperr.Validation("invalid_"+name, name+" must be an integer")
    }
    return &n, nil
}

// multi accepts both ?gender=a&gender=b and ?gender=a,b.
func multi(c echo.Context, name string) []string {
    var out []string
    for _, v := range c.QueryParams()[name] {
        for _, p := range strings.Split(v, ",") {
            if p = strings.TrimSpace(p); p != "" {
                out = append(out, p)
            }
        }
    }
    return out
}

// optTime accepts RFC 3339 timestamps and plain dates.
func optTime(c echo.Context, name string) (*time.Time, error) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return nil, nil
    }
    for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
        if t, err := time.Parse(layout, raw); err == nil {
            t = t.UTC()
            return &t, nil
        }
    }
    return nil, apperr.Validation("invalid_"+name, name+" must be an ISO 8601 date or timestamp")
}

// filterParams reads the admin filter query parameters.
func filterParams(c echo.Context) (repository.SubmissionFilter, error) {
    var (
        f   repository.SubmissionFilter
        err error
    )
    if f.AgeMin, err = optInt(c, "age_min"); err != nil {
        return f, err
    }
    if f.AgeMax, err = optInt(c, "age_max"); err != nil {
        return f, err
    }
    if f.DateFrom, err = optTime(c, "date_from"); err != nil {
        return f, err
    }
    if f.DateTo, err = optTime(c, "date_to"); err != nil {
        return f, err
    }
    f.Genders = multi(c, "gender")
    f.Countries = multi(c, "country")
    f.Location = strings.TrimSpace(c.QueryParam("location"))
    f.Search = strings.TrimSpace(c.QueryParam("search"))
    f.Status = model.SubmissionStatus(strings.ToLower(strings.TrimSpace(c.QueryParam("classification_status"))))
    f.ResultLabel = strings.TrimSpace(c.QueryParam("classification_result"))
    return f, nil
}

func sortParams(c echo.Context) repository.Sort {
    return repository.NewSort(c.QueryParam("sort_by"), c.QueryParam("sort_order"))
}

// List is the filtered, sorted, paginated submission search.
func (h *AdminHandler) List(c echo.Context) error {
    f, err := filterParams(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    res, err := h.Admin.Search(ctx, middleware.Actor(c), f, sortParams(c), pageParams(c), middleware.Meta(c))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, "", res)
}

// Get returns any submission.
func (h *AdminHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    sub, err := h.Admin.Get(ctx, c.Param("id"))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, "", sub)
}

// Delete soft-deletes any submission.
func (h *AdminHandler) Delete(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Admin.Delete(ctx, middleware.Actor(c), c.Param("id"), middleware.Meta(c)); err != nil {
        return err
    }
    return respond(c, http.StatusOK, "Submission deleted successfully", nil)
}

// Analytics returns the dashboard summary.
func (h *AdminHandler) Analytics(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    a, err := h.Admin.Analytics(ctx)
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, "", a)
}
