package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/audit"
	"github.com/iliyamo/photo-platform/internal/model"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = NewValidator()
	return e
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		code    string
		message string
	}{
		{"validation", apperr.Validation("invalid_age", "age must be at least 1"), 400, "validation_error", "invalid_age", "age must be at least 1"},
		{"too large", apperr.Validation(apperr.CodeTooLarge, "photo exceeds the maximum upload size"), 413, "validation_error", apperr.CodeTooLarge, "photo exceeds the maximum upload size"},
		{"wrapped conflict", apperr.Wrap(apperr.KindConflict, "email_exists", "email already registered", errors.New("dup")), 409, "conflict", "email_exists", "email already registered"},
		{"storage", apperr.New(apperr.KindStorage, "storage_unavailable", "photo storage unavailable"), 503, "storage_error", "storage_unavailable", "photo storage unavailable"},
		{"echo not found", echo.ErrNotFound, 404, "not_found", "not_found", "Not Found"},
		{"echo body limit", echo.ErrStatusRequestEntityTooLarge, 413, "validation_error", apperr.CodeTooLarge, "Request Entity Too Large"},
		{"unknown", errors.New("dial tcp: refused"), 500, "internal_error", "internal_error", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			HTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
			detail := body["error"].(map[string]any)
			assert.Equal(t, tt.kind, detail["kind"])
			assert.Equal(t, tt.code, detail["code"])
			assert.NotContains(t, rec.Body.String(), "refused")
		})
	}
}

func TestValidUsername(t *testing.T) {
	for name, want := range map[string]bool{
		"alice": true, "alice_99": true, "ab": false, strings.Repeat("a", 31): false,
		"al ice": false, "al-ice": false, "Admin": false, "root": false, "staff": false,
	} {
		assert.Equal(t, want, ValidUsername(name), name)
	}
}

func TestStrongPassword(t *testing.T) {
	for pw, want := range map[string]bool{
		"Str0ng!Pass": true, "Sh0rt!": false, "nouppercase1!": false, "NOLOWERCASE1!": false,
		"NoDigits!!": false, "NoSpecial123": false, "Under_score1": false, `Quote"123a`: true,
	} {
		assert.Equal(t, want, StrongPassword(pw), pw)
	}
}

func TestValidatorReportsJSONField(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&registerReq{Email: "not-an-email", Username: "alice", Password: "Str0ng!Pass"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_email", e.Code)

	long := strings.Repeat("x", 256)
	err = v.Validate(&registerReq{Email: "a@b.co", Username: "alice", Password: "Str0ng!Pass", FullName: &long})
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_full_name", e.Code)

	err = v.Validate(&registerReq{Email: "a@b.co", Username: "admin", Password: "Str0ng!Pass"})
	e, _ = apperr.As(err)
	assert.Equal(t, "invalid_username", e.Code)

	assert.NoError(t, v.Validate(&registerReq{Email: "a@b.co", Username: "alice", Password: "Str0ng!Pass"}))
}

func TestBindRejectsMalformedJSON(t *testing.T) {
	e := newEcho()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	var body loginReq
	assert.ErrorIs(t, bind(c, &body), errInvalidBody)
}

func TestHealth(t *testing.T) {
	e := newEcho()
	e.GET("/health", Health("admin"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"admin"}`, rec.Body.String())
}

func TestFilterParams(t *testing.T) {
	e := newEcho()
	q := "/?age_min=18&age_max=30&gender=male,female&gender=other&country=US&location=Paris" +
		"&search=%20ann%20&classification_status=COMPLETED&classification_result=cat" +
		"&date_from=2025-01-01&date_to=2025-02-01T10:00:00Z"
	c := e.NewContext(httptest.NewRequest(http.MethodGet, q, nil), httptest.NewRecorder())

	f, err := filterParams(c)
	require.NoError(t, err)
	assert.Equal(t, 18, *f.AgeMin)
	assert.Equal(t, 30, *f.AgeMax)
	assert.Equal(t, []string{"male", "female", "other"}, f.Genders)
	assert.Equal(t, []string{"US"}, f.Countries)
	assert.Equal(t, "Paris", f.Location)
	assert.Equal(t, "ann", f.Search)
	assert.Equal(t, model.StatusCompleted, f.Status)
	assert.Equal(t, "cat", f.ResultLabel)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *f.DateFrom)
	assert.Equal(t, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), *f.DateTo)
}

func TestFilterParamsRejectsMalformed(t *testing.T) {
	e := newEcho()
	for query, code := range map[string]string{
		"/?age_min=abc":         "invalid_age_min",
		"/?age_max=1.5":         "invalid_age_max",
		"/?date_from=yesterday": "invalid_date_from",
		"/?date_to=01/02/2025":  "invalid_date_to",
	} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, query, nil), httptest.NewRecorder())
		_, err := filterParams(c)
		ae, ok := apperr.As(err)
		require.True(t, ok, query)
		assert.Equal(t, code, ae.Code, query)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	e := newEcho()
	h := NewAdminHandler(nil)
	e.GET("/v1/admin/export/submissions/:format", h.Export)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/export/submissions/pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "invalid_format", decode(t, rec)["error"].(map[string]any)["code"])
}

type fakeAuditQuerier struct {
	total int64
	last  audit.Query
}

func (f *fakeAuditQuerier) List(_ context.Context, q audit.Query) ([]model.AuditLogEntry, int64, audit.Query, error) {
	f.last = q
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 50
	}
	return []model.AuditLogEntry{{EventType: model.EventAuthLogin, Username: "alice"}}, f.total, q, nil
}

func (f *fakeAuditQuerier) UserActivity(_ context.Context, userID string, limit int) ([]model.AuditLogEntry, int64, error) {
	return []model.AuditLogEntry{{UserID: userID, Username: "alice"}}, f.total, nil
}

func (f *fakeAuditQuerier) SecurityEvents(_ context.Context, _ int, since time.Time) (audit.SecuritySummary, error) {
	return audit.SecuritySummary{Since: since, FailedLoginAttempts: 2}, nil
}

func TestAuditLogHandler(t *testing.T) {
	q := &fakeAuditQuerier{total: 101}
	h := NewAuditLogHandler(q)
	e := newEcho()
	e.GET("/v1/admin/audit-logs", h.List)
	e.GET("/v1/admin/audit-logs/user/:id", h.UserActivity)
	e.GET("/v1/admin/audit-logs/security", h.Security)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/audit-logs?event_type=auth&user_id=u-1&page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(3), data["total_pages"])
	assert.Equal(t, float64(2), data["page"])
	assert.Equal(t, "auth", q.last.Category)
	assert.Equal(t, "u-1", q.last.UserID)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/audit-logs/user/u-9", nil))
	data = decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "u-9", data["user_id"])
	assert.Equal(t, "alice", data["username"])

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/audit-logs/user/u-9?limit=201", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/audit-logs/security", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data = decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["failed_login_attempts"])
}
