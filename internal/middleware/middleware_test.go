package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/audit"
	"github.com/iliyamo/photo-platform/internal/auth"
	"github.com/iliyamo/photo-platform/internal/config"
	"github.com/iliyamo/photo-platform/internal/kvstore"
	"github.com/iliyamo/photo-platform/internal/model"
	"github.com/iliyamo/photo-platform/internal/ratelimit"
)

type captureAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *captureAudit) Record(_ context.Context, ev audit.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

type verifierFunc func(ctx context.Context, raw string) (*auth.Claims, error)

func (f verifierFunc) Verify(ctx context.Context, raw string) (*auth.Claims, error) { return f(ctx, raw) }

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(okHandler)(c)
	return rec, c, err
}

func signerVerifier(s *auth.Signer) Verifier {
	return verifierFunc(func(_ context.Context, raw string) (*auth.Claims, error) { return s.Parse(raw) })
}

func TestJWTAuth(t *testing.T) {
	signer := auth.NewSigner("test-secret", time.Minute)
	token, _, err := signer.Sign(model.User{ID: "u-1", Username: "alice", Role: model.RoleAdmin})
	require.NoError(t, err)

	t.Run("header", func(t *testing.T) {
		rec := &captureAudit{}
		req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		_, c, err := serve(JWTAuth(signerVerifier(signer), rec, HeaderLookup), req)
		require.NoError(t, err)
		require.NotNil(t, Claims(c))
		assert.Equal(t, "u-1", Actor(c).UserID)
		assert.True(t, Actor(c).Admin)
		assert.Empty(t, rec.events)
	})

	t.Run("query only where allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/submissions/x/photo?token="+token, nil)
		_, _, err := serve(JWTAuth(signerVerifier(signer), &captureAudit{}, HeaderOrQueryLookup), req)
		require.NoError(t, err)

		req = httptest.NewRequest(http.MethodGet, "/v1/users/me?token="+token, nil)
		_, _, err = serve(JWTAuth(signerVerifier(signer), &captureAudit{}, HeaderLookup), req)
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("missing", func(t *testing.T) {
		rec := &captureAudit{}
		_, _, err := serve(JWTAuth(signerVerifier(signer), rec, HeaderLookup), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, ErrMissingToken)
		assert.Equal(t, http.StatusUnauthorized, apperr.Status(apperr.KindOf(err)))
		assert.Empty(t, rec.events)
	})

	t.Run("rejected is audited", func(t *testing.T) {
		rec := &captureAudit{}
		revoked := verifierFunc(func(context.Context, string) (*auth.Claims, error) { return nil, auth.ErrTokenRevoked })
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		_, _, err := serve(JWTAuth(revoked, rec, HeaderLookup), req)
		assert.ErrorIs(t, err, auth.ErrTokenRevoked)
		require.Len(t, rec.events, 1)
		assert.Equal(t, model.EventSecurityInvalidToken, rec.events[0].Type)
		assert.Equal(t, "token_revoked", rec.events[0].Metadata["reason"])
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer not.a.jwt")
		_, _, err := serve(JWTAuth(signerVerifier(signer), &captureAudit{}, HeaderLookup), req)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(string(model.RoleAdmin))
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.ErrorIs(t, mw(okHandler)(c), ErrMissingToken)

	c.Set(ClaimsKey, &auth.Claims{Role: string(model.RoleUser)})
	err := mw(okHandler)(c)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	c.Set(ClaimsKey, &auth.Claims{Role: string(model.RoleAdmin)})
	assert.NoError(t, mw(okHandler)(c))
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestRateLimit(t *testing.T) {
	rdb, mr := newRedis(t)
	l, err := ratelimit.New(kvstore.NewRedisStore(rdb), "rl", map[string]string{ratelimit.ClassLogin: "2/minute", ratelimit.ClassAPI: "100/minute"})
	require.NoError(t, err)
	rec := &captureAudit{}
	mw := RateLimit(l, ratelimit.ClassLogin, rec)

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		r.RemoteAddr = "10.1.1.1:5555"
		return r
	}
	for i := 0; i < 2; i++ {
		res, _, err := serve(mw, req())
		require.NoError(t, err)
		assert.Equal(t, "2", res.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, res.Header().Get("X-RateLimit-Reset"))
	}
	res, _, err := serve(mw, req())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, "0", res.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", res.Header().Get("Retry-After"))
	require.Len(t, rec.events, 1)
	assert.Equal(t, model.EventSecurityRateLimit, rec.events[0].Type)
	assert.Equal(t, "10.1.1.1", rec.events[0].IP)

	mr.Close()
	res, _, err = serve(mw, req())
	assert.NoError(t, err, "store outage fails open")
	assert.Empty(t, res.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitDisabled(t *testing.T) {
	_, _, err := serve(RateLimit(nil, ratelimit.ClassAPI, audit.Nop{}), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
}

func TestResponseCache(t *testing.T) {
	rdb, mr := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}
	calls := 0
	h := func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]int{"calls": calls})
	}
	e := echo.New()
	e.GET("/v1/admin/analytics", h, ResponseCache(cfg, "analytics", rdb))

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/analytics", nil))
		return rec
	}
	first := get()
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get()
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)
	assert.Len(t, mr.Keys(), 1)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, "MISS", get().Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	rdb, mr := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusServiceUnavailable, "down") }, ResponseCache(cfg, "x", rdb))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, mr.Keys())
}
