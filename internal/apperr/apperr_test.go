package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuth, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindStorage, http.StatusServiceUnavailable},
		{KindClassification, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.kind))
		})
	}
}

func TestErrorChain(t *testing.T) {
	sentinel := New(KindAuth, "token_expired", "access token has expired")
	wrapped := fmt.Errorf("verify: %w", sentinel)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.Equal(t, KindAuth, KindOf(wrapped))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "token_expired", e.Code)

	other := New(KindAuth, "token_revoked", "access token has been revoked")
	assert.False(t, errors.Is(wrapped, other))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindStorage, "object_store", "photo storage unavailable", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "photo storage unavailable: connection refused", err.Error())
	assert.Equal(t, KindInternal, KindOf(cause))
}

func TestHTTPStatusTooLarge(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, Validation(CodeTooLarge, "file too large").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, Validation("invalid_age", "age out of range").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NotFound("submission not found").HTTPStatus())
}
