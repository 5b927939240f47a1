// Package auth issues and verifies access tokens and manages the refresh
// token lifecycle.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/model"
)

// TokenTypeAccess is the only token_type accepted on protected routes.
const TokenTypeAccess = "access"

var (
	ErrTokenExpired        = apperr.New(apperr.KindAuth, "token_expired", "access token has expired")
	ErrTokenInvalid        = apperr.New(apperr.KindAuth, "token_invalid", "invalid access token")
	ErrTokenRevoked        = apperr.New(apperr.KindAuth, "token_revoked", "access token has been revoked")
	ErrInvalidRefreshToken = apperr.New(apperr.KindAuth, "invalid_refresh_token", "invalid or expired refresh token")
)

// Claims is the access token payload. Subject carries the user id.
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// IsAdmin reports whether the token carries the ADMIN role.
func (c *Claims) IsAdmin() bool { return c.Role == string(model.RoleAdmin) }

// Signer builds and parses HS256 access tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer for the given secret and access lifetime.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// TTL is the access token lifetime.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign issues an access token for u.
func (s *Signer) Sign(u model.User) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		Username:  u.Username,
		Role:      string(u.Role),
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates signature, algorithm, expiry and token type. It does not
// consult the blacklist; see Service.Verify.
func (s *Signer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, apperr.Wrap(apperr.KindAuth, ErrTokenInvalid.Code, ErrTokenInvalid.Message, err)
	}
	if claims.TokenType != TokenTypeAccess || claims.Subject == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
