package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/kvstore"
	"github.com/iliyamo/photo-platform/internal/model"
	"github.com/iliyamo/photo-platform/internal/repository"
	"github.com/iliyamo/photo-platform/internal/utils"
)

const blacklistPrefix = "blacklist:"

// TokenStore persists refresh token digests.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	// ConsumeRefresh revokes a live token and returns its owner. It returns
	// repository.ErrNotFound when the token is unknown, expired or already
	// revoked, including when a concurrent caller revoked it first.
	ConsumeRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// UserLookup loads users by id.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Pair is the token response returned by login and refresh.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Service is the token service.
type Service struct {
	signer     *Signer
	tokens     TokenStore
	users      UserLookup
	flags      kvstore.Store
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService wires a token service.
func NewService(signer *Signer, tokens TokenStore, users UserLookup, flags kvstore.Store, refreshTTL time.Duration) *Service {
	return &Service{
		signer:     signer,
		tokens:     tokens,
		users:      users,
		flags:      flags,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new access/refresh pair for u and persists the refresh digest.
func (s *Service) Issue(ctx context.Context, u model.User) (Pair, error) {
	access, _, err := s.signer.Sign(u)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	raw, err := utils.NewOpaqueToken(utils.RefreshTokenBytes)
	if err != nil {
		return Pair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashToken(raw), s.now().Add(s.refreshTTL)); err != nil {
		return Pair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "bearer",
		ExpiresIn:    int(s.signer.TTL().Seconds()),
	}, nil
}

// Refresh rotates a refresh token. The presented token is revoked before the
// new pair is issued, so a replay of the same value fails. When two callers
// race on the same value exactly one wins.
func (s *Service) Refresh(ctx context.Context, raw string) (Pair, model.User, error) {
	if raw == "" {
		return Pair{}, model.User{}, ErrInvalidRefreshToken
	}
	userID, err := s.tokens.ConsumeRefresh(ctx, utils.HashToken(raw), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Pair{}, model.User{}, ErrInvalidRefreshToken
		}
		return Pair{}, model.User{}, fmt.Errorf("consume refresh token: %w", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Pair{}, model.User{}, ErrInvalidRefreshToken
		}
		return Pair{}, model.User{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return Pair{}, model.User{}, ErrInvalidRefreshToken
	}
	p, err := s.Issue(ctx, u)
	return p, u, err
}

// Revoke marks a refresh token revoked. Unknown or already revoked tokens
// are not an error.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.tokens.RevokeByHash(ctx, utils.HashToken(raw))
}

// RevokeAllForUser revokes every live refresh token of a user.
func (s *Service) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// Blacklist rejects the access token identified by jti for ttl.
func (s *Service) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return s.flags.SetFlag(ctx, blacklistPrefix+jti, ttl)
}

// Verify parses an access token and checks the blacklist. A blacklist lookup
// failure rejects the token.
func (s *Service) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.signer.Parse(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := s.flags.Exists(ctx, blacklistPrefix+claims.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuth, ErrTokenInvalid.Code, "unable to verify access token", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout blacklists the presented access token for the rest of its
// lifetime and revokes the refresh token when one is given.
func (s *Service) Logout(ctx context.Context, claims *Claims, refreshRaw string) error {
	if claims != nil && claims.ExpiresAt != nil {
		if ttl := claims.ExpiresAt.Time.Sub(s.now()); ttl > 0 {
			if err := s.Blacklist(ctx, claims.ID, ttl); err != nil {
				return fmt.Errorf("blacklist access token: %w", err)
			}
		}
	}
	return s.Revoke(ctx, refreshRaw)
}
