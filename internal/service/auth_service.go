package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/audit"
	"github.com/iliyamo/photo-platform/internal/auth"
	"github.com/iliyamo/photo-platform/internal/logger"
	"github.com/iliyamo/photo-platform/internal/model"
	"github.com/iliyamo/photo-platform/internal/repository"
	"github.com/iliyamo/photo-platform/internal/utils"
)

// UserStore is the user persistence used by AuthService.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByLogin(ctx context.Context, login string) (model.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateFullName(ctx context.Context, id string, fullName *string) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

// TokenService is the subset of auth.Service used here.
type TokenService interface {
	Issue(ctx context.Context, u model.User) (auth.Pair, error)
	Refresh(ctx context.Context, raw string) (auth.Pair, model.User, error)
	Logout(ctx context.Context, claims *auth.Claims, refreshRaw string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

var (
	ErrInvalidCredentials = apperr.New(apperr.KindAuth, "invalid_credentials", "incorrect username or password")
	ErrAccountDisabled    = apperr.New(apperr.KindAuthorization, "account_disabled", "account is disabled")
	ErrWrongPassword      = apperr.Validation("invalid_current_password", "current password is incorrect")
	ErrSamePassword       = apperr.Validation("invalid_new_password", "new password must differ from the current one")
)

// AuthService implements registration, login and profile operations.
type AuthService struct {
	users      UserStore
	tokens     TokenService
	audit      audit.Recorder
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users UserStore, tokens TokenService, rec audit.Recorder, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		audit:      rec,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName *string
}

// Register creates an active USER account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta Meta) (model.User, auth.Pair, error) {
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return model.User{}, auth.Pair{}, apperr.Validation("invalid_password", "password is too long")
		}
		return model.User{}, auth.Pair{}, internal("hash password", err)
	}
	u := model.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		FullName:     NormalizeFullName(in.FullName),
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		var out *apperr.Error
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			out = apperr.New(apperr.KindConflict, "email_exists", "email already registered")
		case errors.Is(err, repository.ErrUsernameExists):
			out = apperr.New(apperr.KindConflict, "username_exists", "username already taken")
		default:
			return model.User{}, auth.Pair{}, internal("create user", err)
		}
		s.audit.Record(ctx, audit.Event{
			Type: model.EventAuthRegister, Username: strings.ToLower(in.Username), Action: "registration_failed",
			IP: meta.IP, UserAgent: meta.UserAgent, Status: model.AuditFailure,
			Metadata: map[string]any{"reason": out.Code},
		})
		return model.User{}, auth.Pair{}, out
	}
	s.audit.Record(ctx, audit.Event{
		Type: model.EventAuthRegister, UserID: u.ID, Username: u.Username, Action: "register",
		IP: meta.IP, UserAgent: meta.UserAgent, Metadata: map[string]any{"email": u.Email},
	})
	logger.Log.Infow("user registered", "user_id", u.ID, "username", u.Username)
	pair, err := s.tokens.Issue(ctx, u)
	if err != nil {
		return model.User{}, auth.Pair{}, internal("issue tokens", err)
	}
	return u, pair, nil
}

// Login authenticates by username or email and issues a token pair.
func (s *AuthService) Login(ctx context.Context, login, password string, meta Meta) (auth.Pair, model.User, error) {
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return auth.Pair{}, model.User{}, internal("load user", err)
	}
	if err != nil || !utils.VerifyPassword(u.PasswordHash, password) {
		s.audit.Record(ctx, audit.Event{
			Type: model.EventAuthFailedLogin, UserID: u.ID, Username: strings.ToLower(login), Action: "login_failed",
			IP: meta.IP, UserAgent: meta.UserAgent, Status: model.AuditFailure,
			Metadata: map[string]any{"reason": "invalid_credentials"},
		})
		return auth.Pair{}, model.User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.audit.Record(ctx, audit.Event{
			Type: model.EventAuthFailedLogin, UserID: u.ID, Username: u.Username, Action: "login_failed",
			IP: meta.IP, UserAgent: meta.UserAgent, Status: model.AuditFailure,
			Metadata: map[string]any{"reason": "account_disabled"},
		})
		return auth.Pair{}, model.User{}, ErrAccountDisabled
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		logger.Log.Warnw("update last login failed", "user_id", u.ID, "error", err)
	} else {
		u.LastLoginAt = &now
	}
	pair, err := s.tokens.Issue(ctx, u)
	if err != nil {
		return auth.Pair{}, model.User{}, internal("issue tokens", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type: model.EventAuthLogin, UserID: u.ID, Username: u.Username, Action: "login",
		IP: meta.IP, UserAgent: meta.UserAgent,
	})
	return pair, u, nil
}

// Refresh rotates a refresh token.
func (s *AuthService) Refresh(ctx context.Context, raw string, meta Meta) (auth.Pair, error) {
	pair, u, err := s.tokens.Refresh(ctx, raw)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			s.audit.Record(ctx, audit.Event{
				Type: model.EventAuthTokenRefresh, Action: "token_refresh_failed",
				IP: meta.IP, UserAgent: meta.UserAgent, Status: model.AuditFailure,
			})
			return auth.Pair{}, err
		}
		return auth.Pair{}, internal("refresh", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type: model.EventAuthTokenRefresh, UserID: u.ID, Username: u.Username, Action: "token_refresh",
		IP: meta.IP, UserAgent: meta.UserAgent,
	})
	return pair, nil
}

// Logout blacklists the current access token and revokes the refresh token.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims, refreshRaw string, meta Meta) error {
	if err := s.tokens.Logout(ctx, claims, refreshRaw); err != nil {
		return internal("logout", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type: model.EventAuthLogout, UserID: claims.UserID(), Username: claims.Username, Action: "logout",
		IP: meta.IP, UserAgent: meta.UserAgent,
	})
	return nil
}

// Profile returns the caller's account.
func (s *AuthService) Profile(ctx context.Context, userID string) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, notFoundOr("load user", "user", err)
	}
	return u, nil
}

// UpdateProfile changes the display name. A blank name clears it.
func (s *AuthService) UpdateProfile(ctx context.Context, actor Actor, fullName *string, meta Meta) (model.User, error) {
	name := NormalizeFullName(fullName)
	if err := s.users.UpdateFullName(ctx, actor.UserID, name); err != nil {
		return model.User{}, notFoundOr("update profile", "user", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type: model.EventUserProfileUpdate, UserID: actor.UserID, Username: actor.Username, Action: "profile_update",
		IP: meta.IP, UserAgent: meta.UserAgent,
	})
	return s.Profile(ctx, actor.UserID)
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every refresh token of the user.
func (s *AuthService) ChangePassword(ctx context.Context, actor Actor, current, next string, meta Meta) error {
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return notFoundOr("load user", "user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		s.audit.Record(ctx, audit.Event{
			Type: model.EventAuthPasswordChange, UserID: u.ID, Username: u.Username, Action: "password_change_failed",
			IP: meta.IP, UserAgent: meta.UserAgent, Status: model.AuditFailure,
		})
		return ErrWrongPassword
	}
	if current == next {
		return ErrSamePassword
	}
	hash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return apperr.Validation("invalid_new_password", "password is too long")
		}
		return internal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return notFoundOr("update password", "user", err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return internal("revoke tokens", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type: model.EventAuthPasswordChange, UserID: u.ID, Username: u.Username, Action: "password_change",
		IP: meta.IP, UserAgent: meta.UserAgent,
	})
	return nil
}

var spaces = regexp.MustCompile(`\s+`)

// NormalizeFullName trims and collapses whitespace; blank becomes nil.
func NormalizeFullName(name *string) *string {
	if name == nil {
		return nil
	}
	v := spaces.ReplaceAllString(strings.TrimSpace(*name), " ")
	if v == "" {
		return nil
	}
	return &v
}
