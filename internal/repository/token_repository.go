package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// TokenRepo persists refresh token digests (single 'token_hash' column).
type TokenRepo struct{ DB *sqlx.DB }

func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, revoked, created_at) VALUES (?,?,?,0,?)",
		userID, tokenHash, exp, time.Now().UTC())
	return err
}

// ConsumeRefresh revokes a live token and returns its owner. The
// conditional UPDATE decides the winner when the same token is presented
// concurrently: only the caller that flips revoked 0->1 succeeds.
func (r *TokenRepo) ConsumeRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var userID string
	err := r.DB.GetContext(ctx, &userID,
		"SELECT user_id FROM refresh_tokens WHERE token_hash=? LIMIT 1", tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1, revoked_at=? WHERE token_hash=? AND revoked=0 AND expires_at>?",
		now, tokenHash, now)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n != 1 {
		return "", ErrNotFound
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked. Already revoked or unknown
// tokens are left alone.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1, revoked_at=? WHERE token_hash=? AND revoked=0",
		time.Now().UTC(), tokenHash)
	return err
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1, revoked_at=? WHERE user_id=? AND revoked=0",
		time.Now().UTC(), userID)
	return err
}
