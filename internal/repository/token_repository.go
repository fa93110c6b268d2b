package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// TokenRepo persists revoked access tokens.  Rows are never removed; expired
// entries may be purged by an external job.
type TokenRepo struct{ db *sqlx.DB }

// NewTokenRepo returns the revocation store.
func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{db: db} }

// Blacklist records a token as revoked.  Revoking an already revoked token
// is not an error.
func (r *TokenRepo) Blacklist(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, "INSERT IGNORE INTO blacklisted_tokens (token) VALUES (?)", token)
	return err
}

// IsBlacklisted reports whether the token has been revoked.
func (r *TokenRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, "SELECT EXISTS(SELECT 1 FROM blacklisted_tokens WHERE token = ?)", token)
	return ok, err
}
