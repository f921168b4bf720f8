package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRefreshTokenInvalid is returned when a refresh fingerprint matches no
// row, a revoked row, or an expired row.  The three cases are collapsed on
// purpose; the client learns only that the session is gone.
var ErrRefreshTokenInvalid = errors.New("refresh token invalid")

// TokenRepo persists refresh token fingerprints.  Only the SHA-256 digest
// of the signed refresh JWT is stored, so a leaked table cannot be
// replayed, while logout and revoke-all still work by fingerprint.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a newly issued refresh token fingerprint.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh resolves a fingerprint to its user id.  Revocation and
// expiry are checked here rather than in SQL so the row is read exactly as
// stored; both fail with ErrRefreshTokenInvalid.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, ErrRefreshTokenInvalid
	case err != nil:
		return 0, err
	case revokedAt.Valid, time.Now().UTC().After(expiresAt):
		return 0, ErrRefreshTokenInvalid
	}
	return userID, nil
}

// RevokeByHash revokes the single session behind one fingerprint.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes every active session a user has.  Called on
// logout-everywhere and whenever an account is deactivated.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
