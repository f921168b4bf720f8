package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/project-task-tracker/internal/model"
)

// UserRepo encapsulates all database queries against the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,name,role,is_active,invite_token_hash,invite_expires_at,avatar_url,created_at,updated_at"

// Create inserts an active-or-pending user and returns its ID.  The caller
// supplies an already-hashed password; hashing policy belongs to the
// identity service, not the storage layer.
func (r *UserRepo) Create(ctx context.Context, email, name, passwordHash, role string, active bool) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, role, is_active) VALUES (?,?,?,?,?)",
		email, passwordHash, name, role, active)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateInvited inserts an inactive user carrying an outstanding invite
// token fingerprint.  The account becomes active once the invite is
// redeemed and a real password is set.
func (r *UserRepo) CreateInvited(ctx context.Context, email, name, passwordHash, role, inviteHash string, inviteExp time.Time) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, role, is_active, invite_token_hash, invite_expires_at) VALUES (?,?,?,?,FALSE,?,?)",
		email, passwordHash, name, role, inviteHash, inviteExp)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getWhere(ctx, "email=?", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getWhere(ctx, "id=?", id)
}

// GetByInviteToken fetches the user whose unredeemed invite matches the
// given fingerprint and has not expired yet.
func (r *UserRepo) GetByInviteToken(ctx context.Context, tokenHash string) (model.User, error) {
	return r.getWhere(ctx, "invite_token_hash=? AND invite_expires_at > UTC_TIMESTAMP()", tokenHash)
}

func (r *UserRepo) getWhere(ctx context.Context, where string, args ...interface{}) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", args...)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// List returns every user ordered by id.  Listing is an Admin-only
// operation; filtering happens at the handler.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// RolesByIDs resolves the roles of the given user ids in one query.  Ids
// that match no row are simply absent from the result; the caller decides
// whether that is an error.
func (r *UserRepo) RolesByIDs(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, role FROM users WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var role string
		if err := rows.Scan(&id, &role); err != nil {
			return nil, err
		}
		out[id] = role
	}
	return out, rows.Err()
}

// UpdateProfile changes a user's display name.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET name=? WHERE id=?", name, id)
	return err
}

// UpdateAvatar stores the public URL of a freshly uploaded avatar.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, url string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET avatar_url=? WHERE id=?", url, id)
	return err
}

// UpdateRole changes a user's role.  Only Admin callers reach this.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrUserNotFound)
}

// SetActive flips the activation flag.  Deactivation is the only removal
// path in the system; rows are never hard-deleted because avatars,
// attachments and activity entries keep referencing the user id.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrUserNotFound)
}

// RefreshInvite replaces the outstanding invite on a still-pending account
// with a new token fingerprint and expiry.  Only inactive rows qualify, so
// an activated account can never be pulled back into the invite flow.
func (r *UserRepo) RefreshInvite(ctx context.Context, id uint64, inviteHash string, inviteExp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET invite_token_hash=?, invite_expires_at=? WHERE id=? AND is_active=FALSE",
		inviteHash, inviteExp, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrUserNotFound)
}

// RedeemInvite sets the user's real password, clears the invite fields and
// activates the account in a single statement.
func (r *UserRepo) RedeemInvite(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, invite_token_hash=NULL, invite_expires_at=NULL, is_active=TRUE WHERE id=?",
		passwordHash, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrUserNotFound)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...interface{}) error }

func scanUser(s scanner) (model.User, error) {
	var (
		u          model.User
		inviteHash sql.NullString
		inviteExp  sql.NullTime
		avatar     sql.NullString
	)
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive,
		&inviteHash, &inviteExp, &avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.InviteTokenHash = inviteHash.String
	if inviteExp.Valid {
		t := inviteExp.Time
		u.InviteExpiresAt = &t
	}
	u.AvatarURL = avatar.String
	return u, nil
}

// isDuplicate detects MySQL error 1062 (duplicate entry on a unique key).
func isDuplicate(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}

// requireRowAffected maps an update that touched no rows to notFound.
func requireRowAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
