package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/require"
)

func userRows(id uint64, email, role string, active bool) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows([]string{
        "id", "email", "password_hash", "name", "role", "is_active",
        "invite_token_hash", "invite_expires_at", "avatar_url", "created_at", "updated_at",
    }).AddRow(id, email, "$2a$04$hash", "Someone", role, active, nil, nil, nil, now, now)
}

func TestUserRepoGetByEmail(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewUserRepo(db)

    t.Run("found and email normalized", func(t *testing.T) {
        mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1")).
            WithArgs("dev@example.com").
            WillReturnRows(userRows(7, "dev@example.com", "MEMBER", true))

        u, err := repo.GetByEmail(context.Background(), "  Dev@Example.COM ")
        require.NoError(t, err)
        require.EqualValues(t, 7, u.ID)
        require.Equal(t, "MEMBER", u.Role)
    })

    t.Run("absent row maps to ErrUserNotFound", func(t *testing.T) {
        mock.ExpectQuery("SELECT .* FROM users WHERE email=").
            WithArgs("ghost@example.com").
            WillReturnRows(sqlmock.NewRows([]string{"id"}))

        _, err := repo.GetByEmail(context.Background(), "ghost@example.com")
        require.ErrorIs(t, err, ErrUserNotFound)
    })

    require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicateEmail(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewUserRepo(db)

    mock.ExpectExec("INSERT INTO users").
        WithArgs("dev@example.com", "hash", "Dev", "MEMBER", true).
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

    _, err = repo.Create(context.Background(), "dev@example.com", "Dev", "hash", "MEMBER", true)
    require.ErrorIs(t, err, ErrEmailExists)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoRedeemInvite(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewUserRepo(db)

    t.Run("clears invite and activates", func(t *testing.T) {
        mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=?, invite_token_hash=NULL, invite_expires_at=NULL, is_active=TRUE WHERE id=?")).
            WithArgs("newhash", uint64(3)).
            WillReturnResult(sqlmock.NewResult(0, 1))

        require.NoError(t, repo.RedeemInvite(context.Background(), 3, "newhash"))
    })

    t.Run("missing user", func(t *testing.T) {
        mock.ExpectExec("UPDATE users SET password_hash=").
            WithArgs("newhash", uint64(99)).
            WillReturnResult(sqlmock.NewResult(0, 0))

        err := repo.RedeemInvite(context.Background(), 99, "newhash")
        require.ErrorIs(t, err, ErrUserNotFound)
    })

    require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoRolesByIDs(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewUserRepo(db)

    t.Run("empty input short-circuits", func(t *testing.T) {
        roles, err := repo.RolesByIDs(context.Background(), nil)
        require.NoError(t, err)
        require.Empty(t, roles)
    })

    t.Run("missing ids are absent from the map", func(t *testing.T) {
        mock.ExpectQuery(regexp.QuoteMeta("SELECT id, role FROM users WHERE id IN (?,?)")).
            WithArgs(uint64(1), uint64(2)).
            WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow(1, "ADMIN"))

        roles, err := repo.RolesByIDs(context.Background(), []uint64{1, 2})
        require.NoError(t, err)
        require.Equal(t, map[uint64]string{1: "ADMIN"}, roles)
    })

    require.NoError(t, mock.ExpectationsWereMet())
}
