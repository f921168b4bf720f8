package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/project-task-tracker/internal/config"
    "github.com/iliyamo/project-task-tracker/internal/repository"
    "github.com/iliyamo/project-task-tracker/internal/service"
    "github.com/iliyamo/project-task-tracker/internal/utils"
)

func authTestIssuer() *utils.Issuer {
    return utils.NewIssuer("access-secret", "refresh-secret",
        utils.ExpiryPolicy{Access: 20 * time.Minute, Refresh: 7 * 24 * time.Hour},
        utils.ExpiryPolicy{Access: time.Hour, Refresh: 30 * 24 * time.Hour},
    )
}

func newAuthTestHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })

    cfg := config.Config{BcryptCost: 4, RefreshCookieName: "refresh_token"}
    users := repository.NewUserRepo(db)
    return NewAuthHandler(
        cfg,
        service.NewIdentityService(users, nil, cfg),
        users,
        repository.NewTokenRepo(db),
        authTestIssuer(),
    ), mock
}

func authUserRow(id uint64, email, hash, role string, active bool) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows([]string{
        "id", "email", "password_hash", "name", "role", "is_active",
        "invite_token_hash", "invite_expires_at", "avatar_url", "created_at", "updated_at",
    }).AddRow(id, email, hash, "Someone", role, active, nil, nil, nil, now, now)
}

func postJSON(path, body string) (*http.Request, *httptest.ResponseRecorder) {
    req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    return req, httptest.NewRecorder()
}

func TestLogin(t *testing.T) {
    hash, err := utils.HashPassword("correct horse", 4)
    require.NoError(t, err)

    t.Run("valid credentials establish a session", func(t *testing.T) {
        h, mock := newAuthTestHandler(t)
        e := echo.New()

        mock.ExpectQuery("SELECT .* FROM users WHERE email=").
            WithArgs("dev@example.com").
            WillReturnRows(authUserRow(1, "dev@example.com", hash, "MANAGER", true))
        mock.ExpectExec("INSERT INTO refresh_tokens").
            WithArgs(uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
            WillReturnResult(sqlmock.NewResult(1, 1))

        req, rec := postJSON("/v1/auth/login", `{"email":"Dev@Example.com","password":"correct horse"}`)
        require.NoError(t, h.Login(e.NewContext(req, rec)))
        require.Equal(t, http.StatusOK, rec.Code)

        var resp struct {
            AccessToken  string `json:"access_token"`
            RefreshToken string `json:"refresh_token"`
            User         struct {
                Role string `json:"role"`
            } `json:"user"`
        }
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
        require.NotEmpty(t, resp.AccessToken)
        require.NotEmpty(t, resp.RefreshToken)
        require.Equal(t, "MANAGER", resp.User.Role)

        // The refresh token also travels as an HTTP-only cookie scoped to
        // the auth endpoints.
        cookies := rec.Result().Cookies()
        require.Len(t, cookies, 1)
        require.Equal(t, "refresh_token", cookies[0].Name)
        require.Equal(t, resp.RefreshToken, cookies[0].Value)
        require.Equal(t, "/v1/auth", cookies[0].Path)
        require.True(t, cookies[0].HttpOnly)

        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("wrong password stores nothing", func(t *testing.T) {
        h, mock := newAuthTestHandler(t)
        e := echo.New()

        mock.ExpectQuery("SELECT .* FROM users WHERE email=").
            WithArgs("dev@example.com").
            WillReturnRows(authUserRow(1, "dev@example.com", hash, "MANAGER", true))

        req, rec := postJSON("/v1/auth/login", `{"email":"dev@example.com","password":"nope nope"}`)
        require.NoError(t, h.Login(e.NewContext(req, rec)))
        require.Equal(t, http.StatusUnauthorized, rec.Code)
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("inactive account is told so", func(t *testing.T) {
        h, mock := newAuthTestHandler(t)
        e := echo.New()

        mock.ExpectQuery("SELECT .* FROM users WHERE email=").
            WithArgs("dev@example.com").
            WillReturnRows(authUserRow(1, "dev@example.com", hash, "MANAGER", false))

        req, rec := postJSON("/v1/auth/login", `{"email":"dev@example.com","password":"correct horse"}`)
        require.NoError(t, h.Login(e.NewContext(req, rec)))
        require.Equal(t, http.StatusForbidden, rec.Code)
        require.NoError(t, mock.ExpectationsWereMet())
    })
}

func TestRefresh(t *testing.T) {
    issue := func(t *testing.T, method utils.Method) utils.TokenPair {
        t.Helper()
        pair, err := authTestIssuer().Issue(utils.Claims{
            UserID: 1, Email: "dev@example.com", Name: "Dev", Role: "MEMBER", Method: method,
        }, method)
        require.NoError(t, err)
        return pair
    }

    t.Run("live fingerprint mints a fresh access token", func(t *testing.T) {
        h, mock := newAuthTestHandler(t)
        e := echo.New()
        pair := issue(t, utils.MethodOAuth)

        mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
            WithArgs(utils.FingerprintToken(pair.Refresh.Token)).
            WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
                AddRow(1, time.Now().Add(time.Hour), nil))
        mock.ExpectQuery("SELECT .* FROM users WHERE id=").
            WithArgs(uint64(1)).
            WillReturnRows(authUserRow(1, "dev@example.com", "$2a$04$x", "MEMBER", true))

        req, rec := postJSON("/v1/auth/refresh", `{"refresh_token":"`+pair.Refresh.Token+`"}`)
        require.NoError(t, h.Refresh(e.NewContext(req, rec)))
        require.Equal(t, http.StatusOK, rec.Code)

        var resp struct {
            AccessToken string `json:"access_token"`
        }
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
        require.NotEmpty(t, resp.AccessToken)

        // The new access token keeps the oauth method, so its expiry
        // follows the oauth policy rather than the credentials one.
        claims, err := authTestIssuer().VerifyAccess(resp.AccessToken)
        require.NoError(t, err)
        require.Equal(t, utils.MethodOAuth, claims.Method)

        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("revoked fingerprint is rejected even with a valid JWT", func(t *testing.T) {
        h, mock := newAuthTestHandler(t)
        e := echo.New()
        pair := issue(t, utils.MethodCredentials)

        mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
            WithArgs(utils.FingerprintToken(pair.Refresh.Token)).
            WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
                AddRow(1, time.Now().Add(time.Hour), time.Now()))

        req, rec := postJSON("/v1/auth/refresh", `{"refresh_token":"`+pair.Refresh.Token+`"}`)
        require.NoError(t, h.Refresh(e.NewContext(req, rec)))
        require.Equal(t, http.StatusUnauthorized, rec.Code)
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("deactivated account cannot refresh", func(t *testing.T) {
        h, mock := newAuthTestHandler(t)
        e := echo.New()
        pair := issue(t, utils.MethodCredentials)

        mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
            WithArgs(utils.FingerprintToken(pair.Refresh.Token)).
            WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
                AddRow(1, time.Now().Add(time.Hour), nil))
        mock.ExpectQuery("SELECT .* FROM users WHERE id=").
            WithArgs(uint64(1)).
            WillReturnRows(authUserRow(1, "dev@example.com", "$2a$04$x", "MEMBER", false))

        req, rec := postJSON("/v1/auth/refresh", `{"refresh_token":"`+pair.Refresh.Token+`"}`)
        require.NoError(t, h.Refresh(e.NewContext(req, rec)))
        require.Equal(t, http.StatusUnauthorized, rec.Code)
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("missing token", func(t *testing.T) {
        h, _ := newAuthTestHandler(t)
        e := echo.New()
        req, rec := postJSON("/v1/auth/refresh", `{}`)
        require.NoError(t, h.Refresh(e.NewContext(req, rec)))
        require.Equal(t, http.StatusUnauthorized, rec.Code)
    })
}

func TestLogoutRevokesPresentedToken(t *testing.T) {
    h, mock := newAuthTestHandler(t)
    e := echo.New()

    pair, err := authTestIssuer().Issue(utils.Claims{UserID: 1, Role: "MEMBER"}, utils.MethodCredentials)
    require.NoError(t, err)

    mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\) WHERE token_hash=").
        WithArgs(utils.FingerprintToken(pair.Refresh.Token)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    req, rec := postJSON("/v1/auth/logout", `{"refresh_token":"`+pair.Refresh.Token+`"}`)
    require.NoError(t, h.Logout(e.NewContext(req, rec)))
    require.Equal(t, http.StatusOK, rec.Code)

    cookies := rec.Result().Cookies()
    require.Len(t, cookies, 1)
    require.Equal(t, "refresh_token", cookies[0].Name)
    require.Empty(t, cookies[0].Value)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsShortPassword(t *testing.T) {
    h, _ := newAuthTestHandler(t)
    e := echo.New()

    req, rec := postJSON("/v1/auth/register", `{"email":"dev@example.com","name":"Dev","password":"short"}`)
    require.NoError(t, h.Register(e.NewContext(req, rec)))
    require.Equal(t, http.StatusBadRequest, rec.Code)
}
