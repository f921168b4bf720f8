package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/project-task-tracker/internal/utils"
)

func testIssuer() *utils.Issuer {
    return utils.NewIssuer("access", "refresh",
        utils.ExpiryPolicy{Access: time.Minute, Refresh: time.Hour},
        utils.ExpiryPolicy{Access: time.Minute, Refresh: time.Hour},
    )
}

func runJWT(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder, error) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
    if authHeader != "" {
        req.Header.Set("Authorization", authHeader)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    err := JWTAuth(testIssuer())(next)(c)
    return c, rec, err
}

func TestJWTAuth(t *testing.T) {
    t.Run("valid token populates context", func(t *testing.T) {
        pair, err := testIssuer().Issue(utils.Claims{
            UserID: 42, Email: "dev@example.com", Name: "Dev", Role: "MANAGER",
        }, utils.MethodCredentials)
        require.NoError(t, err)

        c, rec, err := runJWT(t, "Bearer "+pair.Access.Token)
        require.NoError(t, err)
        require.Equal(t, http.StatusOK, rec.Code)
        require.Equal(t, uint64(42), c.Get("user_id"))
        require.Equal(t, "MANAGER", c.Get("role"))
        require.Equal(t, "dev@example.com", c.Get("email"))
    })

    t.Run("missing header", func(t *testing.T) {
        _, rec, err := runJWT(t, "")
        require.NoError(t, err)
        require.Equal(t, http.StatusUnauthorized, rec.Code)
    })

    t.Run("garbage token", func(t *testing.T) {
        _, rec, err := runJWT(t, "Bearer nonsense")
        require.NoError(t, err)
        require.Equal(t, http.StatusUnauthorized, rec.Code)
    })

    t.Run("refresh token rejected on access routes", func(t *testing.T) {
        pair, err := testIssuer().Issue(utils.Claims{UserID: 1, Role: "ADMIN"}, utils.MethodCredentials)
        require.NoError(t, err)

        _, rec, err := runJWT(t, "Bearer "+pair.Refresh.Token)
        require.NoError(t, err)
        require.Equal(t, http.StatusUnauthorized, rec.Code)
    })
}

func TestRequireRole(t *testing.T) {
    e := echo.New()
    next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    mw := RequireRole("ADMIN", "MANAGER")

    run := func(role interface{}) *httptest.ResponseRecorder {
        req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        if role != nil {
            c.Set("role", role)
        }
        require.NoError(t, mw(next)(c))
        return rec
    }

    require.Equal(t, http.StatusOK, run("ADMIN").Code)
    require.Equal(t, http.StatusOK, run("MANAGER").Code)
    require.Equal(t, http.StatusForbidden, run("MEMBER").Code)
    require.Equal(t, http.StatusForbidden, run(nil).Code)
    require.Equal(t, http.StatusForbidden, run(123).Code)
}
