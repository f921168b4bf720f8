package handler

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/project-task-tracker/internal/repository"
)

func newProjectTestHandler(t *testing.T) (*ProjectHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewProjectHandler(repository.NewProjectRepo(db)), mock
}

func getProjectContext(t *testing.T, userID uint64, role, projectID string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/projects/"+projectID, nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/projects/:id")
    c.SetParamNames("id")
    c.SetParamValues(projectID)
    c.Set("user_id", userID)
    c.Set("role", role)
    return c, rec
}

func TestProjectGet(t *testing.T) {
    t.Run("out-of-scope project is hidden from members", func(t *testing.T) {
        h, mock := newProjectTestHandler(t)

        // The visibility probe finds no row, so the project row itself is
        // never read and the response does not reveal its existence.
        mock.ExpectQuery(`SELECT 1 FROM projects p WHERE p\.id=\? AND \(p\.creator_id = \? OR EXISTS`).
            WithArgs(uint64(9), uint64(42), uint64(42)).
            WillReturnRows(sqlmock.NewRows([]string{"1"}))

        c, rec := getProjectContext(t, 42, "MEMBER", "9")
        require.NoError(t, h.Get(c))
        require.Equal(t, http.StatusNotFound, rec.Code)
        require.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("managers skip the visibility probe", func(t *testing.T) {
        h, mock := newProjectTestHandler(t)

        now := time.Now().UTC()
        mock.ExpectQuery(`SELECT id,name,description,creator_id,created_at,updated_at FROM projects WHERE id=\?`).
            WithArgs(uint64(9)).
            WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "creator_id", "created_at", "updated_at"}).
                AddRow(9, "Apollo", "", 1, now, now))

        c, rec := getProjectContext(t, 42, "MANAGER", "9")
        require.NoError(t, h.Get(c))
        require.Equal(t, http.StatusOK, rec.Code)
        require.NoError(t, mock.ExpectationsWereMet())
    })
}
