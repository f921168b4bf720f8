package handler

import (
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "regexp"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/project-task-tracker/internal/repository"
)

func newTaskTestHandler(t *testing.T) (*TaskHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewTaskHandler(
        repository.NewTaskRepo(db),
        repository.NewSprintRepo(db),
        repository.NewUserRepo(db),
        repository.NewActivityRepo(db),
    ), mock
}

// updateTaskContext builds an authenticated PUT /v1/tasks/:id context the
// way the JWT middleware would.
func updateTaskContext(t *testing.T, body string, userID uint64, role string, taskID string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPut, "/v1/tasks/"+taskID, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/tasks/:id")
    c.SetParamNames("id")
    c.SetParamValues(taskID)
    c.Set("user_id", userID)
    c.Set("role", role)
    return c, rec
}

func taskRow(id, sprintID uint64, status string, creatorID uint64) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows([]string{
        "id", "sprint_id", "parent_task_id", "title", "description", "status",
        "priority", "estimate_hours", "due_date", "creator_id", "created_at", "updated_at",
    }).AddRow(id, sprintID, nil, "Ship feature", "", status, "MEDIUM", 4.0, nil, creatorID, now, now)
}

func assigneeRows(ids ...uint64) *sqlmock.Rows {
    rows := sqlmock.NewRows([]string{"user_id"})
    for _, id := range ids {
        rows.AddRow(id)
    }
    return rows
}

func expectLoadVisible(mock sqlmock.Sqlmock, taskID uint64, status string, creatorID uint64, assignees ...uint64) {
    mock.ExpectQuery("SELECT .* FROM tasks WHERE id=").
        WithArgs(taskID).
        WillReturnRows(taskRow(taskID, 1, status, creatorID))
    mock.ExpectQuery("SELECT user_id FROM task_assignments WHERE task_id=").
        WithArgs(taskID).
        WillReturnRows(assigneeRows(assignees...))
}

func TestTaskUpdateMemberCannotComplete(t *testing.T) {
    h, mock := newTaskTestHandler(t)

    // The member is assigned, so the task is in scope; DONE is still out
    // of reach for them.
    expectLoadVisible(mock, 5, "REVIEW", 2, 10)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM tasks WHERE id=? FOR UPDATE")).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("REVIEW"))
    mock.ExpectRollback()

    c, rec := updateTaskContext(t, `{"status":"DONE"}`, 10, "MEMBER", "5")
    require.NoError(t, h.Update(c))
    require.Equal(t, http.StatusForbidden, rec.Code)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskUpdateEarlyDoneNeedsForce(t *testing.T) {
    h, mock := newTaskTestHandler(t)

    expectLoadVisible(mock, 5, "IN_PROGRESS", 2)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM tasks WHERE id=? FOR UPDATE")).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("IN_PROGRESS"))
    mock.ExpectRollback()

    c, rec := updateTaskContext(t, `{"status":"DONE"}`, 1, "MANAGER", "5")
    require.NoError(t, h.Update(c))
    require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskUpdateForcedDoneIsRecorded(t *testing.T) {
    h, mock := newTaskTestHandler(t)

    expectLoadVisible(mock, 5, "IN_PROGRESS", 2)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM tasks WHERE id=? FOR UPDATE")).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("IN_PROGRESS"))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status=? WHERE id=?")).
        WithArgs("DONE", uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO activity_logs").
        WithArgs(uint64(5), uint64(1), "status_changed", `{"old":"IN_PROGRESS","new":"DONE","forced":true}`).
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectExec("UPDATE tasks SET title=").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()
    mock.ExpectQuery("SELECT .* FROM tasks WHERE id=").
        WithArgs(uint64(5)).
        WillReturnRows(taskRow(5, 1, "DONE", 2))

    c, rec := updateTaskContext(t, `{"status":"DONE","force":true}`, 1, "MANAGER", "5")
    require.NoError(t, h.Update(c))
    require.Equal(t, http.StatusOK, rec.Code)

    var resp struct {
        Status string `json:"status"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    require.Equal(t, "DONE", resp.Status)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskUpdateFieldFailureRollsBackStatusChange(t *testing.T) {
    h, mock := newTaskTestHandler(t)

    // Status transition and title edit arrive together; when the field
    // write fails the already-applied status change must not survive.
    expectLoadVisible(mock, 5, "REVIEW", 2)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM tasks WHERE id=? FOR UPDATE")).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("REVIEW"))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status=? WHERE id=?")).
        WithArgs("DONE", uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO activity_logs").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectExec("UPDATE tasks SET title=").
        WillReturnError(errors.New("lock wait timeout"))
    mock.ExpectRollback()

    c, rec := updateTaskContext(t, `{"status":"DONE","title":"Shipped"}`, 1, "MANAGER", "5")
    require.NoError(t, h.Update(c))
    require.Equal(t, http.StatusInternalServerError, rec.Code)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskUpdateOutOfScopeIsNotFound(t *testing.T) {
    h, mock := newTaskTestHandler(t)

    // Task exists but the member neither created it nor is assigned; the
    // response hides its existence.
    expectLoadVisible(mock, 5, "TODO", 2, 11)

    c, rec := updateTaskContext(t, `{"title":"hijack"}`, 42, "MEMBER", "5")
    require.NoError(t, h.Update(c))
    require.Equal(t, http.StatusNotFound, rec.Code)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskUpdateManagerCannotAssignAdmin(t *testing.T) {
    h, mock := newTaskTestHandler(t)

    expectLoadVisible(mock, 5, "TODO", 2, 10)
    mock.ExpectQuery("SELECT id, role FROM users WHERE id IN").
        WithArgs(uint64(10), uint64(3)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).
            AddRow(10, "MEMBER").AddRow(3, "ADMIN"))

    // One admin in the batch poisons the whole rewrite; nothing is
    // written, not even the valid member assignment.
    c, rec := updateTaskContext(t, `{"assignee_ids":[10,3]}`, 1, "MANAGER", "5")
    require.NoError(t, h.Update(c))
    require.Equal(t, http.StatusForbidden, rec.Code)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskSubmitMovesToReview(t *testing.T) {
    h, mock := newTaskTestHandler(t)

    expectLoadVisible(mock, 7, "IN_PROGRESS", 9, 9)
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM tasks WHERE id=? FOR UPDATE")).
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("IN_PROGRESS"))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status=? WHERE id=?")).
        WithArgs("REVIEW", uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO activity_logs").
        WithArgs(uint64(7), uint64(9), "status_changed", `{"old":"IN_PROGRESS","new":"REVIEW"}`).
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectCommit()

    e := echo.New()
    req := httptest.NewRequest(http.MethodPut, "/v1/tasks/submit/7", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/tasks/submit/:id")
    c.SetParamNames("id")
    c.SetParamValues("7")
    c.Set("user_id", uint64(9))
    c.Set("role", "MEMBER")

    require.NoError(t, h.Submit(c))
    require.Equal(t, http.StatusOK, rec.Code)
    require.NoError(t, mock.ExpectationsWereMet())
}
