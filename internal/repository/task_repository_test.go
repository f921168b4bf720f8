package repository

import (
    "context"
    "regexp"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/require"
)

func TestTaskRepoGetByIDNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewTaskRepo(db)

    mock.ExpectQuery("SELECT .* FROM tasks WHERE id=").
        WithArgs(uint64(404)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    _, err = repo.GetByID(context.Background(), 404)
    require.ErrorIs(t, err, ErrTaskNotFound)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepoStatusTransitionTx(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewTaskRepo(db)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM tasks WHERE id=? FOR UPDATE")).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("REVIEW"))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status=? WHERE id=?")).
        WithArgs("DONE", uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    ctx := context.Background()
    tx, err := repo.DB().BeginTx(ctx, nil)
    require.NoError(t, err)

    status, err := repo.GetStatusForUpdateTx(ctx, tx, 5)
    require.NoError(t, err)
    require.Equal(t, "REVIEW", status)

    require.NoError(t, repo.UpdateStatusTx(ctx, tx, 5, "DONE"))
    require.NoError(t, tx.Commit())
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepoReplaceAssigneesTxRollsBackAsUnit(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewTaskRepo(db)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT user_id FROM task_assignments WHERE task_id=.*FOR UPDATE").
        WithArgs(uint64(9)).
        WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(2).AddRow(3))
    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM task_assignments WHERE task_id=? AND user_id=?")).
        WithArgs(uint64(9), uint64(3)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO task_assignments").
        WithArgs(uint64(9), uint64(4)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectRollback()

    ctx := context.Background()
    tx, err := repo.DB().BeginTx(ctx, nil)
    require.NoError(t, err)

    current, err := repo.AssigneeIDsForUpdateTx(ctx, tx, 9)
    require.NoError(t, err)
    require.Equal(t, []uint64{2, 3}, current)

    require.NoError(t, repo.ReplaceAssigneesTx(ctx, tx, 9, []uint64{4}, []uint64{3}))

    // A denial discovered later in the request aborts the whole rewrite.
    require.NoError(t, tx.Rollback())
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepoListVisibleScopesByUser(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewTaskRepo(db)

    cols := []string{"id", "sprint_id", "parent_task_id", "title", "description", "status",
        "priority", "estimate_hours", "due_date", "creator_id", "created_at", "updated_at"}
    mock.ExpectQuery("SELECT .* FROM tasks t WHERE .*creator_id = \\?.*EXISTS").
        WithArgs(uint64(8), uint64(8)).
        WillReturnRows(sqlmock.NewRows(cols))

    tasks, err := repo.ListVisible(context.Background(), 8)
    require.NoError(t, err)
    require.Empty(t, tasks)
    require.NoError(t, mock.ExpectationsWereMet())
}
