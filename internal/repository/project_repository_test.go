package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/require"
)

func projectRows(ids ...uint64) *sqlmock.Rows {
    now := time.Now().UTC()
    rows := sqlmock.NewRows([]string{"id", "name", "description", "creator_id", "created_at", "updated_at"})
    for _, id := range ids {
        rows.AddRow(id, "Project", "", 1, now, now)
    }
    return rows
}

// The member scope for projects is creator-or-assigned, where "assigned"
// reaches through sprint and task to the assignment rows.  ListVisible and
// IsVisible share one SQL predicate, so a project either shows up in the
// list and resolves by id, or does neither.
func TestProjectVisibilityPredicate(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewProjectRepo(db)

    t.Run("ListVisible binds the caller to both predicate slots", func(t *testing.T) {
        mock.ExpectQuery(`SELECT p\.id,p\.name,.* FROM projects p WHERE \(p\.creator_id = \? OR EXISTS \(\s*SELECT 1 FROM task_assignments ta\s*JOIN tasks t ON t\.id = ta\.task_id\s*JOIN sprints s ON s\.id = t\.sprint_id\s*WHERE s\.project_id = p\.id AND ta\.user_id = \?\)\)`).
            WithArgs(uint64(7), uint64(7)).
            WillReturnRows(projectRows(2, 5))

        projects, err := repo.ListVisible(context.Background(), 7)
        require.NoError(t, err)
        require.Len(t, projects, 2)
        require.EqualValues(t, 2, projects[0].ID)
        require.EqualValues(t, 5, projects[1].ID)
    })

    t.Run("IsVisible applies the same predicate to one row", func(t *testing.T) {
        mock.ExpectQuery(`SELECT 1 FROM projects p WHERE p\.id=\? AND \(p\.creator_id = \? OR EXISTS`).
            WithArgs(uint64(5), uint64(7), uint64(7)).
            WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

        visible, err := repo.IsVisible(context.Background(), 5, 7)
        require.NoError(t, err)
        require.True(t, visible)
    })

    t.Run("IsVisible is false, not an error, for an out-of-scope project", func(t *testing.T) {
        mock.ExpectQuery(`SELECT 1 FROM projects p WHERE p\.id=\? AND \(p\.creator_id = \? OR EXISTS`).
            WithArgs(uint64(9), uint64(7), uint64(7)).
            WillReturnRows(sqlmock.NewRows([]string{"1"}))

        visible, err := repo.IsVisible(context.Background(), 9, 7)
        require.NoError(t, err)
        require.False(t, visible)
    })

    require.NoError(t, mock.ExpectationsWereMet())
}
