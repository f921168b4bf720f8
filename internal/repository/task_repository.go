package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/project-task-tracker/internal/model"
)

// TaskRepo encapsulates all database queries related to tasks and their
// assignments.  Status transitions and assignee rewrites expose Tx
// variants so handlers can wrap the read-validate-write sequence in a
// single transaction; the task row is locked with FOR UPDATE for the
// duration, which closes the lost-update race between concurrent
// conflicting updates.
type TaskRepo struct{ db *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span status checks, writes and activity logging.
func (r *TaskRepo) DB() *sql.DB { return r.db }

const taskColumns = "id,sprint_id,parent_task_id,title,description,status,priority,estimate_hours,due_date,creator_id,created_at,updated_at"

// visibleTaskPredicate mirrors the project predicate one level down: a
// task is visible to a Member when they created it or are assigned to it.
const visibleTaskPredicate = `(t.creator_id = ? OR EXISTS (
	SELECT 1 FROM task_assignments ta WHERE ta.task_id = t.id AND ta.user_id = ?))`

// Create inserts a new task in TODO status.  On success the ID, Status and
// timestamp fields are populated.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks (sprint_id, parent_task_id, title, description, status, priority, estimate_hours, due_date, creator_id) VALUES (?,?,?,?,?,?,?,?,?)",
		t.SprintID, t.ParentTaskID, t.Title, t.Description, t.Status, t.Priority, t.EstimateHours, t.DueDate, t.CreatorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM tasks WHERE id=?", t.ID).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID fetches a task by id.
func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id=? LIMIT 1", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, ErrTaskNotFound
	}
	return t, err
}

// ListAll returns every task; used for Admin/Manager callers.
func (r *TaskRepo) ListAll(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY id")
}

// ListVisible returns the tasks a Member may see, evaluated entirely in
// SQL via visibleTaskPredicate.
func (r *TaskRepo) ListVisible(ctx context.Context, userID uint64) ([]model.Task, error) {
	q := "SELECT t.id,t.sprint_id,t.parent_task_id,t.title,t.description,t.status,t.priority,t.estimate_hours,t.due_date,t.creator_id,t.created_at,t.updated_at FROM tasks t WHERE " +
		visibleTaskPredicate + " ORDER BY t.id"
	return r.list(ctx, q, userID, userID)
}

// ListBySprint returns every task in a sprint.
func (r *TaskRepo) ListBySprint(ctx context.Context, sprintID uint64) ([]model.Task, error) {
	return r.list(ctx, "SELECT "+taskColumns+" FROM tasks WHERE sprint_id=? ORDER BY id", sprintID)
}

// ListSubtasks returns the direct children of a task.
func (r *TaskRepo) ListSubtasks(ctx context.Context, parentID uint64) ([]model.Task, error) {
	return r.list(ctx, "SELECT "+taskColumns+" FROM tasks WHERE parent_task_id=? ORDER BY id", parentID)
}

// AssigneeIDs returns the ids of everyone assigned to a task.
func (r *TaskRepo) AssigneeIDs(ctx context.Context, taskID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM task_assignments WHERE task_id=? ORDER BY user_id", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

const taskFieldsUpdate = "UPDATE tasks SET title=?, description=?, priority=?, estimate_hours=?, due_date=?, parent_task_id=? WHERE id=?"

// UpdateFields rewrites the task's descriptive fields.
func (r *TaskRepo) UpdateFields(ctx context.Context, t *model.Task) error {
	res, err := r.db.ExecContext(ctx, taskFieldsUpdate,
		t.Title, t.Description, t.Priority, t.EstimateHours, t.DueDate, t.ParentTaskID, t.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrTaskNotFound)
}

// UpdateFieldsTx is UpdateFields inside the caller's transaction, used
// when field edits arrive together with a status or assignee change so
// all of it commits or rolls back as one unit.
func (r *TaskRepo) UpdateFieldsTx(ctx context.Context, tx *sql.Tx, t *model.Task) error {
	res, err := tx.ExecContext(ctx, taskFieldsUpdate,
		t.Title, t.Description, t.Priority, t.EstimateHours, t.DueDate, t.ParentTaskID, t.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrTaskNotFound)
}

// Delete removes the task row; assignments, comments, time logs and
// activity cascade at the schema level.
func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrTaskNotFound)
}

// GetStatusForUpdateTx reads the current status while taking a row lock,
// so the validate-then-write sequence that follows cannot interleave with
// a concurrent transition on the same task.
func (r *TaskRepo) GetStatusForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx,
		"SELECT status FROM tasks WHERE id=? FOR UPDATE", id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", ErrTaskNotFound
	}
	return status, err
}

// UpdateStatusTx writes the new status inside the caller's transaction.
func (r *TaskRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx, "UPDATE tasks SET status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrTaskNotFound)
}

// AssigneeIDsForUpdateTx returns the current assignee set while holding
// locks on the assignment rows, for use inside an assignee rewrite.
func (r *TaskRepo) AssigneeIDsForUpdateTx(ctx context.Context, tx *sql.Tx, taskID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT user_id FROM task_assignments WHERE task_id=? ORDER BY user_id FOR UPDATE", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// ReplaceAssigneesTx applies an assignee delta inside the caller's
// transaction.  The whole rewrite commits or rolls back as one unit, so a
// rejected batch never leaves a partial assignment behind.
func (r *TaskRepo) ReplaceAssigneesTx(ctx context.Context, tx *sql.Tx, taskID uint64, added, removed []uint64) error {
	for _, id := range removed {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM task_assignments WHERE task_id=? AND user_id=?", taskID, id); err != nil {
			return err
		}
	}
	for _, id := range added {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO task_assignments (task_id, user_id, assigned_at) VALUES (?,?,UTC_TIMESTAMP())", taskID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *TaskRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTask(s scanner) (model.Task, error) {
	var (
		t      model.Task
		parent sql.NullInt64
		due    sql.NullTime
	)
	err := s.Scan(&t.ID, &t.SprintID, &parent, &t.Title, &t.Description, &t.Status,
		&t.Priority, &t.EstimateHours, &due, &t.CreatorID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Task{}, err
	}
	if parent.Valid {
		p := uint64(parent.Int64)
		t.ParentTaskID = &p
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

func collectIDs(rows *sql.Rows) ([]uint64, error) {
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
