package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/project-task-tracker/internal/model"
)

// TimeLogRepo encapsulates all database queries related to time logs.
type TimeLogRepo struct{ DB *sql.DB }

func NewTimeLogRepo(db *sql.DB) *TimeLogRepo { return &TimeLogRepo{DB: db} }

// Create inserts a time log entry and populates its ID and timestamp.
func (r *TimeLogRepo) Create(ctx context.Context, tl *model.TimeLog) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO time_logs (task_id, user_id, hours, logged_on, note) VALUES (?,?,?,?,?)",
		tl.TaskID, tl.UserID, tl.Hours, tl.LoggedOn, tl.Note)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tl.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM time_logs WHERE id=?", tl.ID).Scan(&tl.CreatedAt)
}

// GetByID fetches a time log by id.
func (r *TimeLogRepo) GetByID(ctx context.Context, id uint64) (model.TimeLog, error) {
	var tl model.TimeLog
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,task_id,user_id,hours,logged_on,note,created_at FROM time_logs WHERE id=? LIMIT 1", id).
		Scan(&tl.ID, &tl.TaskID, &tl.UserID, &tl.Hours, &tl.LoggedOn, &tl.Note, &tl.CreatedAt)
	if err == sql.ErrNoRows {
		return model.TimeLog{}, ErrTimeLogNotFound
	}
	return tl, err
}

// ListByTask returns a task's time logs, oldest first.
func (r *TimeLogRepo) ListByTask(ctx context.Context, taskID uint64) ([]model.TimeLog, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,task_id,user_id,hours,logged_on,note,created_at FROM time_logs WHERE task_id=? ORDER BY id", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TimeLog
	for rows.Next() {
		var tl model.TimeLog
		if err := rows.Scan(&tl.ID, &tl.TaskID, &tl.UserID, &tl.Hours, &tl.LoggedOn, &tl.Note, &tl.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tl)
	}
	return out, rows.Err()
}

// Update rewrites the hours and note of an entry.
func (r *TimeLogRepo) Update(ctx context.Context, id uint64, hours float64, note string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE time_logs SET hours=?, note=? WHERE id=?", hours, note, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrTimeLogNotFound)
}

// Delete removes the time log row.
func (r *TimeLogRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM time_logs WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrTimeLogNotFound)
}
