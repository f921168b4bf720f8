package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/iliyamo/project-task-tracker/internal/model"
)

// ActivityRepo appends and reads the audit trail.  Rows are append-only;
// there is no update or delete path by design.
type ActivityRepo struct{ DB *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{DB: db} }

// Insert writes one activity entry.  meta must be one of the model *Meta
// structs; it is serialized to JSON for the metadata column.
func (r *ActivityRepo) Insert(ctx context.Context, taskID, userID uint64, typ model.ActivityType, meta interface{}) error {
	return insertActivity(ctx, r.DB, taskID, userID, typ, meta)
}

// InsertTx is Insert inside an existing transaction, used when the
// activity row must commit atomically with the mutation it records.
func (r *ActivityRepo) InsertTx(ctx context.Context, tx *sql.Tx, taskID, userID uint64, typ model.ActivityType, meta interface{}) error {
	return insertActivity(ctx, tx, taskID, userID, typ, meta)
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertActivity(ctx context.Context, db execer, taskID, userID uint64, typ model.ActivityType, meta interface{}) error {
	body, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO activity_logs (task_id, user_id, type, metadata) VALUES (?,?,?,?)",
		taskID, userID, string(typ), string(body))
	return err
}

// ListByTask returns a task's audit trail, oldest first.
func (r *ActivityRepo) ListByTask(ctx context.Context, taskID uint64) ([]model.ActivityLog, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,task_id,user_id,type,metadata,created_at FROM activity_logs WHERE task_id=? ORDER BY id", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ActivityLog
	for rows.Next() {
		var a model.ActivityLog
		var typ string
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &typ, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Type = model.ActivityType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}
