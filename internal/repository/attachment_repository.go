package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/project-task-tracker/internal/model"
)

// AttachmentRepo encapsulates all database queries related to task
// attachments.  The rows hold only metadata; bytes live in object storage.
type AttachmentRepo struct{ DB *sql.DB }

func NewAttachmentRepo(db *sql.DB) *AttachmentRepo { return &AttachmentRepo{DB: db} }

// Create inserts an attachment record and populates its ID and timestamp.
func (r *AttachmentRepo) Create(ctx context.Context, a *model.Attachment) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO attachments (task_id, uploader_id, filename, url, storage_key, size_bytes) VALUES (?,?,?,?,?,?)",
		a.TaskID, a.UploaderID, a.Filename, a.URL, a.StorageKey, a.SizeBytes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM attachments WHERE id=?", a.ID).Scan(&a.CreatedAt)
}

// GetByID fetches an attachment by id.
func (r *AttachmentRepo) GetByID(ctx context.Context, id uint64) (model.Attachment, error) {
	var a model.Attachment
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,task_id,uploader_id,filename,url,storage_key,size_bytes,created_at FROM attachments WHERE id=? LIMIT 1", id).
		Scan(&a.ID, &a.TaskID, &a.UploaderID, &a.Filename, &a.URL, &a.StorageKey, &a.SizeBytes, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Attachment{}, ErrAttachmentNotFound
	}
	return a, err
}

// ListByTask returns a task's attachments, oldest first.
func (r *AttachmentRepo) ListByTask(ctx context.Context, taskID uint64) ([]model.Attachment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,task_id,uploader_id,filename,url,storage_key,size_bytes,created_at FROM attachments WHERE task_id=? ORDER BY id", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UploaderID, &a.Filename, &a.URL, &a.StorageKey, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes the attachment row.  Callers delete the stored object
// first; a dangling row is preferable to an orphaned file.
func (r *AttachmentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM attachments WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrAttachmentNotFound)
}
