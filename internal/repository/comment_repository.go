package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/project-task-tracker/internal/model"
)

// CommentRepo encapsulates all database queries related to task comments.
type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

// Create inserts a comment and populates its ID and timestamps.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (task_id, author_id, body) VALUES (?,?,?)",
		c.TaskID, c.AuthorID, c.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM comments WHERE id=?", c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByID fetches a comment by id.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (model.Comment, error) {
	var c model.Comment
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,task_id,author_id,body,created_at,updated_at FROM comments WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Comment{}, ErrCommentNotFound
	}
	return c, err
}

// ListByTask returns a task's comments, oldest first.
func (r *CommentRepo) ListByTask(ctx context.Context, taskID uint64) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,task_id,author_id,body,created_at,updated_at FROM comments WHERE task_id=? ORDER BY id", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites the comment body.
func (r *CommentRepo) Update(ctx context.Context, id uint64, body string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE comments SET body=? WHERE id=?", body, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrCommentNotFound)
}

// Delete removes the comment row.
func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrCommentNotFound)
}
