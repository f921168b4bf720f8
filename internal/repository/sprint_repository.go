package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/project-task-tracker/internal/model"
)

// SprintRepo encapsulates all database queries related to sprints.
type SprintRepo struct{ DB *sql.DB }

func NewSprintRepo(db *sql.DB) *SprintRepo { return &SprintRepo{DB: db} }

const sprintColumns = "id,project_id,name,starts_at,ends_at,creator_id,created_at,updated_at"

// Create inserts a new sprint under its project.  On success the ID and
// timestamp fields are populated from the database.
func (r *SprintRepo) Create(ctx context.Context, s *model.Sprint) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sprints (project_id, name, starts_at, ends_at, creator_id) VALUES (?,?,?,?,?)",
		s.ProjectID, s.Name, s.StartsAt, s.EndsAt, s.CreatorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM sprints WHERE id=?", s.ID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetByID fetches a sprint by id.
func (r *SprintRepo) GetByID(ctx context.Context, id uint64) (model.Sprint, error) {
	var s model.Sprint
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+sprintColumns+" FROM sprints WHERE id=? LIMIT 1", id).
		Scan(&s.ID, &s.ProjectID, &s.Name, &s.StartsAt, &s.EndsAt, &s.CreatorID, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Sprint{}, ErrSprintNotFound
	}
	return s, err
}

// ListByProject returns every sprint of a project ordered by start date.
func (r *SprintRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Sprint, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sprintColumns+" FROM sprints WHERE project_id=? ORDER BY starts_at, id", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Sprint
	for rows.Next() {
		var s model.Sprint
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.StartsAt, &s.EndsAt, &s.CreatorID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update rewrites the sprint's mutable fields.
func (r *SprintRepo) Update(ctx context.Context, id uint64, name string, startsAt, endsAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sprints SET name=?, starts_at=?, ends_at=? WHERE id=?", name, startsAt, endsAt, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrSprintNotFound)
}

// Delete removes the sprint row; its tasks cascade at the schema level.
func (r *SprintRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sprints WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrSprintNotFound)
}
