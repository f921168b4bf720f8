package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/project-task-tracker/internal/model"
)

// ProjectRepo encapsulates all database queries related to projects.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

const projectColumns = "id,name,description,creator_id,created_at,updated_at"

// visibleProjectPredicate is the query-level visibility filter for
// non-Admin/Manager callers: a project is visible when the caller created
// it or is assigned to any task in any of its sprints.  Keeping this as a
// predicate (instead of post-filtering rows in Go) guarantees list and
// single-get endpoints agree on what a Member can see.
const visibleProjectPredicate = `(p.creator_id = ? OR EXISTS (
	SELECT 1 FROM task_assignments ta
	JOIN tasks t ON t.id = ta.task_id
	JOIN sprints s ON s.id = t.sprint_id
	WHERE s.project_id = p.id AND ta.user_id = ?))`

// Create inserts a new project.  On success the ID, CreatedAt and
// UpdatedAt fields are populated from the database.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO projects (name, description, creator_id) VALUES (?,?,?)",
		p.Name, p.Description, p.CreatorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM projects WHERE id=?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a project by id.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	var p model.Project
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id=? LIMIT 1", id).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Project{}, ErrProjectNotFound
	}
	return p, err
}

// ListAll returns every project; used for Admin/Manager callers.
func (r *ProjectRepo) ListAll(ctx context.Context) ([]model.Project, error) {
	return r.list(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY id")
}

// ListVisible returns the projects a Member may see, evaluated entirely in
// SQL via visibleProjectPredicate.
func (r *ProjectRepo) ListVisible(ctx context.Context, userID uint64) ([]model.Project, error) {
	q := "SELECT p.id,p.name,p.description,p.creator_id,p.created_at,p.updated_at FROM projects p WHERE " +
		visibleProjectPredicate + " ORDER BY p.id"
	return r.list(ctx, q, userID, userID)
}

// IsVisible reports whether a single project passes the Member visibility
// predicate; it must agree with ListVisible by construction.
func (r *ProjectRepo) IsVisible(ctx context.Context, projectID, userID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM projects p WHERE p.id=? AND "+visibleProjectPredicate+" LIMIT 1",
		projectID, userID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Update rewrites the project's mutable fields.
func (r *ProjectRepo) Update(ctx context.Context, id uint64, name, description string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE projects SET name=?, description=? WHERE id=?", name, description, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrProjectNotFound)
}

// Delete removes the project row.  Sprints and tasks cascade at the
// schema level.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrProjectNotFound)
}

func (r *ProjectRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
