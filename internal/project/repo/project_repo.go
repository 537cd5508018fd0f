package repo

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/project/entity"
	userentity "github.com/ovaphlow/pitchfork/service-community/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
)

type ProjectRepo struct {
	db *sqlx.DB
}

func NewProjectRepo(db *sqlx.DB) *ProjectRepo { return &ProjectRepo{db: db} }

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var projectColumns = []string{"id", "title", "description", "date_proj", "url", "main_user_id"}

// EnsureTable creates projects and project_users; both reference users.
func (r *ProjectRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS projects (
  id BIGINT PRIMARY KEY,
  title VARCHAR(30) NOT NULL,
  description VARCHAR(1000) NOT NULL,
  date_proj DATE NOT NULL,
  url VARCHAR(255) NOT NULL,
  main_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS project_main_user_idx ON projects(main_user_id);
CREATE TABLE IF NOT EXISTS project_users (
  id BIGINT PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  UNIQUE (user_id, project_id)
);
CREATE INDEX IF NOT EXISTS user_project_idx ON project_users(user_id, project_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *ProjectRepo) Create(ctx context.Context, p *entity.Project) error {
	const q = `INSERT INTO projects (id, title, description, date_proj, url, main_user_id)
		VALUES (:id, :title, :description, :date_proj, :url, :main_user_id)`
	_, err := r.db.NamedExecContext(ctx, q, p)
	return err
}

// GetByID returns the project or sql.ErrNoRows.
func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	q, args, err := psql.Select(projectColumns...).From("projects").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var p entity.Project
	if err := r.db.GetContext(ctx, &p, q, args...); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns a page of projects, newest first.
func (r *ProjectRepo) List(ctx context.Context, limit, offset int) ([]entity.Project, error) {
	q, args, err := psql.Select(projectColumns...).From("projects").
		OrderBy("id DESC").Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, err
	}
	out := []entity.Project{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the given column values and returns the updated row, or
// sql.ErrNoRows when the project does not exist.
func (r *ProjectRepo) Update(ctx context.Context, id int64, set map[string]any) (*entity.Project, error) {
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	q, args, err := psql.Update("projects").SetMap(set).Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, title, description, date_proj, url, main_user_id").ToSql()
	if err != nil {
		return nil, err
	}
	var p entity.Project
	if err := r.db.GetContext(ctx, &p, q, args...); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the project; participant rows go with it. sql.ErrNoRows if
// nothing was deleted.
func (r *ProjectRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Join inserts the (user, project) row. created is false when the user
// already participates.
func (r *ProjectRepo) Join(ctx context.Context, link *entity.ProjectUser) (created bool, err error) {
	_, err = r.db.NamedExecContext(ctx, `INSERT INTO project_users (id, user_id, project_id) VALUES (:id, :user_id, :project_id)`, link)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Participants lists the users who joined the project.
func (r *ProjectRepo) Participants(ctx context.Context, projectID int64) ([]userentity.Public, error) {
	q, args, err := psql.Select("u.id", "u.email", "u.name", "u.phone", "u.age").
		From("users u").
		Join("project_users pu ON pu.user_id = u.id").
		Where(sq.Eq{"pu.project_id": projectID}).
		OrderBy("u.name").ToSql()
	if err != nil {
		return nil, err
	}
	out := []userentity.Public{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}
