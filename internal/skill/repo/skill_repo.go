package repo

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/skill/entity"
	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
)

type SkillRepo struct {
	db *sqlx.DB
}

func NewSkillRepo(db *sqlx.DB) *SkillRepo { return &SkillRepo{db: db} }

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// EnsureTable creates skills and skill_users; skill_users references users.
func (r *SkillRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS skills (
  id BIGINT PRIMARY KEY,
  title VARCHAR(30) NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS skill_title_idx ON skills(title);
CREATE TABLE IF NOT EXISTS skill_users (
  id BIGINT PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  skill_id BIGINT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
  UNIQUE (user_id, skill_id)
);
CREATE INDEX IF NOT EXISTS user_skill_idx ON skill_users(user_id, skill_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// GetByID returns the skill or sql.ErrNoRows.
func (r *SkillRepo) GetByID(ctx context.Context, id int64) (*entity.Skill, error) {
	var s entity.Skill
	if err := r.db.GetContext(ctx, &s, `SELECT id, title FROM skills WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByTitle returns the skill with exactly this title or sql.ErrNoRows.
func (r *SkillRepo) GetByTitle(ctx context.Context, title string) (*entity.Skill, error) {
	var s entity.Skill
	if err := r.db.GetContext(ctx, &s, `SELECT id, title FROM skills WHERE title=$1`, title); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SkillRepo) Create(ctx context.Context, s *entity.Skill) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO skills (id, title) VALUES (:id, :title)`, s)
	return err
}

// Link inserts the (user, skill) row. created is false when the pair already
// existed; the unique constraint decides, so concurrent calls cannot both win.
func (r *SkillRepo) Link(ctx context.Context, link *entity.SkillUser) (created bool, err error) {
	_, err = r.db.NamedExecContext(ctx, `INSERT INTO skill_users (id, user_id, skill_id) VALUES (:id, :user_id, :skill_id)`, link)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns skills ordered by title, optionally filtered by a
// case-insensitive title prefix.
func (r *SkillRepo) List(ctx context.Context, prefix string, limit, offset int) ([]entity.Skill, error) {
	b := psql.Select("id", "title").From("skills").OrderBy("title").
		Limit(uint64(limit)).Offset(uint64(offset))
	if prefix != "" {
		b = b.Where(sq.ILike{"title": escapeLike(prefix) + "%"})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	out := []entity.Skill{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForUser returns the skills linked to userID.
func (r *SkillRepo) ListForUser(ctx context.Context, userID int64) ([]entity.Skill, error) {
	const q = `SELECT s.id, s.title FROM skills s
		JOIN skill_users su ON su.skill_id = s.id
		WHERE su.user_id = $1 ORDER BY s.title`
	out := []entity.Skill{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
