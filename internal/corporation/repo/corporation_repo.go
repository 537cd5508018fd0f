package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/corporation/entity"
)

type CorporationRepo struct {
	db *sqlx.DB
}

func NewCorporationRepo(db *sqlx.DB) *CorporationRepo {
	return &CorporationRepo{db: db}
}

const corporationColumns = `id, name, email, description, password_hash, created_at`

// EnsureTable creates the corporations table. It has no dependencies and is
// created before users.
func (r *CorporationRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS corporations (
  id BIGINT PRIMARY KEY,
  name VARCHAR(255) NOT NULL UNIQUE,
  email CITEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS corp_name_idx ON corporations(name);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *CorporationRepo) Create(ctx context.Context, c *entity.Corporation) error {
	const q = `INSERT INTO corporations (id, name, email, description, password_hash, created_at)
		VALUES (:id, :name, :email, :description, :password_hash, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, c)
	return err
}

// GetByID returns the corporation or sql.ErrNoRows.
func (r *CorporationRepo) GetByID(ctx context.Context, id int64) (*entity.Corporation, error) {
	var c entity.Corporation
	if err := r.db.GetContext(ctx, &c, `SELECT `+corporationColumns+` FROM corporations WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEmail returns the corporation or sql.ErrNoRows.
func (r *CorporationRepo) GetByEmail(ctx context.Context, email string) (*entity.Corporation, error) {
	var c entity.Corporation
	if err := r.db.GetContext(ctx, &c, `SELECT `+corporationColumns+` FROM corporations WHERE email=$1`, email); err != nil {
		return nil, err
	}
	return &c, nil
}

// Taken reports which of name and email are already registered.
func (r *CorporationRepo) Taken(ctx context.Context, name, email string) (nameTaken, emailTaken bool, err error) {
	var row struct {
		Name  bool `db:"name_taken"`
		Email bool `db:"email_taken"`
	}
	const q = `SELECT EXISTS(SELECT 1 FROM corporations WHERE name=$1) AS name_taken,
		EXISTS(SELECT 1 FROM corporations WHERE email=$2) AS email_taken`
	if err := r.db.GetContext(ctx, &row, q, name, email); err != nil {
		return false, false, err
	}
	return row.Name, row.Email, nil
}
