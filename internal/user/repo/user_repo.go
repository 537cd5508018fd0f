package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/user/entity"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, name, phone, age, rating, notifications, corporation_id,
	password_hash, is_active, is_staff, date_joined, last_login`

// EnsureTable creates the users table if not exists (idempotent).
// corporations must exist first because of the corporation_id reference.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id BIGINT PRIMARY KEY,
  email CITEXT NOT NULL UNIQUE CHECK (char_length(email) <= 250),
  name VARCHAR(100) NOT NULL,
  phone VARCHAR(20) NOT NULL DEFAULT '',
  age SMALLINT CHECK (age BETWEEN 0 AND 99),
  rating INT NOT NULL DEFAULT 0 CHECK (rating BETWEEN 0 AND 99999),
  notifications BOOLEAN NOT NULL DEFAULT true,
  corporation_id BIGINT REFERENCES corporations(id) ON DELETE SET NULL,
  password_hash TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT true,
  is_staff BOOLEAN NOT NULL DEFAULT false,
  date_joined TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  last_login TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS user_email_idx ON users(email);
CREATE INDEX IF NOT EXISTS user_corporation_idx ON users(corporation_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new user row. The caller assigns ID and DateJoined.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, email, name, phone, age, rating, notifications, corporation_id,
		password_hash, is_active, is_staff, date_joined)
		VALUES (:id, :email, :name, :phone, :age, :rating, :notifications, :corporation_id,
		:password_hash, :is_active, :is_staff, :date_joined)`
	_, err := r.db.NamedExecContext(ctx, q, u)
	return err
}

// GetByEmail returns a user matched by email (case-insensitive due to citext) or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email=$1`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a full user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailTaken reports whether a user already uses email.
func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TouchLastLogin records a successful authentication.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login=NOW() WHERE id=$1`, id)
	return err
}

// SetCorporation links (or unlinks, with nil) the user to a corporation.
func (r *UserRepo) SetCorporation(ctx context.Context, id int64, corporationID *int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET corporation_id=$2 WHERE id=$1`, id, corporationID)
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
