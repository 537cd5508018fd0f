package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/token/entity"
)

type RefreshRepo struct {
	db *sqlx.DB
}

func NewRefreshRepo(db *sqlx.DB) *RefreshRepo {
	return &RefreshRepo{db: db}
}

// EnsureTable creates refresh_sessions; it references users.
func (r *RefreshRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS refresh_sessions (
  token TEXT PRIMARY KEY,
  id BIGINT NOT NULL UNIQUE,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS refresh_sessions_user_idx ON refresh_sessions(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *RefreshRepo) Save(ctx context.Context, s *entity.RefreshSession) error {
	const q = `INSERT INTO refresh_sessions (token, id, user_id, expires_at) VALUES (:token, :id, :user_id, :expires_at)`
	_, err := r.db.NamedExecContext(ctx, q, s)
	return err
}

// Consume deletes the session for token and returns the user it belonged to
// and its expiry. A token can be consumed once; sql.ErrNoRows otherwise.
func (r *RefreshRepo) Consume(ctx context.Context, token string) (userID int64, expiresAt time.Time, err error) {
	const q = `DELETE FROM refresh_sessions WHERE token = $1 RETURNING user_id, expires_at`
	row := r.db.QueryRowxContext(ctx, q, token)
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return 0, time.Time{}, err
	}
	return userID, expiresAt, nil
}

// DeleteExpired drops sessions past their expiry for the given user.
func (r *RefreshRepo) DeleteExpired(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE user_id = $1 AND expires_at < NOW()`, userID)
	return err
}
