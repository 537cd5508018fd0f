package repo

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
)

type EventRepo struct {
	db *sqlx.DB
}

func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DatesOrderedConstraint is the CHECK that keeps start_date before end_date.
const DatesOrderedConstraint = "event_dates_ordered"

// EnsureTable creates events and event_users; corporations and users must exist.
func (r *EventRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS events (
  id BIGINT PRIMARY KEY,
  title VARCHAR(100) NOT NULL,
  description VARCHAR(2000) NOT NULL,
  start_date DATE NOT NULL,
  end_date DATE NOT NULL,
  organizer_id BIGINT NOT NULL REFERENCES corporations(id) ON DELETE CASCADE,
  CONSTRAINT event_dates_ordered CHECK (start_date < end_date)
);
CREATE INDEX IF NOT EXISTS event_organizer_idx ON events(organizer_id);
CREATE TABLE IF NOT EXISTS event_users (
  id BIGINT PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
  UNIQUE (user_id, event_id)
);
CREATE INDEX IF NOT EXISTS user_event_idx ON event_users(user_id, event_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *EventRepo) Create(ctx context.Context, e *entity.Event) error {
	const q = `INSERT INTO events (id, title, description, start_date, end_date, organizer_id)
		VALUES (:id, :title, :description, :start_date, :end_date, :organizer_id)`
	_, err := r.db.NamedExecContext(ctx, q, e)
	return err
}

// List returns a page of events ordered by start date.
func (r *EventRepo) List(ctx context.Context, limit, offset int) ([]entity.Event, error) {
	q, args, err := psql.Select("id", "title", "description", "start_date", "end_date", "organizer_id").
		From("events").OrderBy("start_date", "id").
		Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, err
	}
	out := []entity.Event{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Detail returns the event with its participant count or sql.ErrNoRows.
func (r *EventRepo) Detail(ctx context.Context, id int64) (*entity.Detail, error) {
	const q = `SELECT e.id, e.title, e.description, e.start_date, e.end_date, e.organizer_id,
		COUNT(eu.id) AS participants
		FROM events e LEFT JOIN event_users eu ON eu.event_id = e.id
		WHERE e.id = $1
		GROUP BY e.id`
	var d entity.Detail
	if err := r.db.GetContext(ctx, &d, q, id); err != nil {
		return nil, err
	}
	return &d, nil
}

// Register inserts the (user, event) row. created is false when the user is
// already registered.
func (r *EventRepo) Register(ctx context.Context, link *entity.EventUser) (created bool, err error) {
	_, err = r.db.NamedExecContext(ctx, `INSERT INTO event_users (id, user_id, event_id) VALUES (:id, :user_id, :event_id)`, link)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
