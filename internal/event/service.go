package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-community/internal/event/entity"
	eventrepo "github.com/ovaphlow/pitchfork/service-community/internal/event/repo"
	"github.com/ovaphlow/pitchfork/service-community/internal/validate"
	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

const (
	titleRules       = "notblank,max=100"
	descriptionRules = "notblank,max=2000"
	dateRules        = "notblank,datetime=2006-01-02"

	errDateOrder    = "end date must be after start date"
	errUnknownEvent = "invalid pk - object does not exist"
)

// Fields is the complete set of keys accepted on create.
var Fields = []string{"title", "description", "start", "end"}

type Service struct {
	repo *eventrepo.EventRepo
}

func NewService(db *sqlx.DB) *Service {
	return &Service{repo: eventrepo.NewEventRepo(db)}
}

func (s *Service) Repo() *eventrepo.EventRepo { return s.repo }

// checkDate parses v; when it does not parse, the validator records why.
func checkDate(fe apperr.FieldErrors, name, v string) (database.Date, bool) {
	t, ok := validate.Date(v)
	if !ok {
		validate.Var(fe, name, v, dateRules)
		return database.Date{}, false
	}
	return database.NewDate(t), true
}

// Create validates a strictly decoded payload and stores the event under the
// given organizer. Title and description are stored as sent.
func (s *Service) Create(ctx context.Context, organizerID int64, fields map[string]json.RawMessage) (*entity.Event, error) {
	fe := apperr.FieldErrors{}
	title, ok := validate.String(fe, fields, "title", true)
	if ok {
		validate.Var(fe, "title", title, titleRules)
	}
	description, ok := validate.String(fe, fields, "description", true)
	if ok {
		validate.Var(fe, "description", description, descriptionRules)
	}
	var start, end database.Date
	startOK, endOK := false, false
	if v, ok := validate.String(fe, fields, "start", true); ok {
		start, startOK = checkDate(fe, "start", v)
	}
	if v, ok := validate.String(fe, fields, "end", true); ok {
		end, endOK = checkDate(fe, "end", v)
	}
	if startOK && endOK && !start.Before(end.Time) {
		fe.Add("end", errDateOrder)
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	e := &entity.Event{
		ID:          utilities.NewSnowflakeID(),
		Title:       title,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		OrganizerID: organizerID,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		if database.IsCheckViolation(err) && database.Constraint(err) == eventrepo.DatesOrderedConstraint {
			return nil, apperr.Invalid(map[string]string{"end": errDateOrder})
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]entity.Event, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Detail(ctx context.Context, id int64) (*entity.Detail, error) {
	d, err := s.repo.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}
	return d, nil
}

// Register records the user's participation. created is false when the user
// was already registered; an unknown event is a validation error on "event".
func (s *Service) Register(ctx context.Context, userID, eventID int64) (bool, error) {
	created, err := s.repo.Register(ctx, &entity.EventUser{ID: utilities.NewSnowflakeID(), UserID: userID, EventID: eventID})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, apperr.Invalid(map[string]string{"event": errUnknownEvent})
		}
		return false, fmt.Errorf("register for event: %w", err)
	}
	return created, nil
}
