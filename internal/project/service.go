package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/access"
	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-community/internal/project/entity"
	projectrepo "github.com/ovaphlow/pitchfork/service-community/internal/project/repo"
	userentity "github.com/ovaphlow/pitchfork/service-community/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-community/internal/validate"
	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

// Updatable lists the fields PATCH accepts; main_user is not among them.
var Updatable = []string{"title", "description", "date_proj", "url"}

// updateRules mirrors the CreateInput tags for fields sent to PATCH.
var updateRules = map[string]string{
	"title":       "notblank,max=30",
	"description": "notblank,max=1000",
	"date_proj":   "required,datetime=2006-01-02",
	"url":         "required,max=255,http_url",
}

type Service struct {
	repo *projectrepo.ProjectRepo
}

func NewService(db *sqlx.DB) *Service {
	return &Service{repo: projectrepo.NewProjectRepo(db)}
}

func (s *Service) Repo() *projectrepo.ProjectRepo { return s.repo }

// CreateInput is the create payload. A main_user sent by the client is not
// read; the owner is always the caller.
type CreateInput struct {
	Title       string `json:"title" validate:"notblank,max=30"`
	Description string `json:"description" validate:"notblank,max=1000"`
	DateProj    string `json:"date_proj" validate:"required,datetime=2006-01-02"`
	URL         string `json:"url" validate:"required,max=255,http_url"`
}

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateInput) (*entity.Project, error) {
	in.URL = strings.TrimSpace(in.URL)
	if err := validate.Struct(in).Err(); err != nil {
		return nil, err
	}
	date, _ := validate.Date(in.DateProj)
	p := &entity.Project{
		ID:          utilities.NewSnowflakeID(),
		Title:       in.Title,
		Description: in.Description,
		DateProj:    database.NewDate(date),
		URL:         in.URL,
		MainUserID:  ownerID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]entity.Project, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update applies a partial update. Only fields present in the payload are
// validated and written; the caller must own the project.
func (s *Service) Update(ctx context.Context, c access.Caller, id int64, fields map[string]json.RawMessage) (*entity.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(c, access.Request{Op: access.UpdateProject, OwnerID: p.MainUserID}); err != nil {
		return nil, err
	}

	fe := apperr.FieldErrors{}
	set := map[string]any{}
	for _, name := range Updatable {
		v, ok := validate.String(fe, fields, name, false)
		if !ok {
			continue
		}
		if name == "url" {
			v = strings.TrimSpace(v)
		}
		validate.Var(fe, name, v, updateRules[name])
		if name == "date_proj" {
			d, _ := validate.Date(v)
			set[name] = database.NewDate(d)
			continue
		}
		set[name] = v
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	return updated, nil
}

// Delete removes a project the caller owns.
func (s *Service) Delete(ctx context.Context, c access.Caller, id int64) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(c, access.Request{Op: access.DeleteProject, OwnerID: p.MainUserID}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("project not found")
		}
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// Join adds the user to the project's participants. created is false when
// the user already participates.
func (s *Service) Join(ctx context.Context, userID, projectID int64) (bool, error) {
	created, err := s.repo.Join(ctx, &entity.ProjectUser{ID: utilities.NewSnowflakeID(), UserID: userID, ProjectID: projectID})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, apperr.NotFound("project not found")
		}
		return false, fmt.Errorf("join project: %w", err)
	}
	return created, nil
}

func (s *Service) Participants(ctx context.Context, projectID int64) ([]userentity.Public, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.Participants(ctx, projectID)
}
