package skill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-community/internal/skill/entity"
	skillrepo "github.com/ovaphlow/pitchfork/service-community/internal/skill/repo"
	"github.com/ovaphlow/pitchfork/service-community/internal/validate"
	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

const titleRules = "notblank,max=30"

// Service manages the skill catalogue and user skill links.
type Service struct {
	repo *skillrepo.SkillRepo
}

func NewService(db *sqlx.DB) *Service {
	return &Service{repo: skillrepo.NewSkillRepo(db)}
}

// Repo exposes the repository for schema setup and profile lookups.
func (s *Service) Repo() *skillrepo.SkillRepo { return s.repo }

// NormalizeTitle trims the title and capitalizes it: first letter upper
// case, the rest lower case.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(t)
	return string(unicode.ToUpper(first)) + strings.ToLower(t[size:])
}

func validateTitle(title string) (string, error) {
	t := NormalizeTitle(title)
	fe := apperr.FieldErrors{}
	validate.Var(fe, "title", t, titleRules)
	if err := fe.Err(); err != nil {
		return "", err
	}
	return t, nil
}

// AssignByID links an existing skill to the user. created is false when the
// link already existed.
func (s *Service) AssignByID(ctx context.Context, userID, skillID int64) (*entity.Skill, bool, error) {
	sk, err := s.repo.GetByID(ctx, skillID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, apperr.NotFound("skill not found")
		}
		return nil, false, err
	}
	created, err := s.link(ctx, userID, sk.ID)
	if err != nil {
		return nil, false, err
	}
	return sk, created, nil
}

// AssignByTitle links the skill with the normalized title to the user,
// creating the skill first if nobody has used that title yet.
func (s *Service) AssignByTitle(ctx context.Context, userID int64, title string) (*entity.Skill, bool, error) {
	t, err := validateTitle(title)
	if err != nil {
		return nil, false, err
	}
	sk, err := s.getOrCreate(ctx, t)
	if err != nil {
		return nil, false, err
	}
	created, err := s.link(ctx, userID, sk.ID)
	if err != nil {
		return nil, false, err
	}
	return sk, created, nil
}

func (s *Service) link(ctx context.Context, userID, skillID int64) (bool, error) {
	created, err := s.repo.Link(ctx, &entity.SkillUser{ID: utilities.NewSnowflakeID(), UserID: userID, SkillID: skillID})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, apperr.NotFound("skill not found")
		}
		return false, fmt.Errorf("link skill: %w", err)
	}
	return created, nil
}

// getOrCreate looks the title up, inserts it when absent and re-reads it
// when a concurrent insert won the race.
func (s *Service) getOrCreate(ctx context.Context, title string) (*entity.Skill, error) {
	sk, err := s.repo.GetByTitle(ctx, title)
	if err == nil {
		return sk, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	sk = &entity.Skill{ID: utilities.NewSnowflakeID(), Title: title}
	if err := s.repo.Create(ctx, sk); err != nil {
		if database.IsUniqueViolation(err) {
			return s.repo.GetByTitle(ctx, title)
		}
		return nil, fmt.Errorf("create skill: %w", err)
	}
	return sk, nil
}

// Create adds a skill explicitly. A title that normalizes to an existing
// one is rejected.
func (s *Service) Create(ctx context.Context, title string) (*entity.Skill, error) {
	t, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	sk := &entity.Skill{ID: utilities.NewSnowflakeID(), Title: t}
	if err := s.repo.Create(ctx, sk); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Invalid(map[string]string{"title": "skill with this title already exists"})
		}
		return nil, err
	}
	return sk, nil
}

func (s *Service) List(ctx context.Context, prefix string, limit, offset int) ([]entity.Skill, error) {
	return s.repo.List(ctx, strings.TrimSpace(prefix), limit, offset)
}

func (s *Service) ListForUser(ctx context.Context, userID int64) ([]entity.Skill, error) {
	return s.repo.ListForUser(ctx, userID)
}
