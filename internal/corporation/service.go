package corporation

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-community/internal/corporation/entity"
	corprepo "github.com/ovaphlow/pitchfork/service-community/internal/corporation/repo"
	"github.com/ovaphlow/pitchfork/service-community/internal/validate"
	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

// Service registers corporations and checks their credentials.
type Service struct {
	repo   *corprepo.CorporationRepo
	hasher utilities.PasswordHasher
}

func NewService(db *sqlx.DB, hasher utilities.PasswordHasher) *Service {
	return &Service{repo: corprepo.NewCorporationRepo(db), hasher: hasher}
}

// Repo exposes the repository for schema setup and caller resolution.
func (s *Service) Repo() *corprepo.CorporationRepo { return s.repo }

type RegisterInput struct {
	Name        string `json:"name" validate:"notblank,max=255"`
	Email       string `json:"email" validate:"required,max=254,email"`
	Description string `json:"description"`
	Password    string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// Register validates and stores a new corporation with a hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.Corporation, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	name, email := in.Name, in.Email

	fe := validate.Struct(in)
	if err := fe.Err(); err != nil {
		return nil, err
	}

	nameTaken, emailTaken, err := s.repo.Taken(ctx, name, email)
	if err != nil {
		return nil, err
	}
	if nameTaken {
		fe.Add("name", "corporation with this name already exists")
	}
	if emailTaken {
		fe.Add("email", "corporation with this email already exists")
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	c := &entity.Corporation{
		ID:           utilities.NewSnowflakeID(),
		Name:         name,
		Email:        email,
		Description:  in.Description,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Validation("corporation with this name or email already exists")
		}
		return nil, err
	}
	return c, nil
}

// Authenticate checks corporation credentials. Unknown email and wrong
// password yield the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.Corporation, error) {
	c, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Authentication("invalid corporation credentials")
		}
		return nil, err
	}
	if !s.hasher.Verify(c.PasswordHash, password) {
		return nil, apperr.Authentication("invalid corporation credentials")
	}
	return c, nil
}
