package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/access"
	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-community/internal/corporation"
	corpentity "github.com/ovaphlow/pitchfork/service-community/internal/corporation/entity"
	"github.com/ovaphlow/pitchfork/service-community/internal/skill"
	skillentity "github.com/ovaphlow/pitchfork/service-community/internal/skill/entity"
	"github.com/ovaphlow/pitchfork/service-community/internal/token"
	tokenentity "github.com/ovaphlow/pitchfork/service-community/internal/token/entity"
	"github.com/ovaphlow/pitchfork/service-community/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-community/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-community/internal/validate"
	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

const (
	errBadCredentials = "no active account found with the given credentials"
	errEmailTaken     = "user with this email already exists"
)

// Service orchestrates registration, token issuance and profile flows.
type Service struct {
	repo   *userrepo.UserRepo
	hasher utilities.PasswordHasher
	tokens *token.Service
	corps  *corporation.Service
	skills *skill.Service
}

func NewService(db *sqlx.DB, hasher utilities.PasswordHasher, tokens *token.Service, corps *corporation.Service, skills *skill.Service) *Service {
	return &Service{
		repo:   userrepo.NewUserRepo(db),
		hasher: hasher,
		tokens: tokens,
		corps:  corps,
		skills: skills,
	}
}

// Repo exposes the repository for schema setup and caller resolution.
func (s *Service) Repo() *userrepo.UserRepo { return s.repo }

type RegisterInput struct {
	Email     string `json:"email" validate:"required,max=250,email"`
	Name      string `json:"name" validate:"notblank,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=20,phone"`
	Age       *int   `json:"age" validate:"omitempty,gte=0,lte=99"`
	Password1 string `json:"password1" validate:"required,min=8,maxbytes=72"`
	Password2 string `json:"password2" validate:"required,min=8,eqfield=Password1"`
}

// Profile is the caller's own view of their account.
type Profile struct {
	ID            int64                   `json:"id"`
	Email         string                  `json:"email"`
	Name          string                  `json:"name"`
	Phone         string                  `json:"phone"`
	Age           *int                    `json:"age"`
	Rating        int                     `json:"rating"`
	Notifications bool                    `json:"notifications"`
	Corporation   *corpentity.Corporation `json:"corporation"`
	Skills        []skillentity.Skill     `json:"skills"`
	DateJoined    time.Time               `json:"date_joined"`
}

// Register validates the input and stores exactly one new user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)

	fe := validate.Struct(in)
	if _, bad := fe["email"]; !bad {
		taken, err := s.repo.EmailTaken(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			fe.Add("email", errEmailTaken)
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password1)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		ID:            utilities.NewSnowflakeID(),
		Email:         in.Email,
		Name:          in.Name,
		Phone:         in.Phone,
		Age:           in.Age,
		Notifications: true,
		PasswordHash:  hash,
		IsActive:      true,
		DateJoined:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Invalid(map[string]string{"email": errEmailTaken})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Token checks email and password and issues a token pair. Unknown email,
// wrong password and inactive accounts are indistinguishable to the client.
func (s *Service) Token(ctx context.Context, email, password string) (*tokenentity.Pair, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Authentication(errBadCredentials)
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) || !u.IsActive {
		return nil, apperr.Authentication(errBadCredentials)
	}
	if err := s.repo.TouchLastLogin(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	return s.tokens.Issue(ctx, u.ID)
}

// Refresh redeems a refresh token and issues a new pair for the same account.
func (s *Service) Refresh(ctx context.Context, refresh string) (*tokenentity.Pair, error) {
	userID, err := s.tokens.Redeem(ctx, refresh)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Authentication("invalid refresh token")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Authentication("invalid refresh token")
	}
	return s.tokens.Issue(ctx, u.ID)
}

// Profile assembles the caller's account, corporation and skills.
func (s *Service) Profile(ctx context.Context, c access.Caller) (*Profile, error) {
	var corp *corpentity.Corporation
	if rep, ok := c.(access.CorporateRepresentative); ok {
		corp = rep.Corporation
	}
	return s.profile(ctx, c.Account(), corp)
}

func (s *Service) profile(ctx context.Context, u *entity.User, corp *corpentity.Corporation) (*Profile, error) {
	skills, err := s.skills.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return &Profile{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Phone:         u.Phone,
		Age:           u.Age,
		Rating:        u.Rating,
		Notifications: u.Notifications,
		Corporation:   corp,
		Skills:        skills,
		DateJoined:    u.DateJoined,
	}, nil
}

// LinkCorporation attaches the user to the corporation whose credentials
// were presented. The user then acts as that corporation's representative.
func (s *Service) LinkCorporation(ctx context.Context, userID int64, email, password string) (*Profile, error) {
	corp, err := s.corps.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCorporation(ctx, userID, &corp.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("link corporation: %w", err)
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, u, corp)
}
