// Package token issues and verifies the bearer credentials used by the API.
// Access tokens are short-lived HS256 JWTs; refresh tokens are opaque and
// persisted so they can be rotated and revoked.
package token

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-community/internal/config"
	"github.com/ovaphlow/pitchfork/service-community/internal/token/entity"
	"github.com/ovaphlow/pitchfork/service-community/internal/token/repo"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

const accessTokenType = "access"

type accessClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Service manages token issuance.
type Service struct {
	secret      []byte
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	refreshRepo *repo.RefreshRepo
	now         func() time.Time
}

func NewService(db *sqlx.DB, cfg config.AuthConfig) *Service {
	return &Service{
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshRepo: repo.NewRefreshRepo(db),
		now:         time.Now,
	}
}

// Repo exposes the refresh session repository for schema setup.
func (s *Service) Repo() *repo.RefreshRepo { return s.refreshRepo }

// Issue creates an access token for userID and persists a new refresh session.
func (s *Service) Issue(ctx context.Context, userID int64) (*entity.Pair, error) {
	now := s.now()
	access, err := s.signAccess(userID, now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	rtBytes := make([]byte, 32)
	if _, err := rand.Read(rtBytes); err != nil {
		return nil, err
	}
	session := &entity.RefreshSession{
		ID:        utilities.NewSnowflakeID(),
		Token:     base64.RawURLEncoding.EncodeToString(rtBytes),
		UserID:    userID,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.refreshRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save refresh session: %w", err)
	}
	return &entity.Pair{Access: access, Refresh: session.Token}, nil
}

func (s *Service) signAccess(userID int64, now time.Time) (string, error) {
	claims := accessClaims{
		TokenType: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			ID:        utilities.NewKSUID(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks an access token and returns the user id it was issued to.
func (s *Service) Verify(raw string) (int64, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, &apperr.Error{Kind: apperr.KindAuthentication, Message: "invalid or expired token", Err: err}
	}
	if claims.TokenType != accessTokenType {
		return 0, apperr.Authentication("invalid or expired token")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, apperr.Authentication("invalid token subject")
	}
	return id, nil
}

// Redeem consumes a refresh token and returns the user it was issued to.
// The token cannot be used again; the caller issues a new pair once it has
// checked the account.
func (s *Service) Redeem(ctx context.Context, refresh string) (int64, error) {
	userID, expiresAt, err := s.refreshRepo.Consume(ctx, refresh)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.Authentication("invalid refresh token")
		}
		return 0, err
	}
	if !expiresAt.After(s.now()) {
		return 0, apperr.Authentication("invalid refresh token")
	}
	if err := s.refreshRepo.DeleteExpired(ctx, userID); err != nil {
		return 0, err
	}
	return userID, nil
}
