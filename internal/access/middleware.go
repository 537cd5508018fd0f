package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	corpentity "github.com/ovaphlow/pitchfork/service-community/internal/corporation/entity"
	"github.com/ovaphlow/pitchfork/service-community/internal/respond"
	userentity "github.com/ovaphlow/pitchfork/service-community/internal/user/entity"
)

// TokenVerifier turns an access token into the user id it was issued to.
type TokenVerifier interface {
	Verify(raw string) (int64, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*userentity.User, error)
}

type CorporationLoader interface {
	GetByID(ctx context.Context, id int64) (*corpentity.Corporation, error)
}

// Authenticator resolves bearer tokens into a Caller.
type Authenticator struct {
	tokens TokenVerifier
	users  UserLoader
	corps  CorporationLoader
	logger *zap.SugaredLogger
}

func NewAuthenticator(tokens TokenVerifier, users UserLoader, corps CorporationLoader, logger *zap.SugaredLogger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, corps: corps, logger: logger}
}

// Resolve verifies the Authorization header value and loads the caller.
func (a *Authenticator) Resolve(ctx context.Context, header string) (Caller, error) {
	if header == "" {
		return nil, apperr.Authentication("authentication credentials were not provided")
	}
	scheme, raw, ok := strings.Cut(header, " ")
	raw = strings.TrimSpace(raw)
	if !ok || !strings.EqualFold(scheme, "bearer") || raw == "" {
		return nil, apperr.Authentication("authorization header must be Bearer {token}")
	}
	userID, err := a.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Authentication("user not found")
		}
		return nil, fmt.Errorf("load caller: %w", err)
	}
	if !u.IsActive {
		return nil, apperr.Authentication("user is inactive")
	}
	var corp *corpentity.Corporation
	if u.CorporationID != nil {
		corp, err = a.corps.GetByID(ctx, *u.CorporationID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load caller corporation: %w", err)
		}
	}
	return NewCaller(u, corp), nil
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved Caller in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := a.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			respond.Error(w, r, a.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
	})
}
