package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	corprepo "github.com/ovaphlow/pitchfork/service-community/internal/corporation/repo"
	eventrepo "github.com/ovaphlow/pitchfork/service-community/internal/event/repo"
	projectrepo "github.com/ovaphlow/pitchfork/service-community/internal/project/repo"
	skillrepo "github.com/ovaphlow/pitchfork/service-community/internal/skill/repo"
	tokenrepo "github.com/ovaphlow/pitchfork/service-community/internal/token/repo"
	userrepo "github.com/ovaphlow/pitchfork/service-community/internal/user/repo"
)

type tableEnsurer interface {
	EnsureTable(ctx context.Context) error
}

// migrate creates every table in foreign key order. Each step is idempotent.
func migrate(ctx context.Context, db *sqlx.DB) error {
	steps := []struct {
		name string
		repo tableEnsurer
	}{
		{"corporations", corprepo.NewCorporationRepo(db)},
		{"users", userrepo.NewUserRepo(db)},
		{"refresh_sessions", tokenrepo.NewRefreshRepo(db)},
		{"skills", skillrepo.NewSkillRepo(db)},
		{"projects", projectrepo.NewProjectRepo(db)},
		{"events", eventrepo.NewEventRepo(db)},
	}
	for _, s := range steps {
		if err := s.repo.EnsureTable(ctx); err != nil {
			return fmt.Errorf("ensure %s: %w", s.name, err)
		}
	}
	return nil
}
