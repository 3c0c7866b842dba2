package seeders

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/grinfood/config"
	"github.com/shashiranjanraj/grinfood/internal/app"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

func init() {
	Register("manager", SeedManager)
}

// SeedManager creates the first manager account from SEED_MANAGER_EMAIL
// and SEED_MANAGER_PASSWORD. Without both it does nothing.
func SeedManager(ctx context.Context, a *app.Application) error {
	email := config.Get("SEED_MANAGER_EMAIL", "")
	password := config.Get("SEED_MANAGER_PASSWORD", "")
	if email == "" || password == "" {
		return nil
	}

	id, err := a.Identities.LookupByEmail(ctx, email)
	if errors.Is(err, identity.ErrNotFound) {
		id, err = a.Identities.Create(ctx, email, password, "Manager")
	}
	if err != nil {
		return err
	}
	return a.Roles.Assign(ctx, id.UID, rbac.RoleManager)
}
