package services

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

// IdentityResolver verifies bearer credentials against the identity
// provider. Nothing is cached: every call asks the provider.
type IdentityResolver struct {
	provider identity.Provider
}

func NewIdentityResolver(provider identity.Provider) *IdentityResolver {
	return &IdentityResolver{provider: provider}
}

// Resolve returns the subject owning credential.
func (r *IdentityResolver) Resolve(ctx context.Context, credential string) (rbac.Subject, error) {
	if credential == "" {
		return rbac.Subject{}, apperr.New(apperr.KindNoCredential, "No credential provided")
	}
	id, err := r.provider.Verify(ctx, credential)
	if errors.Is(err, identity.ErrInvalidToken) || errors.Is(err, identity.ErrNotFound) {
		return rbac.Subject{}, &apperr.Error{
			Kind:    apperr.KindInvalidCredential,
			Op:      "identity.resolve",
			Message: "Invalid or expired credential",
			Err:     err,
		}
	}
	if err != nil {
		return rbac.Subject{}, apperr.Collaborator("identity.resolve", err)
	}
	if id.Disabled {
		return rbac.Subject{}, apperr.New(apperr.KindInvalidCredential, "Account is disabled")
	}
	return rbac.Subject{ID: id.UID}, nil
}
