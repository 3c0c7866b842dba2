// Package services implements the application operations. Every exported
// method takes the caller's subject (and role where the operation is
// privileged), checks it against the access policy before touching a
// collaborator, and returns apperr-classified errors.
package services

import (
	"errors"

	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
	"github.com/shashiranjanraj/grinfood/pkg/validate"
)

// storeErr classifies a document-store failure. what names the missing
// resource in the NotFound message.
func storeErr(op, what string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Message: what + " not found", Err: err}
	}
	return apperr.Collaborator(op, err)
}

// identityErr classifies an identity-provider failure.
func identityErr(op string, err error) error {
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Message: "User not found", Err: err}
	case errors.Is(err, identity.ErrEmailTaken):
		return &apperr.Error{Kind: apperr.KindConflict, Op: op, Message: "Email is already in use", Err: err}
	case errors.Is(err, identity.ErrBadCredentials):
		return &apperr.Error{Kind: apperr.KindInvalidCredential, Op: op, Message: "Invalid email or password", Err: err}
	case errors.Is(err, identity.ErrInvalidToken):
		return &apperr.Error{Kind: apperr.KindInvalidCredential, Op: op, Message: "Invalid or expired token", Err: err}
	}
	return apperr.Collaborator(op, err)
}

// check runs struct validation. Inputs bound by the controllers have
// already passed it; services are also called from the CLI and tests.
func check(in any) error {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return apperr.Validation(errs)
	}
	return nil
}
