// Package rbac holds the authorization vocabulary (subjects, roles,
// capabilities) and the pure access policy that decides them.
package rbac

import (
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
)

// Subject is an authenticated identity. ID is the identity provider's
// stable subject identifier.
type Subject struct {
	ID string
}

// Authenticated reports whether the subject was resolved at all.
func (s Subject) Authenticated() bool { return s.ID != "" }

// Role gates privileged capabilities.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleUser || r == RoleManager }

// ParseRole converts s into a Role. The empty string is RoleUser.
func ParseRole(s string) (Role, bool) {
	if s == "" {
		return RoleUser, true
	}
	r := Role(s)
	return r, r.Valid()
}

// Capability is a named permission check.
type Capability string

const (
	// Manage requires the manager role.
	Manage Capability = "manage"
	// OwnOrManage allows the resource owner or a manager.
	OwnOrManage Capability = "own-or-manage"
	// Authenticated allows any resolved subject.
	Authenticated Capability = "authenticated"
)

// Allows decides whether subject holding role may exercise capability on a
// resource owned by ownerID. ownerID is ignored by Manage and Authenticated.
func Allows(subject Subject, role Role, capability Capability, ownerID string) bool {
	if !subject.Authenticated() {
		return false
	}
	switch capability {
	case Authenticated:
		return true
	case Manage:
		return role == RoleManager
	case OwnOrManage:
		return role == RoleManager || (ownerID != "" && ownerID == subject.ID)
	default:
		return false
	}
}

// Authorize is Allows returning an error: NoCredential for an anonymous
// subject, InsufficientRole for a denial.
func Authorize(subject Subject, role Role, capability Capability, ownerID string) error {
	if !subject.Authenticated() {
		return apperr.New(apperr.KindNoCredential, "No credential provided")
	}
	if !Allows(subject, role, capability, ownerID) {
		return apperr.New(apperr.KindInsufficientRole, "Insufficient rights")
	}
	return nil
}
