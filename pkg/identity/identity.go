// Package identity is the identity-provider boundary: it owns credentials,
// issues and verifies bearer tokens, and produces the one-time links used for
// password reset and email verification.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("identity: not found")
	ErrEmailTaken     = errors.New("identity: email already in use")
	ErrInvalidToken   = errors.New("identity: invalid or revoked token")
	ErrBadCredentials = errors.New("identity: invalid email or password")
)

// Identity is an account held by the provider. UID is the stable subject id.
type Identity struct {
	UID              string    `bson:"_id,omitempty" json:"uid"`
	Email            string    `bson:"email" json:"email"`
	DisplayName      string    `bson:"displayName,omitempty" json:"displayName,omitempty"`
	PasswordHash     string    `bson:"passwordHash" json:"-"`
	EmailVerified    bool      `bson:"emailVerified" json:"emailVerified"`
	Disabled         bool      `bson:"disabled" json:"disabled"`
	TokensValidAfter time.Time `bson:"tokensValidAfter" json:"-"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}

// Changes lists the attributes Update may modify; nil fields are left alone.
type Changes struct {
	Email         *string
	DisplayName   *string
	Password      *string
	EmailVerified *bool
	Disabled      *bool
}

// Provider is implemented by every identity backend.
type Provider interface {
	// Verify checks an access token and returns its identity. Expired,
	// forged or revoked tokens yield ErrInvalidToken; any other error means
	// the provider itself failed.
	Verify(ctx context.Context, token string) (Identity, error)
	Create(ctx context.Context, email, password, displayName string) (Identity, error)
	Get(ctx context.Context, uid string) (Identity, error)
	LookupByEmail(ctx context.Context, email string) (Identity, error)
	Update(ctx context.Context, uid string, c Changes) (Identity, error)
	Delete(ctx context.Context, uid string) error
	// IssueToken mints an access token for uid.
	IssueToken(ctx context.Context, uid string) (string, error)
	// Authenticate checks a password and returns the matching identity.
	Authenticate(ctx context.Context, email, password string) (Identity, error)
	ResetLink(ctx context.Context, email string) (string, error)
	VerificationLink(ctx context.Context, uid, continueURL string) (string, error)
	// ConfirmEmail consumes a verification token and returns its subject.
	ConfirmEmail(ctx context.Context, token string) (string, error)
	// ResetPassword consumes a reset token and revokes earlier tokens.
	ResetPassword(ctx context.Context, token, password string) error
}
