package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shashiranjanraj/grinfood/pkg/auth"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
)

// Collection is where Local keeps identities.
const Collection = "identities"

// Local is a Provider that stores identities in the document store and signs
// its own JWTs.
type Local struct {
	col     docstore.Collection
	signer  *auth.Signer
	baseURL string
	now     func() time.Time
}

// NewLocal returns a Local provider and ensures the unique email index.
// baseURL prefixes the links produced by ResetLink and VerificationLink.
func NewLocal(ctx context.Context, store docstore.Store, signer *auth.Signer, baseURL string) (*Local, error) {
	if err := store.EnsureIndex(ctx, Collection, "email", true); err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	return &Local{
		col:     store.Collection(Collection),
		signer:  signer,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// WithClock replaces the provider's clock.
func (l *Local) WithClock(now func() time.Time) *Local {
	l.now = now
	return l
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *Local) Create(ctx context.Context, email, password, displayName string) (Identity, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: hash password: %w", err)
	}
	id := Identity{
		Email:        normalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		CreatedAt:    l.now().UTC(),
	}
	uid, err := l.col.Add(ctx, id)
	if errors.Is(err, docstore.ErrDuplicate) {
		return Identity{}, ErrEmailTaken
	}
	if err != nil {
		return Identity{}, fmt.Errorf("identity: create: %w", err)
	}
	id.UID = uid
	return id, nil
}

func (l *Local) Get(ctx context.Context, uid string) (Identity, error) {
	var id Identity
	err := l.col.Get(ctx, uid, &id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("identity: get: %w", err)
	}
	return id, nil
}

func (l *Local) LookupByEmail(ctx context.Context, email string) (Identity, error) {
	var found []Identity
	err := l.col.Find(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("email", docstore.Eq, normalizeEmail(email))},
		Limit:   1,
	}, &found)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: lookup: %w", err)
	}
	if len(found) == 0 {
		return Identity{}, ErrNotFound
	}
	return found[0], nil
}

func (l *Local) Update(ctx context.Context, uid string, c Changes) (Identity, error) {
	fields := map[string]any{}
	if c.Email != nil {
		fields["email"] = normalizeEmail(*c.Email)
		fields["emailVerified"] = false
	}
	if c.DisplayName != nil {
		fields["displayName"] = strings.TrimSpace(*c.DisplayName)
	}
	if c.Password != nil {
		hash, err := auth.HashPassword(*c.Password)
		if err != nil {
			return Identity{}, fmt.Errorf("identity: hash password: %w", err)
		}
		fields["passwordHash"] = hash
		fields["tokensValidAfter"] = l.now().UTC().Truncate(time.Second)
	}
	if c.EmailVerified != nil {
		fields["emailVerified"] = *c.EmailVerified
	}
	if c.Disabled != nil {
		fields["disabled"] = *c.Disabled
	}

	if len(fields) > 0 {
		err := l.col.Update(ctx, uid, fields)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			return Identity{}, ErrNotFound
		case errors.Is(err, docstore.ErrDuplicate):
			return Identity{}, ErrEmailTaken
		case err != nil:
			return Identity{}, fmt.Errorf("identity: update: %w", err)
		}
	}
	return l.Get(ctx, uid)
}

// Delete removes uid. A missing identity is ErrNotFound.
func (l *Local) Delete(ctx context.Context, uid string) error {
	if _, err := l.Get(ctx, uid); err != nil {
		return err
	}
	if err := l.col.Delete(ctx, uid); err != nil {
		return fmt.Errorf("identity: delete: %w", err)
	}
	return nil
}

func (l *Local) IssueToken(ctx context.Context, uid string) (string, error) {
	id, err := l.Get(ctx, uid)
	if err != nil {
		return "", err
	}
	return l.signer.Issue(id.UID, auth.PurposeAccess, id.Email)
}

func (l *Local) Verify(ctx context.Context, token string) (Identity, error) {
	return l.consume(ctx, token, auth.PurposeAccess)
}

// consume parses a token of the given purpose and checks it against the
// stored identity: deleted, disabled or revoked subjects are rejected.
func (l *Local) consume(ctx context.Context, token string, purpose auth.Purpose) (Identity, error) {
	claims, err := l.signer.Parse(token, purpose)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	id, err := l.Get(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		return Identity{}, ErrInvalidToken
	}
	if err != nil {
		return Identity{}, err
	}
	if id.Disabled {
		return Identity{}, ErrInvalidToken
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.Before(id.TokensValidAfter) {
		return Identity{}, ErrInvalidToken
	}
	if purpose == auth.PurposeVerifyEmail && claims.Email != id.Email {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}

func (l *Local) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	id, err := l.LookupByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Identity{}, ErrBadCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	if id.Disabled || !auth.CheckPassword(id.PasswordHash, password) {
		return Identity{}, ErrBadCredentials
	}
	return id, nil
}

func (l *Local) ResetLink(ctx context.Context, email string) (string, error) {
	id, err := l.LookupByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	tok, err := l.signer.Issue(id.UID, auth.PurposeReset, id.Email)
	if err != nil {
		return "", err
	}
	return l.baseURL + "/reset-password?token=" + url.QueryEscape(tok), nil
}

func (l *Local) VerificationLink(ctx context.Context, uid, continueURL string) (string, error) {
	id, err := l.Get(ctx, uid)
	if err != nil {
		return "", err
	}
	tok, err := l.signer.Issue(id.UID, auth.PurposeVerifyEmail, id.Email)
	if err != nil {
		return "", err
	}
	q := url.Values{"token": {tok}}
	if continueURL != "" {
		q.Set("continue", continueURL)
	}
	return l.baseURL + "/api/verify-email?" + q.Encode(), nil
}

func (l *Local) ConfirmEmail(ctx context.Context, token string) (string, error) {
	id, err := l.consume(ctx, token, auth.PurposeVerifyEmail)
	if err != nil {
		return "", err
	}
	verified := true
	if _, err := l.Update(ctx, id.UID, Changes{EmailVerified: &verified}); err != nil {
		return "", err
	}
	return id.UID, nil
}

func (l *Local) ResetPassword(ctx context.Context, token, password string) error {
	id, err := l.consume(ctx, token, auth.PurposeReset)
	if err != nil {
		return err
	}
	_, err = l.Update(ctx, id.UID, Changes{Password: &password})
	return err
}
