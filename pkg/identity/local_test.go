package identity_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/pkg/auth"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLocal(t *testing.T) (*identity.Local, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
	signer := auth.NewSigner("test-secret", time.Hour).WithClock(clk.now)
	p, err := identity.NewLocal(context.Background(), docstore.NewMemory(), signer, "https://grinfood.test")
	require.NoError(t, err)
	return p.WithClock(clk.now), clk
}

func tokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestCreateAndAuthenticate(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()

	id, err := p.Create(ctx, " A@X.com ", "p", "A")
	require.NoError(t, err)
	assert.NotEmpty(t, id.UID)
	assert.Equal(t, "a@x.com", id.Email)

	_, err = p.Create(ctx, "a@x.com", "other", "B")
	assert.ErrorIs(t, err, identity.ErrEmailTaken)

	got, err := p.Authenticate(ctx, "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, id.UID, got.UID)

	_, err = p.Authenticate(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, identity.ErrBadCredentials)
	_, err = p.Authenticate(ctx, "nobody@x.com", "p")
	assert.ErrorIs(t, err, identity.ErrBadCredentials)
}

func TestVerifyAccessToken(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()
	id, err := p.Create(ctx, "a@x.com", "p", "A")
	require.NoError(t, err)

	tok, err := p.IssueToken(ctx, id.UID)
	require.NoError(t, err)

	got, err := p.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, id.UID, got.UID)

	_, err = p.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	require.NoError(t, p.Delete(ctx, id.UID))
	_, err = p.Verify(ctx, tok)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
	assert.ErrorIs(t, p.Delete(ctx, id.UID), identity.ErrNotFound)
}

func TestDisabledIdentityIsRejected(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()
	id, err := p.Create(ctx, "a@x.com", "p", "A")
	require.NoError(t, err)
	tok, err := p.IssueToken(ctx, id.UID)
	require.NoError(t, err)

	disabled := true
	_, err = p.Update(ctx, id.UID, identity.Changes{Disabled: &disabled})
	require.NoError(t, err)

	_, err = p.Verify(ctx, tok)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestResetPasswordRevokesEarlierTokens(t *testing.T) {
	p, clk := newLocal(t)
	ctx := context.Background()
	id, err := p.Create(ctx, "a@x.com", "old", "A")
	require.NoError(t, err)

	access, err := p.IssueToken(ctx, id.UID)
	require.NoError(t, err)
	link, err := p.ResetLink(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Contains(t, link, "https://grinfood.test/reset-password?token=")

	clk.advance(time.Second)
	require.NoError(t, p.ResetPassword(ctx, tokenFrom(t, link), "new"))

	_, err = p.Verify(ctx, access)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	clk.advance(time.Second)
	assert.ErrorIs(t, p.ResetPassword(ctx, tokenFrom(t, link), "again"), identity.ErrInvalidToken)

	_, err = p.Authenticate(ctx, "a@x.com", "new")
	assert.NoError(t, err)
}

func TestConfirmEmail(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()
	id, err := p.Create(ctx, "a@x.com", "p", "A")
	require.NoError(t, err)

	link, err := p.VerificationLink(ctx, id.UID, "https://app.test/done")
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/api/verify-email", u.Path)
	assert.Equal(t, "https://app.test/done", u.Query().Get("continue"))

	uid, err := p.ConfirmEmail(ctx, u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, id.UID, uid)

	got, err := p.Get(ctx, id.UID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
}

func TestEmailChangeInvalidatesVerificationLink(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()
	id, err := p.Create(ctx, "a@x.com", "p", "A")
	require.NoError(t, err)
	link, err := p.VerificationLink(ctx, id.UID, "")
	require.NoError(t, err)

	email := "b@x.com"
	updated, err := p.Update(ctx, id.UID, identity.Changes{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", updated.Email)
	assert.False(t, updated.EmailVerified)

	_, err = p.ConfirmEmail(ctx, tokenFrom(t, link))
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}
