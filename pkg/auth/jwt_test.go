package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/pkg/auth"
)

func TestIssueAndParse(t *testing.T) {
	s := auth.NewSigner("secret", time.Hour)

	tok, err := s.Issue("uid-1", auth.PurposeAccess, "a@x.com")
	require.NoError(t, err)

	claims, err := s.Parse(tok, auth.PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestParseRejectsWrongPurpose(t *testing.T) {
	s := auth.NewSigner("secret", time.Hour)
	tok, err := s.Issue("uid-1", auth.PurposeReset, "")
	require.NoError(t, err)

	_, err = s.Parse(tok, auth.PurposeAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := auth.NewSigner("secret", time.Minute).WithClock(func() time.Time { return issued })
	tok, err := s.Issue("uid-1", auth.PurposeAccess, "")
	require.NoError(t, err)

	s.WithClock(func() time.Time { return issued.Add(2 * time.Minute) })
	_, err = s.Parse(tok, auth.PurposeAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	tok, err := auth.NewSigner("one", time.Hour).Issue("uid-1", auth.PurposeAccess, "")
	require.NoError(t, err)

	_, err = auth.NewSigner("two", time.Hour).Parse(tok, auth.PurposeAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.NewSigner("two", time.Hour).Parse("not-a-jwt", auth.PurposeAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := auth.HashPassword("p")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(hash, "p"))
	assert.False(t, auth.CheckPassword(hash, "q"))
}

func TestExtractBearer(t *testing.T) {
	assert.Equal(t, "abc", auth.ExtractBearer("Bearer abc"))
	assert.Equal(t, "abc", auth.ExtractBearer("bearer  abc "))
	assert.Equal(t, "", auth.ExtractBearer(""))
	assert.Equal(t, "", auth.ExtractBearer("Basic abc"))
	assert.Equal(t, "", auth.ExtractBearer("Bearer"))
}
