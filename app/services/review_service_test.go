package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

func ratings(menu, staff, delivery float64) models.ReviewInput {
	return models.ReviewInput{Comment: "tasty", RatingMenu: &menu, RatingStaff: &staff, RatingDelivery: &delivery}
}

func TestReviews(t *testing.T) {
	e := newEnv(t)
	clock := &fakeClock{t: epoch}
	svc := services.NewReviewService(repositories.NewReviewRepository(e.store), e.identities).WithClock(clock.Now)
	ctx := context.Background()
	named := e.signup(t, "a@x.com", "Alice", rbac.RoleUser)
	anon := e.signup(t, "b@x.com", "", rbac.RoleUser)

	first, err := svc.Add(ctx, named, ratings(5, 4, 3))
	require.NoError(t, err)
	assert.Equal(t, "Alice", first.UserName)
	assert.Equal(t, named.ID, first.UserID)

	clock.t = epoch.Add(time.Hour)
	second, err := svc.Add(ctx, anon, ratings(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", second.UserName, "zero ratings are allowed")

	list, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	list, err = svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Add(ctx, named, models.ReviewInput{Comment: "no ratings"})
	requireKind(t, err, apperr.KindValidation)
	_, err = svc.Add(ctx, nobody, ratings(1, 1, 1))
	requireKind(t, err, apperr.KindNoCredential)
}

func TestReviewDelete(t *testing.T) {
	e := newEnv(t)
	svc := services.NewReviewService(repositories.NewReviewRepository(e.store), e.identities)
	ctx := context.Background()
	author := e.signup(t, "a@x.com", "Alice", rbac.RoleUser)
	rv, err := svc.Add(ctx, author, ratings(5, 5, 5))
	require.NoError(t, err)

	requireKind(t, svc.Delete(ctx, nobody, "", rv.ID), apperr.KindNoCredential)
	requireKind(t, svc.Delete(ctx, alice, rbac.RoleUser, "missing"), apperr.KindNotFound)
	requireKind(t, svc.Delete(ctx, alice, rbac.RoleUser, rv.ID), apperr.KindInsufficientRole)

	require.NoError(t, svc.Delete(ctx, author, rbac.RoleUser, rv.ID))
	requireKind(t, svc.Delete(ctx, manager, rbac.RoleManager, rv.ID), apperr.KindNotFound)

	other, err := svc.Add(ctx, author, ratings(1, 2, 3))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, manager, rbac.RoleManager, other.ID))
}
