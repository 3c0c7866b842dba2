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

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newPromotions(e *env) (*services.PromotionService, *fakeClock) {
	clk := &fakeClock{t: epoch}
	repo := repositories.NewPromotionRepository(e.store).WithBackOff(repositories.NoDelay)
	return services.NewPromotionService(repo).WithClock(clk.Now), clk
}

func januaryPromo(title string) models.PromotionInput {
	return models.PromotionInput{
		Title:       title,
		Description: "Two for one",
		Image:       "https://cdn.grinfood.test/p.jpg",
		Active:      true,
		StartDate:   "2025-01-01",
		EndDate:     "2025-01-31",
	}
}

func TestPromotionWindow(t *testing.T) {
	e := newEnv(t)
	svc, clk := newPromotions(e)
	ctx := context.Background()

	p, err := svc.Create(ctx, manager, rbac.RoleManager, januaryPromo("January"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), p.EndDate)

	clk.t = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	list, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	// Date-only end is midnight of that day, inclusive.
	clk.t = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	list, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	clk.t = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	list, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInactivePromotionIsNeverListed(t *testing.T) {
	e := newEnv(t)
	svc, clk := newPromotions(e)
	ctx := context.Background()
	in := januaryPromo("Paused")
	in.Active = false
	_, err := svc.Create(ctx, manager, rbac.RoleManager, in)
	require.NoError(t, err)

	clk.t = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	list, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPromotionValidation(t *testing.T) {
	svc, _ := newPromotions(newEnv(t))
	ctx := context.Background()

	in := januaryPromo("Backwards")
	in.StartDate, in.EndDate = "2025-02-01", "2025-01-01"
	_, err := svc.Create(ctx, manager, rbac.RoleManager, in)
	requireKind(t, err, apperr.KindValidation)

	in = januaryPromo("Bad date")
	in.StartDate = "first of january"
	_, err = svc.Create(ctx, manager, rbac.RoleManager, in)
	requireKind(t, err, apperr.KindValidation)

	in = januaryPromo("")
	_, err = svc.Create(ctx, manager, rbac.RoleManager, in)
	requireKind(t, err, apperr.KindValidation)

	in = januaryPromo("Timed")
	in.StartDate, in.EndDate = "2025-01-01T08:30", "2025-01-01T20:00:00Z"
	p, err := svc.Create(ctx, manager, rbac.RoleManager, in)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC), p.StartDate)
}

func TestPromotionManagement(t *testing.T) {
	e := newEnv(t)
	svc, _ := newPromotions(e)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, rbac.RoleUser, januaryPromo("Nope"))
	requireKind(t, err, apperr.KindInsufficientRole)
	_, err = svc.ListAll(ctx, alice, rbac.RoleUser)
	requireKind(t, err, apperr.KindInsufficientRole)

	jan, err := svc.Create(ctx, manager, rbac.RoleManager, januaryPromo("January"))
	require.NoError(t, err)
	feb := januaryPromo("February")
	feb.StartDate, feb.EndDate = "2025-02-01", "2025-02-28"
	_, err = svc.Create(ctx, manager, rbac.RoleManager, feb)
	require.NoError(t, err)

	all, err := svc.ListAll(ctx, manager, rbac.RoleManager)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "February", all[0].Title)

	upd := januaryPromo("January v2")
	upd.Active = false
	got, err := svc.Update(ctx, manager, rbac.RoleManager, jan.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "January v2", got.Title)
	assert.False(t, got.Active)

	_, err = svc.Update(ctx, manager, rbac.RoleManager, "missing", upd)
	requireKind(t, err, apperr.KindNotFound)

	require.NoError(t, svc.Delete(ctx, manager, rbac.RoleManager, jan.ID))
	requireKind(t, svc.Delete(ctx, manager, rbac.RoleManager, jan.ID), apperr.KindNotFound)
	requireKind(t, svc.Delete(ctx, alice, rbac.RoleUser, "whatever"), apperr.KindInsufficientRole)
}
