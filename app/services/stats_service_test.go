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

func newStats(t *testing.T) (*services.StatsService, *repositories.OrderRepository) {
	e := newEnv(t)
	repo := repositories.NewOrderRepository(e.store)
	return services.NewStatsService(repo), repo
}

func placeOrder(t *testing.T, repo *repositories.OrderRepository, status models.OrderStatus, total float64, at time.Time, items ...models.OrderItem) {
	t.Helper()
	_, err := repo.Create(context.Background(), models.Order{
		Items: items, Total: total, Status: status, UserID: "alice", CreatedAt: at,
	})
	require.NoError(t, err)
}

func TestPopularProducts(t *testing.T) {
	svc, repo := newStats(t)
	placeOrder(t, repo, models.StatusPending, 1, epoch,
		models.OrderItem{Name: "Borscht", Quantity: 2}, models.OrderItem{Name: "Kvas"})
	placeOrder(t, repo, models.StatusCancelled, 1, epoch,
		models.OrderItem{Name: "Varenyky", Quantity: 3}, models.OrderItem{Name: "Kvas", Quantity: 2})

	got, err := svc.PopularProducts(context.Background(), manager, rbac.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, []services.ProductCount{
		{Name: "Kvas", Count: 3},
		{Name: "Varenyky", Count: 3},
		{Name: "Borscht", Count: 2},
	}, got)

	_, err = svc.PopularProducts(context.Background(), alice, rbac.RoleUser)
	requireKind(t, err, apperr.KindInsufficientRole)
}

func TestRevenue(t *testing.T) {
	svc, repo := newStats(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	placeOrder(t, repo, models.StatusConfirmed, 100.10, day.Add(time.Hour))
	placeOrder(t, repo, models.StatusConfirmed, 0.20, day.Add(23*time.Hour+59*time.Minute))
	placeOrder(t, repo, models.StatusConfirmed, 1.50, day.Add(24*time.Hour-500*time.Millisecond))
	placeOrder(t, repo, models.StatusPending, 500, day.Add(2*time.Hour))
	placeOrder(t, repo, models.StatusConfirmed, 42, day.Add(24*time.Hour))
	ctx := context.Background()

	got, err := svc.Revenue(ctx, manager, rbac.RoleManager, services.RevenueQuery{StartDate: "2025-03-10", EndDate: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, services.Revenue{TotalRevenue: 101.80, OrderCount: 3}, got)

	got, err = svc.Revenue(ctx, manager, rbac.RoleManager, services.RevenueQuery{StartDate: "2025-03-10", EndDate: "2025-03-11T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 4, got.OrderCount)

	got, err = svc.Revenue(ctx, manager, rbac.RoleManager, services.RevenueQuery{StartDate: "2025-03-10", EndDate: "2025-03-10T23:59:59Z"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.OrderCount)

	_, err = svc.Revenue(ctx, manager, rbac.RoleManager, services.RevenueQuery{StartDate: "2025-03-11", EndDate: "2025-03-01"})
	requireKind(t, err, apperr.KindValidation)
	_, err = svc.Revenue(ctx, manager, rbac.RoleManager, services.RevenueQuery{StartDate: "yesterday", EndDate: "2025-03-01"})
	requireKind(t, err, apperr.KindValidation)
	_, err = svc.Revenue(ctx, alice, rbac.RoleUser, services.RevenueQuery{StartDate: "2025-03-10", EndDate: "2025-03-10"})
	requireKind(t, err, apperr.KindInsufficientRole)
}
