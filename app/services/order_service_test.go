package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/docstore/docstoretest"
	"github.com/shashiranjanraj/grinfood/pkg/event"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

func validOrder() models.OrderInput {
	return models.OrderInput{
		Items:         []models.OrderItem{{Name: "Borscht", Quantity: 2, Price: 120}},
		Total:         240,
		Customer:      &models.Customer{Name: "Alice", Phone: "+380501112233"},
		Address:       "Khreshchatyk 1",
		PaymentMethod: "card",
	}
}

func newOrders(e *env) (*services.OrderService, *repositories.OrderRepository) {
	repo := repositories.NewOrderRepository(e.store)
	return services.NewOrderService(repo, e.events).WithClock(func() time.Time { return epoch }), repo
}

func TestOrderCreate(t *testing.T) {
	e := newEnv(t)
	svc, repo := newOrders(e)

	o, err := svc.Create(context.Background(), alice, validOrder())
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, alice.ID, o.UserID)
	assert.True(t, o.CreatedAt.Equal(epoch))

	stored, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, "Alice", stored.Customer.Name)

	evs := e.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, event.OrderCreated, evs[0].Name)
}

func TestOrderCreateValidation(t *testing.T) {
	e := newEnv(t)
	svc, _ := newOrders(e)

	cases := map[string]func(in *models.OrderInput){
		"items":         func(in *models.OrderInput) { in.Items = nil },
		"items[0].name": func(in *models.OrderInput) { in.Items[0].Name = "" },
		"total":         func(in *models.OrderInput) { in.Total = 0 },
		"customer":      func(in *models.OrderInput) { in.Customer = nil },
		"customer.name": func(in *models.OrderInput) { in.Customer.Name = "" },
		"address":       func(in *models.OrderInput) { in.Address = "" },
		"paymentMethod": func(in *models.OrderInput) { in.PaymentMethod = "" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := validOrder()
			mutate(&in)
			_, err := svc.Create(context.Background(), alice, in)
			requireKind(t, err, apperr.KindValidation)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Contains(t, ae.Fields, field)
		})
	}
	assert.Zero(t, e.store.Calls(models.OrdersCollection, docstoretest.OpAdd), "validation precedes the store")
}

func TestOrderCreateRequiresSubject(t *testing.T) {
	svc, _ := newOrders(newEnv(t))
	_, err := svc.Create(context.Background(), nobody, validOrder())
	requireKind(t, err, apperr.KindNoCredential)
}

func TestTransitionPrecedence(t *testing.T) {
	e := newEnv(t)
	svc, _ := newOrders(e)
	ctx := context.Background()
	o, err := svc.Create(ctx, alice, validOrder())
	require.NoError(t, err)

	// Non-managers are refused whatever the target or order, even the owner.
	for _, target := range []models.OrderStatus{"confirmed", "cancelled", "pending", "shipped"} {
		_, err := svc.Transition(ctx, alice, rbac.RoleUser, o.ID, target)
		requireKind(t, err, apperr.KindInsufficientRole)
		_, err = svc.Transition(ctx, alice, rbac.RoleUser, "missing", target)
		requireKind(t, err, apperr.KindInsufficientRole)
	}

	// A bad target is rejected before the order is looked up.
	_, err = svc.Transition(ctx, manager, rbac.RoleManager, "missing", "shipped")
	requireKind(t, err, apperr.KindInvalidTransition)
	_, err = svc.Transition(ctx, manager, rbac.RoleManager, o.ID, models.StatusPending)
	requireKind(t, err, apperr.KindInvalidTransition)
	_, err = svc.Transition(ctx, manager, rbac.RoleManager, "missing", "")
	requireKind(t, err, apperr.KindInvalidTransition)

	_, err = svc.Transition(ctx, manager, rbac.RoleManager, "missing", models.StatusConfirmed)
	requireKind(t, err, apperr.KindNotFound)
}

func TestTransitionOnlyFromPending(t *testing.T) {
	e := newEnv(t)
	svc, repo := newOrders(e)
	ctx := context.Background()
	o, err := svc.Create(ctx, alice, validOrder())
	require.NoError(t, err)

	got, err := svc.Transition(ctx, manager, rbac.RoleManager, o.ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	_, err = svc.Transition(ctx, manager, rbac.RoleManager, o.ID, models.StatusCancelled)
	requireKind(t, err, apperr.KindInvalidTransition)
	assert.EqualError(t, err, "order is already confirmed")

	stored, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.Equal(t, alice.ID, stored.UserID)

	evs := e.events.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, event.OrderStatusChanged, evs[1].Name)
	change := evs[1].Payload.(services.StatusChange)
	assert.Equal(t, models.StatusPending, change.From)
}

func TestConcurrentTransitionsHaveOneWinner(t *testing.T) {
	e := newEnv(t)
	svc, repo := newOrders(e)
	ctx := context.Background()
	o, err := svc.Create(ctx, alice, validOrder())
	require.NoError(t, err)

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []models.OrderStatus
		lost int
	)
	for i := 0; i < n; i++ {
		target := models.StatusConfirmed
		if i%2 == 1 {
			target = models.StatusCancelled
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(ctx, manager, rbac.RoleManager, o.ID, target)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins = append(wins, target)
				return
			}
			if apperr.Is(err, apperr.KindInvalidTransition) {
				lost++
			}
		}()
	}
	wg.Wait()

	require.Len(t, wins, 1)
	assert.Equal(t, n-1, lost)
	stored, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, wins[0], stored.Status)
}

func TestListByStatus(t *testing.T) {
	e := newEnv(t)
	svc, repo := newOrders(e)
	ctx := context.Background()

	for _, o := range []models.Order{
		{Address: "old", Status: models.StatusPending, CreatedAt: epoch.Add(-time.Hour)},
		{Address: "undated", Status: models.StatusPending},
		{Address: "new", Status: models.StatusPending, CreatedAt: epoch},
		{Address: "done", Status: models.StatusConfirmed, CreatedAt: epoch},
	} {
		_, err := repo.Create(ctx, o)
		require.NoError(t, err)
	}

	list, err := svc.ListByStatus(ctx, manager, rbac.RoleManager, "pending")
	require.NoError(t, err)
	var got []string
	for _, o := range list {
		got = append(got, o.Address)
	}
	assert.Equal(t, []string{"new", "old", "undated"}, got)

	_, err = svc.ListByStatus(ctx, manager, rbac.RoleManager, "shipped")
	requireKind(t, err, apperr.KindValidation)
	_, err = svc.ListByStatus(ctx, alice, rbac.RoleUser, "pending")
	requireKind(t, err, apperr.KindInsufficientRole)
}

func TestListMine(t *testing.T) {
	e := newEnv(t)
	svc, _ := newOrders(e)
	ctx := context.Background()
	_, err := svc.Create(ctx, alice, validOrder())
	require.NoError(t, err)
	_, err = svc.Create(ctx, rbac.Subject{ID: "bob"}, validOrder())
	require.NoError(t, err)

	list, err := svc.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, alice.ID, list[0].UserID)
}

func TestOrderStoreFailureIsCollaborator(t *testing.T) {
	e := newEnv(t)
	svc, _ := newOrders(e)
	e.store.Fail(models.OrdersCollection, docstoretest.OpAdd, assert.AnError)

	_, err := svc.Create(context.Background(), alice, validOrder())
	requireKind(t, err, apperr.KindCollaboratorFailed)
	assert.Empty(t, e.events.Events())
}
