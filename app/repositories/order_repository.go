package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
)

// OrderRepository persists orders.
type OrderRepository struct {
	col docstore.Collection
}

func NewOrderRepository(store docstore.Store) *OrderRepository {
	return &OrderRepository{col: store.Collection(models.OrdersCollection)}
}

// Create inserts o and returns its id.
func (r *OrderRepository) Create(ctx context.Context, o models.Order) (string, error) {
	defer metrics.ObserveStoreOp(models.OrdersCollection, "add", time.Now())
	return r.col.Add(ctx, o)
}

func (r *OrderRepository) Get(ctx context.Context, id string) (models.Order, error) {
	defer metrics.ObserveStoreOp(models.OrdersCollection, "get", time.Now())
	var o models.Order
	err := r.col.Get(ctx, id, &o)
	return o, err
}

// ListByStatus returns the orders in status, newest first.
func (r *OrderRepository) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return r.find(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("status", docstore.Eq, string(status))},
		Sort:    []docstore.Sort{{Field: "createdAt", Desc: true}},
	})
}

// ListByUser returns the orders placed by uid, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, uid string) ([]models.Order, error) {
	return r.find(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("userId", docstore.Eq, uid)},
		Sort:    []docstore.Sort{{Field: "createdAt", Desc: true}},
	})
}

// ListConfirmedBetween returns confirmed orders created in [from, to], or
// in [from, to) when openEnd is set.
func (r *OrderRepository) ListConfirmedBetween(ctx context.Context, from, to time.Time, openEnd bool) ([]models.Order, error) {
	end := docstore.Lte
	if openEnd {
		end = docstore.Lt
	}
	return r.find(ctx, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Where("status", docstore.Eq, string(models.StatusConfirmed)),
			docstore.Where("createdAt", docstore.Gte, from),
			docstore.Where("createdAt", end, to),
		},
	})
}

func (r *OrderRepository) All(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, docstore.Query{})
}

// UpdateStatus moves the order from one status to another. It fails with
// docstore.ErrPrecondition when the stored status is no longer from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	defer metrics.ObserveStoreOp(models.OrdersCollection, "update", time.Now())
	return r.col.Update(ctx, id,
		map[string]any{"status": string(to)},
		docstore.Where("status", docstore.Eq, string(from)),
	)
}

// IDsOwnedBy returns the ids of every order placed by uid.
func (r *OrderRepository) IDsOwnedBy(ctx context.Context, uid string) ([]string, error) {
	defer metrics.ObserveStoreOp(models.OrdersCollection, "ids", time.Now())
	return r.col.IDs(ctx, docstore.Where("userId", docstore.Eq, uid))
}

// DeleteIDs removes ids in one batch.
func (r *OrderRepository) DeleteIDs(ctx context.Context, ids []string) error {
	defer metrics.ObserveStoreOp(models.OrdersCollection, "batch_delete", time.Now())
	return r.col.BatchDelete(ctx, ids)
}

func (r *OrderRepository) find(ctx context.Context, q docstore.Query) ([]models.Order, error) {
	defer metrics.ObserveStoreOp(models.OrdersCollection, "find", time.Now())
	var list []models.Order
	if err := r.col.Find(ctx, q, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}
