package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
)

type MenuRepository struct {
	col        docstore.Collection
	newBackOff BackOffFunc
}

func NewMenuRepository(store docstore.Store) *MenuRepository {
	return &MenuRepository{
		col:        store.Collection(models.MenuCollection),
		newBackOff: DefaultBackOff,
	}
}

func (r *MenuRepository) WithBackOff(f BackOffFunc) *MenuRepository {
	r.newBackOff = f
	return r
}

func (r *MenuRepository) Create(ctx context.Context, m models.MenuItem) (string, error) {
	defer metrics.ObserveStoreOp(models.MenuCollection, "add", time.Now())
	return r.col.Add(ctx, m)
}

func (r *MenuRepository) Get(ctx context.Context, id string) (models.MenuItem, error) {
	defer metrics.ObserveStoreOp(models.MenuCollection, "get", time.Now())
	var m models.MenuItem
	err := r.col.Get(ctx, id, &m)
	return m, err
}

// Update sets fields on the item under id.
func (r *MenuRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	defer metrics.ObserveStoreOp(models.MenuCollection, "update", time.Now())
	return r.col.Update(ctx, id, fields)
}

func (r *MenuRepository) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveStoreOp(models.MenuCollection, "delete", time.Now())
	return r.col.Delete(ctx, id)
}

// All returns the menu ordered by category, then name.
func (r *MenuRepository) All(ctx context.Context) ([]models.MenuItem, error) {
	defer metrics.ObserveStoreOp(models.MenuCollection, "find", time.Now())
	var list []models.MenuItem
	err := retryRead(ctx, r.newBackOff, func() error {
		list = nil
		return r.col.Find(ctx, docstore.Query{
			Sort: []docstore.Sort{{Field: "category"}, {Field: "name"}},
		}, &list)
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.MenuItem{}
	}
	return list, nil
}
