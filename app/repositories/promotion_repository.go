package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
)

type PromotionRepository struct {
	col        docstore.Collection
	newBackOff BackOffFunc
}

func NewPromotionRepository(store docstore.Store) *PromotionRepository {
	return &PromotionRepository{
		col:        store.Collection(models.PromotionsCollection),
		newBackOff: DefaultBackOff,
	}
}

// WithBackOff replaces the retry policy used by the list queries.
func (r *PromotionRepository) WithBackOff(f BackOffFunc) *PromotionRepository {
	r.newBackOff = f
	return r
}

func (r *PromotionRepository) Create(ctx context.Context, p models.Promotion) (string, error) {
	defer metrics.ObserveStoreOp(models.PromotionsCollection, "add", time.Now())
	return r.col.Add(ctx, p)
}

func (r *PromotionRepository) Get(ctx context.Context, id string) (models.Promotion, error) {
	defer metrics.ObserveStoreOp(models.PromotionsCollection, "get", time.Now())
	var p models.Promotion
	err := r.col.Get(ctx, id, &p)
	return p, err
}

// Update overwrites the editable fields of the promotion under id.
func (r *PromotionRepository) Update(ctx context.Context, id string, p models.Promotion) error {
	defer metrics.ObserveStoreOp(models.PromotionsCollection, "update", time.Now())
	return r.col.Update(ctx, id, map[string]any{
		"title":       p.Title,
		"description": p.Description,
		"image":       p.Image,
		"active":      p.Active,
		"startDate":   p.StartDate,
		"endDate":     p.EndDate,
	})
}

func (r *PromotionRepository) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveStoreOp(models.PromotionsCollection, "delete", time.Now())
	return r.col.Delete(ctx, id)
}

// All returns every promotion, latest start first.
func (r *PromotionRepository) All(ctx context.Context) ([]models.Promotion, error) {
	return r.find(ctx, docstore.Query{
		Sort: []docstore.Sort{{Field: "startDate", Desc: true}},
	})
}

// ActiveAt returns the flagged promotions whose window contains t, latest
// start first.
func (r *PromotionRepository) ActiveAt(ctx context.Context, t time.Time) ([]models.Promotion, error) {
	return r.find(ctx, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Where("active", docstore.Eq, true),
			docstore.Where("startDate", docstore.Lte, t),
			docstore.Where("endDate", docstore.Gte, t),
		},
		Sort: []docstore.Sort{{Field: "startDate", Desc: true}},
	})
}

func (r *PromotionRepository) find(ctx context.Context, q docstore.Query) ([]models.Promotion, error) {
	defer metrics.ObserveStoreOp(models.PromotionsCollection, "find", time.Now())
	var list []models.Promotion
	err := retryRead(ctx, r.newBackOff, func() error {
		list = nil
		return r.col.Find(ctx, q, &list)
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Promotion{}
	}
	return list, nil
}
