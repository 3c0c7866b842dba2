package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
)

type ReviewRepository struct {
	col docstore.Collection
}

func NewReviewRepository(store docstore.Store) *ReviewRepository {
	return &ReviewRepository{col: store.Collection(models.ReviewsCollection)}
}

func (r *ReviewRepository) Create(ctx context.Context, rv models.Review) (string, error) {
	defer metrics.ObserveStoreOp(models.ReviewsCollection, "add", time.Now())
	return r.col.Add(ctx, rv)
}

func (r *ReviewRepository) Get(ctx context.Context, id string) (models.Review, error) {
	defer metrics.ObserveStoreOp(models.ReviewsCollection, "get", time.Now())
	var rv models.Review
	err := r.col.Get(ctx, id, &rv)
	return rv, err
}

// List returns every review, newest first. limit <= 0 means no limit.
func (r *ReviewRepository) List(ctx context.Context, limit int) ([]models.Review, error) {
	defer metrics.ObserveStoreOp(models.ReviewsCollection, "find", time.Now())
	var list []models.Review
	err := r.col.Find(ctx, docstore.Query{
		Sort:  []docstore.Sort{{Field: "createdAt", Desc: true}},
		Limit: limit,
	}, &list)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Review{}
	}
	return list, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveStoreOp(models.ReviewsCollection, "delete", time.Now())
	return r.col.Delete(ctx, id)
}

func (r *ReviewRepository) IDsOwnedBy(ctx context.Context, uid string) ([]string, error) {
	defer metrics.ObserveStoreOp(models.ReviewsCollection, "ids", time.Now())
	return r.col.IDs(ctx, docstore.Where("userId", docstore.Eq, uid))
}

func (r *ReviewRepository) DeleteIDs(ctx context.Context, ids []string) error {
	defer metrics.ObserveStoreOp(models.ReviewsCollection, "batch_delete", time.Now())
	return r.col.BatchDelete(ctx, ids)
}
