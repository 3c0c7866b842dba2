package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
)

// BacklogRepository stores the purge steps awaiting retry.
type BacklogRepository struct {
	col docstore.Collection
	now func() time.Time
}

func NewBacklogRepository(store docstore.Store) *BacklogRepository {
	return &BacklogRepository{col: store.Collection(models.PurgeBacklogCollection), now: time.Now}
}

// Record replaces the pending collections for uid and bumps the attempt
// counter. An empty list clears the entry.
func (r *BacklogRepository) Record(ctx context.Context, uid string, collections []string, cause error) error {
	if len(collections) == 0 {
		return r.col.Delete(ctx, uid)
	}
	now := r.now().UTC()
	entry := models.PurgeBacklog{SubjectID: uid, CreatedAt: now}
	var prev models.PurgeBacklog
	switch err := r.col.Get(ctx, uid, &prev); {
	case err == nil:
		entry.CreatedAt = prev.CreatedAt
		entry.Attempts = prev.Attempts
	case !errors.Is(err, docstore.ErrNotFound):
		return err
	}
	entry.Collections = collections
	entry.Attempts++
	entry.UpdatedAt = now
	if cause != nil {
		entry.LastError = cause.Error()
	}
	return r.col.Set(ctx, uid, entry)
}

// Pending returns every backlog entry, oldest first.
func (r *BacklogRepository) Pending(ctx context.Context) ([]models.PurgeBacklog, error) {
	var list []models.PurgeBacklog
	if err := r.col.Find(ctx, docstore.Query{Sort: []docstore.Sort{{Field: "createdAt"}}}, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.PurgeBacklog{}
	}
	return list, nil
}

func (r *BacklogRepository) Clear(ctx context.Context, uid string) error {
	return r.col.Delete(ctx, uid)
}
