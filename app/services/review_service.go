package services

import (
	"context"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

type ReviewService struct {
	reviews    *repositories.ReviewRepository
	identities identity.Provider
	now        func() time.Time
}

func NewReviewService(reviews *repositories.ReviewRepository, identities identity.Provider) *ReviewService {
	return &ReviewService{reviews: reviews, identities: identities, now: time.Now}
}

func (s *ReviewService) WithClock(now func() time.Time) *ReviewService {
	s.now = now
	return s
}

// Add stores a review signed with the author's display name, or their
// email when they have none.
func (s *ReviewService) Add(ctx context.Context, subject rbac.Subject, in models.ReviewInput) (models.Review, error) {
	const op = "reviews.add"
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return models.Review{}, err
	}
	if err := check(in); err != nil {
		return models.Review{}, err
	}
	author, err := s.identities.Get(ctx, subject.ID)
	if err != nil {
		return models.Review{}, identityErr(op, err)
	}
	rv := models.Review{
		UserID:         subject.ID,
		UserName:       displayName(author),
		Comment:        in.Comment,
		RatingMenu:     *in.RatingMenu,
		RatingStaff:    *in.RatingStaff,
		RatingDelivery: *in.RatingDelivery,
		CreatedAt:      s.now().UTC(),
	}
	id, err := s.reviews.Create(ctx, rv)
	if err != nil {
		return models.Review{}, apperr.Collaborator(op, err)
	}
	rv.ID = id
	return rv, nil
}

// List returns all reviews, newest first. limit <= 0 means all.
func (s *ReviewService) List(ctx context.Context, limit int) ([]models.Review, error) {
	list, err := s.reviews.List(ctx, limit)
	if err != nil {
		return nil, apperr.Collaborator("reviews.list", err)
	}
	return list, nil
}

// Delete removes a review. The author and managers may delete it.
func (s *ReviewService) Delete(ctx context.Context, subject rbac.Subject, role rbac.Role, id string) error {
	const op = "reviews.delete"
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return err
	}
	rv, err := s.reviews.Get(ctx, id)
	if err != nil {
		return storeErr(op, "Review", err)
	}
	if err := rbac.Authorize(subject, role, rbac.OwnOrManage, rv.UserID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return apperr.Collaborator(op, err)
	}
	return nil
}
