package services

import (
	"context"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
	"github.com/shashiranjanraj/grinfood/pkg/validate"
)

// PromotionService manages promotions and answers which ones are live.
type PromotionService struct {
	promos *repositories.PromotionRepository
	now    func() time.Time
}

func NewPromotionService(promos *repositories.PromotionRepository) *PromotionService {
	return &PromotionService{promos: promos, now: time.Now}
}

// WithClock replaces the clock used by ListActive and for createdAt.
func (s *PromotionService) WithClock(now func() time.Time) *PromotionService {
	s.now = now
	return s
}

func (s *PromotionService) Create(ctx context.Context, subject rbac.Subject, role rbac.Role, in models.PromotionInput) (models.Promotion, error) {
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return models.Promotion{}, err
	}
	p, err := promotionFrom(in)
	if err != nil {
		return models.Promotion{}, err
	}
	p.CreatedAt = s.now().UTC()
	id, err := s.promos.Create(ctx, p)
	if err != nil {
		return models.Promotion{}, apperr.Collaborator("promotions.create", err)
	}
	p.ID = id
	return p, nil
}

func (s *PromotionService) Update(ctx context.Context, subject rbac.Subject, role rbac.Role, id string, in models.PromotionInput) (models.Promotion, error) {
	const op = "promotions.update"
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return models.Promotion{}, err
	}
	p, err := promotionFrom(in)
	if err != nil {
		return models.Promotion{}, err
	}
	if err := s.promos.Update(ctx, id, p); err != nil {
		return models.Promotion{}, storeErr(op, "Promotion", err)
	}
	stored, err := s.promos.Get(ctx, id)
	if err != nil {
		return models.Promotion{}, storeErr(op, "Promotion", err)
	}
	return stored, nil
}

func (s *PromotionService) Delete(ctx context.Context, subject rbac.Subject, role rbac.Role, id string) error {
	const op = "promotions.delete"
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return err
	}
	if _, err := s.promos.Get(ctx, id); err != nil {
		return storeErr(op, "Promotion", err)
	}
	if err := s.promos.Delete(ctx, id); err != nil {
		return apperr.Collaborator(op, err)
	}
	return nil
}

// ListAll returns every promotion, latest start first. Managers only.
func (s *PromotionService) ListAll(ctx context.Context, subject rbac.Subject, role rbac.Role) ([]models.Promotion, error) {
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return nil, err
	}
	list, err := s.promos.All(ctx)
	if err != nil {
		return nil, apperr.Collaborator("promotions.list_all", err)
	}
	return list, nil
}

// ListActive returns the promotions live at the service clock's instant.
func (s *PromotionService) ListActive(ctx context.Context) ([]models.Promotion, error) {
	list, err := s.promos.ActiveAt(ctx, s.now().UTC())
	if err != nil {
		return nil, apperr.Collaborator("promotions.list_active", err)
	}
	return list, nil
}

func promotionFrom(in models.PromotionInput) (models.Promotion, error) {
	if err := check(in); err != nil {
		return models.Promotion{}, err
	}
	start, err := validate.ParseDate(in.StartDate)
	if err != nil {
		return models.Promotion{}, apperr.Field("startDate", "The startDate is not a valid date.")
	}
	end, err := validate.ParseDate(in.EndDate)
	if err != nil {
		return models.Promotion{}, apperr.Field("endDate", "The endDate is not a valid date.")
	}
	if end.Before(start) {
		return models.Promotion{}, apperr.Field("endDate", "The endDate must not be before the startDate.")
	}
	return models.Promotion{
		Title:       in.Title,
		Description: in.Description,
		Image:       in.Image,
		Active:      bool(in.Active),
		StartDate:   start,
		EndDate:     end,
	}, nil
}
