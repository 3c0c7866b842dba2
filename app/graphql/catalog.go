package graphql

import (
	"context"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/services"
)

// ServiceCatalog adapts the application services to Catalog.
type ServiceCatalog struct {
	MenuService      *services.MenuService
	PromotionService *services.PromotionService
	ReviewService    *services.ReviewService
}

func (s ServiceCatalog) Menu(ctx context.Context) ([]models.MenuItem, error) {
	return s.MenuService.List(ctx)
}

func (s ServiceCatalog) ActivePromotions(ctx context.Context) ([]models.Promotion, error) {
	return s.PromotionService.ListActive(ctx)
}

func (s ServiceCatalog) Reviews(ctx context.Context, limit int) ([]models.Review, error) {
	return s.ReviewService.List(ctx, limit)
}
