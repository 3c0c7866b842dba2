package seeders

import (
	"context"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/internal/app"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

func init() {
	Register("menu", SeedMenu)
	Register("promotions", SeedPromotions)
}

var starterMenu = []models.MenuItemInput{
	{Name: "Borscht", Description: "Beetroot soup with sour cream", Price: 145, Category: "soups", Image: "menu/borscht.jpg"},
	{Name: "Varenyky", Description: "Dumplings with potato and fried onion", Price: 160, Category: "mains", Image: "menu/varenyky.jpg"},
	{Name: "Holubtsi", Description: "Cabbage rolls with rice and pork", Price: 185, Category: "mains", Image: "menu/holubtsi.jpg"},
	{Name: "Syrnyky", Description: "Cottage cheese pancakes", Price: 120, Category: "desserts", Image: "menu/syrnyky.jpg"},
	{Name: "Kvas", Description: "Bread kvas, 0.5 l", Price: 55, Category: "drinks", Image: "menu/kvas.jpg"},
}

// SeedMenu creates the starter menu when the menu is empty.
func SeedMenu(ctx context.Context, a *app.Application) error {
	existing, err := a.Menu.List(ctx)
	if err != nil || len(existing) > 0 {
		return err
	}
	for _, in := range starterMenu {
		if _, err := a.Menu.Create(ctx, seedActor, rbac.RoleManager, in); err != nil {
			return err
		}
	}
	return nil
}

// SeedPromotions opens a month-long welcome promotion when none exist.
func SeedPromotions(ctx context.Context, a *app.Application) error {
	existing, err := a.Promotions.ListAll(ctx, seedActor, rbac.RoleManager)
	if err != nil || len(existing) > 0 {
		return err
	}
	start := time.Now().UTC()
	_, err = a.Promotions.Create(ctx, seedActor, rbac.RoleManager, models.PromotionInput{
		Title:       "Welcome to GrinFood",
		Description: "Free kvas with every order over 300 UAH",
		Image:       "promotions/welcome.jpg",
		Active:      true,
		StartDate:   start.Format(time.DateOnly),
		EndDate:     start.AddDate(0, 1, 0).Format(time.DateOnly),
	})
	return err
}
