package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/collection"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
	"github.com/shashiranjanraj/grinfood/pkg/validate"
)

type ProductCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Revenue struct {
	TotalRevenue float64 `json:"totalRevenue"`
	OrderCount   int     `json:"orderCount"`
}

type RevenueQuery struct {
	StartDate string `json:"startDate" validate:"required,date"`
	EndDate   string `json:"endDate" validate:"required,date"`
}

// StatsService computes the manager dashboards from the orders collection.
type StatsService struct {
	orders *repositories.OrderRepository
}

func NewStatsService(orders *repositories.OrderRepository) *StatsService {
	return &StatsService{orders: orders}
}

// PopularProducts sums item quantities by name over all orders, most
// ordered first. An item without a quantity counts once.
func (s *StatsService) PopularProducts(ctx context.Context, subject rbac.Subject, role rbac.Role) ([]ProductCount, error) {
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return nil, err
	}
	orders, err := s.orders.All(ctx)
	if err != nil {
		return nil, apperr.Collaborator("stats.popular_products", err)
	}
	counts := map[string]int{}
	for _, o := range orders {
		for _, it := range o.Items {
			q := it.Quantity
			if q <= 0 {
				q = 1
			}
			counts[it.Name] += q
		}
	}
	out := make([]ProductCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, ProductCount{Name: name, Count: n})
	}
	return collection.SortBy(out, func(a, b ProductCount) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	}), nil
}

// Revenue totals the confirmed orders created within the query window. A
// date-only end date covers that whole day: the window ends before the next
// midnight UTC. An end timestamp is inclusive.
func (s *StatsService) Revenue(ctx context.Context, subject rbac.Subject, role rbac.Role, q RevenueQuery) (Revenue, error) {
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return Revenue{}, err
	}
	if err := check(q); err != nil {
		return Revenue{}, err
	}
	from, _ := validate.ParseDate(q.StartDate)
	to, _ := validate.ParseDate(q.EndDate)
	if to.Before(from) {
		return Revenue{}, apperr.Field("endDate", "The endDate must not be before the startDate.")
	}
	wholeDay := isDateOnly(q.EndDate)
	if wholeDay {
		to = to.AddDate(0, 0, 1)
	}

	orders, err := s.orders.ListConfirmedBetween(ctx, from, to, wholeDay)
	if err != nil {
		return Revenue{}, apperr.Collaborator("stats.revenue", err)
	}
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(decimal.NewFromFloat(o.Total))
	}
	return Revenue{TotalRevenue: sum.Round(2).InexactFloat64(), OrderCount: len(orders)}, nil
}

func isDateOnly(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
