package graphql_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/app/graphql"
	"github.com/shashiranjanraj/grinfood/app/models"
	pkggraphql "github.com/shashiranjanraj/grinfood/pkg/graphql"
)

type stubCatalog struct {
	menu   []models.MenuItem
	promos []models.Promotion
	limits []int
}

func (s *stubCatalog) Menu(context.Context) ([]models.MenuItem, error) { return s.menu, nil }

func (s *stubCatalog) ActivePromotions(context.Context) ([]models.Promotion, error) {
	return s.promos, nil
}

func (s *stubCatalog) Reviews(_ context.Context, limit int) ([]models.Review, error) {
	s.limits = append(s.limits, limit)
	return []models.Review{{ID: "r1", UserName: "Alice", RatingMenu: 5}}, nil
}

func query(t *testing.T, c graphql.Catalog, q string) string {
	t.Helper()
	schema, err := graphql.NewSchema(c)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	body := `{"query":` + strings.ReplaceAll(`"`+q+`"`, "\n", " ") + `}`
	pkggraphql.Handler(schema).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMenuQueryFiltersByCategory(t *testing.T) {
	c := &stubCatalog{menu: []models.MenuItem{
		{ID: "1", Name: "Borscht", Category: "soups", Price: 120},
		{ID: "2", Name: "Varenyky", Category: "mains", Price: 95.5},
	}}

	out := query(t, c, `{ menu(category: \"mains\") { id name price } }`)
	assert.JSONEq(t, `{"data":{"menu":[{"id":"2","name":"Varenyky","price":95.5}]}}`, out)

	out = query(t, c, `{ menu { name } }`)
	assert.JSONEq(t, `{"data":{"menu":[{"name":"Borscht"},{"name":"Varenyky"}]}}`, out)
}

func TestPromotionsAndReviews(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &stubCatalog{promos: []models.Promotion{{ID: "p1", Title: "Winter", StartDate: start}}}

	out := query(t, c, `{ activePromotions { title startDate } reviews { userName ratingMenu } }`)
	assert.JSONEq(t, `{"data":{
		"activePromotions":[{"title":"Winter","startDate":"2025-01-01T00:00:00Z"}],
		"reviews":[{"userName":"Alice","ratingMenu":5}]
	}}`, out)
	assert.Equal(t, []int{20}, c.limits, "default limit")

	query(t, c, `{ reviews(limit: 3) { id } }`)
	assert.Equal(t, []int{20, 3}, c.limits)
}
