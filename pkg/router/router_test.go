package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestGroupsAndNamedRoutes(t *testing.T) {
	r := router.New()
	api := r.Group("/api")
	api.Get("/promotions", "promotions.active", ok)
	api.Group("/orders").Patch("/{id}/status", "orders.transition", ok)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/orders/o1/status", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	u, err := r.URL("orders.transition", map[string]string{"id": "o1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/o1/status", u)

	_, err = r.URL("orders.transition", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestGroupMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(tag string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, tag)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := router.New()
	g := r.Group("/api", mw("auth"))
	g.Group("/", mw("role")).Delete("/menu/{id}", "menu.delete", ok, mw("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/menu/1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"auth", "role", "route"}, order)
}

func TestRoutesTable(t *testing.T) {
	r := router.New()
	r.Get("/", "home", ok)
	r.Handle("/metrics", "metrics", http.HandlerFunc(ok))
	api := r.Group("/api")
	api.Post("/orders", "orders.create", ok)
	api.Put("/menu/{id}", "", ok)

	routes := r.Routes()
	require.Len(t, routes, 4)
	assert.Equal(t, router.RouteInfo{Method: http.MethodGet, Path: "/", Name: "home"}, routes[0])
	assert.Equal(t, "/api/menu/{id}", routes[1].Path)
	assert.Equal(t, "", routes[1].Name)
	assert.Equal(t, "/metrics", routes[3].Path)
	assert.Equal(t, "*", routes[3].Method)
}
