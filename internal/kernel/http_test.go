package kernel_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/app/controllers"
	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/app/routes"
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/internal/kernel"
	"github.com/shashiranjanraj/grinfood/pkg/auth"
	"github.com/shashiranjanraj/grinfood/pkg/cache"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/event"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
	"github.com/shashiranjanraj/grinfood/pkg/queue"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
	"github.com/shashiranjanraj/grinfood/pkg/sse"
	"github.com/shashiranjanraj/grinfood/pkg/storage"
	"github.com/shashiranjanraj/grinfood/pkg/ws"
)

const appURL = "https://app.grinfood.test"

type harness struct {
	handler http.Handler
	roles   *repositories.RoleStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemory()

	ids, err := identity.NewLocal(ctx, store, auth.NewSigner("test-secret", time.Hour), appURL)
	require.NoError(t, err)
	disk, err := storage.NewLocal(t.TempDir(), "https://cdn.grinfood.test/storage")
	require.NoError(t, err)

	roles := repositories.NewRoleStore(store).WithBackOff(repositories.NoDelay)
	orders := repositories.NewOrderRepository(store)
	reviews := repositories.NewReviewRepository(store)

	accounts := services.NewAccountService(ids, roles, queue.New(queue.NewMemoryDriver()), appURL)
	purge := services.NewPurgeService(ids, roles, orders, reviews, repositories.NewBacklogRepository(store))
	menu := services.NewMenuService(repositories.NewMenuRepository(store).WithBackOff(repositories.NoDelay), cache.NewMemory(), disk)

	api := routes.API{
		Resolver:   services.NewIdentityResolver(ids),
		Roles:      roles,
		Accounts:   controllers.NewAccountController(accounts, purge, appURL),
		Orders:     controllers.NewOrderController(services.NewOrderService(orders, event.New(nil)), nil),
		Menu:       controllers.NewMenuController(menu),
		Promotions: controllers.NewPromotionController(services.NewPromotionService(repositories.NewPromotionRepository(store).WithBackOff(repositories.NoDelay))),
		Reviews:    controllers.NewReviewController(services.NewReviewService(reviews, ids)),
		Stats:      controllers.NewStatsController(services.NewStatsService(orders)),
		Verify:     controllers.NewVerifyController(nil),
		Feed:       controllers.NewFeedController(ws.NewHub(), sse.NewBroker()),
	}
	k := kernel.NewHTTPKernel(api, kernel.Options{RequestTimeout: 5 * time.Second})
	t.Cleanup(k.Close)
	return &harness{handler: k.Handler(), roles: roles}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (h *harness) signup(t *testing.T, email string) (uid, token string) {
	t.Helper()
	rec, body := h.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"name": "Olena", "email": email, "password": "secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["uid"].(string), body["token"].(string)
}

func (h *harness) manager(t *testing.T, email string) string {
	t.Helper()
	uid, token := h.signup(t, email)
	require.NoError(t, h.roles.Assign(context.Background(), uid, rbac.RoleManager))
	return token
}

func TestGlobalStack(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCredentialRejections(t *testing.T) {
	h := newHarness(t)

	rec, body := h.do(t, http.MethodGet, "/api/check-auth", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "no_credential", body["kind"])

	rec, body = h.do(t, http.MethodGet, "/api/check-auth", "not-a-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid_credential", body["kind"])

	_, token := h.signup(t, "olena@example.com")
	rec, body = h.do(t, http.MethodGet, "/api/check-auth", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "olena@example.com", body["email"])
}

func TestManagerOnlyRoutes(t *testing.T) {
	h := newHarness(t)
	_, userToken := h.signup(t, "user@example.com")
	managerToken := h.manager(t, "boss@example.com")

	item := map[string]any{"name": "Borscht", "price": 145, "category": "soups", "image": "menu/borscht.jpg"}

	rec, body := h.do(t, http.MethodPost, "/api/menu", userToken, item)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient_role", body["kind"])

	rec, _ = h.do(t, http.MethodPost, "/api/menu", managerToken, item)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = h.do(t, http.MethodGet, "/api/menu", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Borscht")

	rec, _ = h.do(t, http.MethodGet, "/api/stats/revenue", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	_, userToken := h.signup(t, "user@example.com")
	managerToken := h.manager(t, "boss@example.com")

	rec, order := h.do(t, http.MethodPost, "/api/orders", userToken, map[string]any{
		"items":         []map[string]any{{"name": "Borscht", "quantity": 2, "price": 145}},
		"total":         290,
		"customer":      map[string]any{"name": "Olena", "phone": "+380501234567"},
		"address":       "Khreshchatyk 1",
		"paymentMethod": "cash",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "pending", order["status"])
	id := order["id"].(string)

	rec, _ = h.do(t, http.MethodPatch, "/api/orders/"+id+"/status", userToken, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := h.do(t, http.MethodPatch, "/api/orders/"+id+"/status", managerToken, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", body["status"])

	rec, body = h.do(t, http.MethodPatch, "/api/orders/"+id+"/status", managerToken, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_transition", body["kind"])
}

func TestTransitionTargetIsClassifiedByTheService(t *testing.T) {
	h := newHarness(t)
	_, userToken := h.signup(t, "user@example.com")
	managerToken := h.manager(t, "boss@example.com")

	rec, order := h.do(t, http.MethodPost, "/api/orders", userToken, map[string]any{
		"items":         []map[string]any{{"name": "Borscht", "quantity": 1, "price": 145}},
		"total":         145,
		"customer":      map[string]any{"name": "Olena", "phone": "+380501234567"},
		"address":       "Khreshchatyk 1",
		"paymentMethod": "cash",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	path := "/api/orders/" + order["id"].(string) + "/status"

	for name, payload := range map[string]any{
		"missing": map[string]any{},
		"empty":   map[string]string{"status": ""},
		"unknown": map[string]string{"status": "shipped"},
		"pending": map[string]string{"status": "pending"},
	} {
		t.Run(name, func(t *testing.T) {
			rec, body := h.do(t, http.MethodPatch, path, managerToken, payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_transition", body["kind"])
		})
	}

	// None of the rejected targets touched the order.
	rec, _ = h.do(t, http.MethodGet, "/api/orders/by-status/pending", managerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), order["id"].(string))
}

func TestSelfPurgeRevokesCredential(t *testing.T) {
	h := newHarness(t)
	_, token := h.signup(t, "leaving@example.com")

	rec, _ := h.do(t, http.MethodPost, "/api/delete-user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body := h.do(t, http.MethodGet, "/api/check-auth", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid_credential", body["kind"])
}

func TestRoutesAreNamed(t *testing.T) {
	k := kernel.NewHTTPKernel(routes.API{}, kernel.Options{})
	defer k.Close()

	paths := map[string]string{}
	for _, ri := range k.Routes() {
		paths[ri.Name] = ri.Method + " " + ri.Path
	}
	assert.Equal(t, "PATCH /api/orders/{id}/status", paths["orders.transition"])
	assert.Equal(t, "GET /api/orders/mine/events", paths["orders.mine_events"])
	assert.Equal(t, "GET /ws/orders", paths["orders.feed"])
}
