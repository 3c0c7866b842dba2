package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/auth"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/docstore/docstoretest"
	"github.com/shashiranjanraj/grinfood/pkg/event"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
	"github.com/shashiranjanraj/grinfood/pkg/queue"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

var (
	epoch   = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	manager = rbac.Subject{ID: "mgr-1"}
	alice   = rbac.Subject{ID: "alice"}
	nobody  = rbac.Subject{}
)

type env struct {
	store      *docstoretest.FaultStore
	identities *identity.Local
	roles      *repositories.RoleStore
	jobs       *recordingDispatcher
	events     *recordingPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := docstoretest.Wrap(docstore.NewMemory())
	signer := auth.NewSigner("test-secret", time.Hour)
	ids, err := identity.NewLocal(context.Background(), store, signer, "https://grinfood.test")
	require.NoError(t, err)
	return &env{
		store:      store,
		identities: ids,
		roles:      repositories.NewRoleStore(store).WithBackOff(repositories.NoDelay),
		jobs:       &recordingDispatcher{},
		events:     &recordingPublisher{},
	}
}

// signup creates an identity with a role and returns its subject.
func (e *env) signup(t *testing.T, email, name string, role rbac.Role) rbac.Subject {
	t.Helper()
	id, err := e.identities.Create(context.Background(), email, "secret", name)
	require.NoError(t, err)
	require.NoError(t, e.roles.Assign(context.Background(), id.UID, role))
	return rbac.Subject{ID: id.UID}
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []queue.Job
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job queue.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, job)
	return nil
}

func (d *recordingDispatcher) Jobs() []queue.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]queue.Job(nil), d.sent...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) FireAsync(_ context.Context, name string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.Event{Name: name, Payload: payload})
}

func (p *recordingPublisher) Events() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}
