// Package docstoretest wraps a docstore.Store so tests can make individual
// collection operations fail.
package docstoretest

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/grinfood/pkg/docstore"
)

// Op names a Collection method.
type Op string

const (
	OpAdd         Op = "Add"
	OpSet         Op = "Set"
	OpGet         Op = "Get"
	OpUpdate      Op = "Update"
	OpDelete      Op = "Delete"
	OpFind        Op = "Find"
	OpIDs         Op = "IDs"
	OpBatchDelete Op = "BatchDelete"
)

// FaultStore delegates to an inner Store, returning injected errors for the
// (collection, op) pairs registered with Fail.
type FaultStore struct {
	docstore.Store

	mu     sync.Mutex
	faults map[string]error
	calls  map[string]int
}

// Wrap returns a FaultStore around inner.
func Wrap(inner docstore.Store) *FaultStore {
	return &FaultStore{Store: inner, faults: map[string]error{}, calls: map[string]int{}}
}

func key(collection string, op Op) string { return collection + "." + string(op) }

// Fail makes every op on collection return err until Heal is called.
func (f *FaultStore) Fail(collection string, op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[key(collection, op)] = err
}

// Heal clears all injected faults.
func (f *FaultStore) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = map[string]error{}
}

// Calls reports how many times op was attempted on collection.
func (f *FaultStore) Calls(collection string, op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key(collection, op)]
}

func (f *FaultStore) check(collection string, op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(collection, op)
	f.calls[k]++
	return f.faults[k]
}

func (f *FaultStore) Collection(name string) docstore.Collection {
	return &faultCollection{inner: f.Store.Collection(name), store: f, name: name}
}

type faultCollection struct {
	inner docstore.Collection
	store *FaultStore
	name  string
}

func (c *faultCollection) Add(ctx context.Context, doc any) (string, error) {
	if err := c.store.check(c.name, OpAdd); err != nil {
		return "", err
	}
	return c.inner.Add(ctx, doc)
}

func (c *faultCollection) Set(ctx context.Context, id string, doc any) error {
	if err := c.store.check(c.name, OpSet); err != nil {
		return err
	}
	return c.inner.Set(ctx, id, doc)
}

func (c *faultCollection) Get(ctx context.Context, id string, dest any) error {
	if err := c.store.check(c.name, OpGet); err != nil {
		return err
	}
	return c.inner.Get(ctx, id, dest)
}

func (c *faultCollection) Update(ctx context.Context, id string, fields map[string]any, pre ...docstore.Filter) error {
	if err := c.store.check(c.name, OpUpdate); err != nil {
		return err
	}
	return c.inner.Update(ctx, id, fields, pre...)
}

func (c *faultCollection) Delete(ctx context.Context, id string) error {
	if err := c.store.check(c.name, OpDelete); err != nil {
		return err
	}
	return c.inner.Delete(ctx, id)
}

func (c *faultCollection) Find(ctx context.Context, q docstore.Query, dest any) error {
	if err := c.store.check(c.name, OpFind); err != nil {
		return err
	}
	return c.inner.Find(ctx, q, dest)
}

func (c *faultCollection) IDs(ctx context.Context, filters ...docstore.Filter) ([]string, error) {
	if err := c.store.check(c.name, OpIDs); err != nil {
		return nil, err
	}
	return c.inner.IDs(ctx, filters...)
}

func (c *faultCollection) BatchDelete(ctx context.Context, ids []string) error {
	if err := c.store.check(c.name, OpBatchDelete); err != nil {
		return err
	}
	return c.inner.BatchDelete(ctx, ids)
}
