package docstore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Memory is an in-process Store. It is the default for tests and for
// STORE_DRIVER=memory; every write is serialised behind one mutex, so
// conditional updates and batch deletes are trivially atomic.
type Memory struct {
	mu     sync.RWMutex
	cols   map[string]*memCollection
	unique map[string][]string
}

type memCollection struct {
	store *Memory
	name  string
	docs  map[string]bson.M
	order []string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cols:   make(map[string]*memCollection),
		unique: make(map[string][]string),
	}
}

func (m *Memory) Collection(name string) Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collection(name)
}

// collection must be called with m.mu held for writing.
func (m *Memory) collection(name string) *memCollection {
	c, ok := m.cols[name]
	if !ok {
		c = &memCollection{store: m, name: name, docs: make(map[string]bson.M)}
		m.cols[name] = c
	}
	return c
}

func (m *Memory) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !unique {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.unique[collection] {
		if f == field {
			return nil
		}
	}
	m.unique[collection] = append(m.unique[collection], field)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }
func (m *Memory) Close(_ context.Context) error  { return nil }

func (c *memCollection) Add(ctx context.Context, doc any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d, err := toDoc(doc)
	if err != nil {
		return "", err
	}
	id := ensureID(d)

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if _, exists := c.docs[id]; exists {
		return "", ErrDuplicate
	}
	if err := c.put(id, d); err != nil {
		return "", err
	}
	return id, nil
}

func (c *memCollection) Set(ctx context.Context, id string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := toDoc(doc)
	if err != nil {
		return err
	}
	d[IDField] = id

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.put(id, d)
}

// put must be called with the store lock held.
func (c *memCollection) put(id string, d bson.M) error {
	if uniqueViolation(c.docs, d, c.store.unique[c.name]) {
		return ErrDuplicate
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = d
	return nil
}

func (c *memCollection) Get(ctx context.Context, id string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.RLock()
	d, ok := c.docs[id]
	c.store.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return decodeOne(d, dest)
}

func (c *memCollection) Update(ctx context.Context, id string, fields map[string]any, preconditions ...Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	d, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	if !matches(d, preconditions) {
		return ErrPrecondition
	}
	merged, err := mergeFields(d, fields)
	if err != nil {
		return err
	}
	return c.put(id, merged)
}

func (c *memCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.remove(id)
	return nil
}

func (c *memCollection) remove(id string) {
	if _, ok := c.docs[id]; !ok {
		return
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// snapshot returns the documents in insertion order. Stored maps are never
// mutated after insertion, so callers may read them without the lock.
func (c *memCollection) snapshot() []bson.M {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	out := make([]bson.M, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.docs[id])
	}
	return out
}

func (c *memCollection) Find(ctx context.Context, q Query, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return decodeAll(selectDocs(c.snapshot(), q), dest)
}

func (c *memCollection) IDs(ctx context.Context, filters ...Filter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs := selectDocs(c.snapshot(), Query{Filters: filters})
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d[IDField].(string))
	}
	return ids, nil
}

func (c *memCollection) BatchDelete(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	for _, id := range ids {
		c.remove(id)
	}
	return nil
}
