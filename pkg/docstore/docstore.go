// Package docstore is the document-store boundary used by every repository.
//
// A Store is a set of named collections of schemaless documents keyed by a
// string id. Documents go in and out as Go structs carrying bson tags; the
// MongoDB backend stores them natively, the SQL backend (gorm) stores them as
// canonical extended JSON, and the memory backend keeps decoded bson.M maps.
// All three share the bson codec, so a struct round-trips identically
// through any backend.
//
//	orders := store.Collection("orders")
//	id, err := orders.Add(ctx, order)
//	err = orders.Find(ctx, docstore.Query{
//	    Filters: []docstore.Filter{docstore.Where("status", docstore.Eq, "pending")},
//	    Sort:    []docstore.Sort{{Field: "createdAt", Desc: true}},
//	}, &list)
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get and Update when no document has the id.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrPrecondition is returned by Update when the document exists but
	// does not satisfy the supplied preconditions.
	ErrPrecondition = errors.New("docstore: precondition failed")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("docstore: duplicate key")
)

// IDField is the stored name of the document id.
const IDField = "_id"

// Op is a comparison operator used in filters.
type Op string

const (
	Eq  Op = "=="
	Lt  Op = "<"
	Lte Op = "<="
	Gt  Op = ">"
	Gte Op = ">="
)

// Filter compares a top-level document field against a value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Sort orders query results by a field.
type Sort struct {
	Field string
	Desc  bool
}

// Query selects documents from a collection. Documents missing a filtered
// field never match; documents missing a sort field sort as the lowest value.
type Query struct {
	Filters []Filter
	Sort    []Sort
	Limit   int
}

// Collection is a named set of documents.
type Collection interface {
	// Add inserts doc, assigning a fresh id unless doc already carries one,
	// and returns the id.
	Add(ctx context.Context, doc any) (string, error)
	// Set creates or replaces the document stored under id.
	Set(ctx context.Context, id string, doc any) error
	// Get decodes the document stored under id into dest.
	Get(ctx context.Context, id string, dest any) error
	// Update sets fields on the document under id. When preconditions are
	// given the write only happens if the stored document matches all of
	// them, atomically with respect to other writers.
	Update(ctx context.Context, id string, fields map[string]any, preconditions ...Filter) error
	// Delete removes the document under id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	// Find decodes every document matching q into dest, a pointer to a slice.
	Find(ctx context.Context, q Query, dest any) error
	// IDs returns the ids of all documents matching filters.
	IDs(ctx context.Context, filters ...Filter) ([]string, error)
	// BatchDelete removes all ids in one all-or-nothing batch.
	BatchDelete(ctx context.Context, ids []string) error
}

// Store is a document database.
type Store interface {
	Collection(name string) Collection
	// EnsureIndex declares an index on a top-level field. Unique indexes are
	// enforced by every backend.
	EnsureIndex(ctx context.Context, collection, field string, unique bool) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
