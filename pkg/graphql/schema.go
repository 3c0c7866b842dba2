// Package graphql serves a graphql-go schema over HTTP.
package graphql

import (
	"github.com/graphql-go/graphql"
)

// NewSchema creates a read-only schema from a root query. Mutations are not
// exposed.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}
