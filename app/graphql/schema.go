// Package graphql exposes the public catalog over GraphQL: the menu, the
// promotions running now and the latest reviews. Nothing here is
// privileged, so resolvers never look at the caller.
package graphql

import (
	"context"

	gql "github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/pkg/collection"
	"github.com/shashiranjanraj/grinfood/pkg/graphql"
)

// Catalog is what the schema reads from.
type Catalog interface {
	Menu(ctx context.Context) ([]models.MenuItem, error)
	ActivePromotions(ctx context.Context) ([]models.Promotion, error)
	Reviews(ctx context.Context, limit int) ([]models.Review, error)
}

var menuItemType = gql.NewObject(gql.ObjectConfig{
	Name: "MenuItem",
	Fields: gql.Fields{
		"id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"name":        &gql.Field{Type: gql.NewNonNull(gql.String)},
		"description": &gql.Field{Type: gql.String},
		"price":       &gql.Field{Type: gql.NewNonNull(gql.Float)},
		"category":    &gql.Field{Type: gql.String},
		"image":       &gql.Field{Type: gql.String},
	},
})

var promotionType = gql.NewObject(gql.ObjectConfig{
	Name: "Promotion",
	Fields: gql.Fields{
		"id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"title":       &gql.Field{Type: gql.NewNonNull(gql.String)},
		"description": &gql.Field{Type: gql.String},
		"image":       &gql.Field{Type: gql.String},
		"startDate":   &gql.Field{Type: gql.DateTime},
		"endDate":     &gql.Field{Type: gql.DateTime},
	},
})

var reviewType = gql.NewObject(gql.ObjectConfig{
	Name: "Review",
	Fields: gql.Fields{
		"id":             &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"userName":       &gql.Field{Type: gql.String},
		"comment":        &gql.Field{Type: gql.String},
		"ratingMenu":     &gql.Field{Type: gql.Float},
		"ratingStaff":    &gql.Field{Type: gql.Float},
		"ratingDelivery": &gql.Field{Type: gql.Float},
		"createdAt":      &gql.Field{Type: gql.DateTime},
	},
})

// NewSchema builds the read-only schema over c.
func NewSchema(c Catalog) (gql.Schema, error) {
	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"menu": &gql.Field{
				Type: gql.NewList(menuItemType),
				Args: gql.FieldConfigArgument{
					"category": &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: func(p gql.ResolveParams) (any, error) {
					items, err := c.Menu(p.Context)
					if err != nil {
						return nil, err
					}
					category, _ := p.Args["category"].(string)
					if category == "" {
						return items, nil
					}
					return collection.Filter(items, func(it models.MenuItem) bool {
						return it.Category == category
					}), nil
				},
			},
			"activePromotions": &gql.Field{
				Type: gql.NewList(promotionType),
				Resolve: func(p gql.ResolveParams) (any, error) {
					return c.ActivePromotions(p.Context)
				},
			},
			"reviews": &gql.Field{
				Type: gql.NewList(reviewType),
				Args: gql.FieldConfigArgument{
					"limit": &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 20},
				},
				Resolve: func(p gql.ResolveParams) (any, error) {
					limit, _ := p.Args["limit"].(int)
					return c.Reviews(p.Context, limit)
				},
			},
		},
	})
	return graphql.NewSchema(query)
}
