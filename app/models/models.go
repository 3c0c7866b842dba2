// Package models holds the documents persisted by the repositories and the
// input payloads bound by the controllers.
package models

// Collection names.
const (
	OrdersCollection       = "orders"
	PromotionsCollection   = "promotions"
	ReviewsCollection      = "reviews"
	MenuCollection         = "menu"
	RolesCollection        = "roles"
	PurgeBacklogCollection = "purge_backlog"
)
