package models

import "time"

// Review is customer feedback. UserID is the author.
type Review struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	UserID         string    `bson:"userId" json:"userId"`
	UserName       string    `bson:"userName" json:"userName"`
	Comment        string    `bson:"comment" json:"comment"`
	RatingMenu     float64   `bson:"ratingMenu" json:"ratingMenu"`
	RatingStaff    float64   `bson:"ratingStaff" json:"ratingStaff"`
	RatingDelivery float64   `bson:"ratingDelivery" json:"ratingDelivery"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

type ReviewInput struct {
	Comment        string   `json:"comment"`
	RatingMenu     *float64 `json:"ratingMenu" validate:"required"`
	RatingStaff    *float64 `json:"ratingStaff" validate:"required"`
	RatingDelivery *float64 `json:"ratingDelivery" validate:"required"`
}
