package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s OrderStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

type OrderItem struct {
	Name     string  `bson:"name" json:"name" validate:"required"`
	Quantity int     `bson:"quantity,omitempty" json:"quantity,omitempty" validate:"gte=0"`
	Price    float64 `bson:"price" json:"price" validate:"gte=0"`
}

type Customer struct {
	Name  string `bson:"name" json:"name" validate:"required"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty" validate:"nullable,email"`
}

// Order is a customer order. UserID is set at creation and never updated.
type Order struct {
	ID            string      `bson:"_id,omitempty" json:"id"`
	Items         []OrderItem `bson:"items" json:"items"`
	Total         float64     `bson:"total" json:"total"`
	Customer      Customer    `bson:"customer" json:"customer"`
	Address       string      `bson:"address" json:"address"`
	PaymentMethod string      `bson:"paymentMethod" json:"paymentMethod"`
	UserID        string      `bson:"userId" json:"userId"`
	Status        OrderStatus `bson:"status" json:"status"`
	CreatedAt     time.Time   `bson:"createdAt" json:"createdAt"`
}

// OrderInput is the payload accepted by order creation.
type OrderInput struct {
	Items         []OrderItem `json:"items" validate:"required,min=1,dive"`
	Total         float64     `json:"total" validate:"required,gt=0"`
	Customer      *Customer   `json:"customer" validate:"required,dive"`
	Address       string      `json:"address" validate:"required"`
	PaymentMethod string      `json:"paymentMethod" validate:"required"`
}

// StatusInput is the payload of a status transition.
type StatusInput struct {
	Status OrderStatus `json:"status"`
}
