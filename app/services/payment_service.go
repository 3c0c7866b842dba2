package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/payment"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

// PaymentInput names either an explicit amount in minor units (kopiyky) or
// an order whose total should be charged.
type PaymentInput struct {
	Amount  int64  `json:"amount" validate:"nullable,gt=0"`
	OrderID string `json:"orderId"`
}

type PaymentService struct {
	gateway payment.Gateway
	orders  *repositories.OrderRepository
}

func NewPaymentService(gateway payment.Gateway, orders *repositories.OrderRepository) *PaymentService {
	return &PaymentService{gateway: gateway, orders: orders}
}

// CreateIntent opens a card payment intent in UAH and returns its client
// secret. With an orderId the amount is the order total, and the caller
// must own the order or be a manager.
func (s *PaymentService) CreateIntent(ctx context.Context, subject rbac.Subject, role rbac.Role, in PaymentInput) (string, error) {
	const op = "payments.create_intent"
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return "", err
	}
	if err := check(in); err != nil {
		return "", err
	}
	amount := in.Amount
	if in.OrderID != "" {
		o, err := s.orders.Get(ctx, in.OrderID)
		if err != nil {
			return "", storeErr(op, "Order", err)
		}
		if err := rbac.Authorize(subject, role, rbac.OwnOrManage, o.UserID); err != nil {
			return "", err
		}
		amount = payment.MinorUnits(decimal.NewFromFloat(o.Total))
	}
	if amount <= 0 {
		return "", apperr.Field("amount", "The amount field is required.")
	}
	secret, err := s.gateway.CreatePaymentIntent(ctx, amount, payment.Currency)
	if err != nil {
		return "", apperr.Collaborator(op, err)
	}
	return secret, nil
}
