package services

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/event"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

// OrderService owns the order lifecycle: pending on creation, then exactly
// one move to confirmed or cancelled.
type OrderService struct {
	orders *repositories.OrderRepository
	events event.Publisher
	now    func() time.Time
}

func NewOrderService(orders *repositories.OrderRepository, events event.Publisher) *OrderService {
	return &OrderService{orders: orders, events: events, now: time.Now}
}

// WithClock replaces the clock that stamps createdAt.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// Create validates the payload and stores a pending order owned by subject.
func (s *OrderService) Create(ctx context.Context, subject rbac.Subject, in models.OrderInput) (models.Order, error) {
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return models.Order{}, err
	}
	if err := check(in); err != nil {
		return models.Order{}, err
	}
	o := models.Order{
		Items:         in.Items,
		Total:         in.Total,
		Customer:      *in.Customer,
		Address:       in.Address,
		PaymentMethod: in.PaymentMethod,
		UserID:        subject.ID,
		Status:        models.StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	id, err := s.orders.Create(ctx, o)
	if err != nil {
		return models.Order{}, apperr.Collaborator("orders.create", err)
	}
	o.ID = id

	metrics.OrdersCreated.Inc()
	s.publish(ctx, event.OrderCreated, o)
	logger.WithCtx(ctx).Info("order created", "order_id", id, "uid", subject.ID)
	return o, nil
}

// ListByStatus returns the orders in status, newest first. Managers only.
func (s *OrderService) ListByStatus(ctx context.Context, subject rbac.Subject, role rbac.Role, status string) ([]models.Order, error) {
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return nil, err
	}
	st := models.OrderStatus(status)
	if !st.Valid() {
		return nil, apperr.Field("status", "The status must be one of pending, confirmed, cancelled.")
	}
	list, err := s.orders.ListByStatus(ctx, st)
	if err != nil {
		return nil, apperr.Collaborator("orders.list_by_status", err)
	}
	return list, nil
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, subject rbac.Subject) ([]models.Order, error) {
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return nil, err
	}
	list, err := s.orders.ListByUser(ctx, subject.ID)
	if err != nil {
		return nil, apperr.Collaborator("orders.list_mine", err)
	}
	return list, nil
}

// Transition moves a pending order to target. The checks run in a fixed
// order: role, target value, existence, current state. The write is
// conditional on the order still being pending, so of two concurrent
// transitions only one succeeds.
func (s *OrderService) Transition(ctx context.Context, subject rbac.Subject, role rbac.Role, orderID string, target models.OrderStatus) (models.Order, error) {
	o, err := s.transition(ctx, subject, role, orderID, target)
	result := "ok"
	if err != nil {
		result = string(apperr.KindOf(err))
	}
	metrics.OrderTransitions.WithLabelValues(string(target), result).Inc()
	return o, err
}

func (s *OrderService) transition(ctx context.Context, subject rbac.Subject, role rbac.Role, orderID string, target models.OrderStatus) (models.Order, error) {
	const op = "orders.transition"
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return models.Order{}, err
	}
	if target != models.StatusConfirmed && target != models.StatusCancelled {
		return models.Order{}, apperr.New(apperr.KindInvalidTransition, "status must be confirmed or cancelled")
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return models.Order{}, storeErr(op, "Order", err)
	}
	if o.Status != models.StatusPending {
		return models.Order{}, alreadyIn(o.Status)
	}

	err = s.orders.UpdateStatus(ctx, orderID, models.StatusPending, target)
	switch {
	case errors.Is(err, docstore.ErrPrecondition):
		// Lost the race: report the state the winner left behind.
		if cur, gerr := s.orders.Get(ctx, orderID); gerr == nil {
			return models.Order{}, alreadyIn(cur.Status)
		}
		return models.Order{}, apperr.New(apperr.KindInvalidTransition, "order is no longer pending")
	case err != nil:
		return models.Order{}, storeErr(op, "Order", err)
	}

	from := o.Status
	o.Status = target
	s.publish(ctx, event.OrderStatusChanged, StatusChange{Order: o, From: from})
	logger.WithCtx(ctx).Info("order status changed", "order_id", orderID, "from", from, "to", target, "by", subject.ID)
	return o, nil
}

// StatusChange is the payload of order.status_changed.
type StatusChange struct {
	Order models.Order       `json:"order"`
	From  models.OrderStatus `json:"from"`
}

func alreadyIn(status models.OrderStatus) error {
	return apperr.Newf(apperr.KindInvalidTransition, "order is already %s", status)
}

func (s *OrderService) publish(ctx context.Context, name string, payload any) {
	if s.events != nil {
		s.events.FireAsync(ctx, name, payload)
	}
}
