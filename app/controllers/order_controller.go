package controllers

import (
	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/ctx"
)

type OrderController struct {
	orders   *services.OrderService
	payments *services.PaymentService
}

func NewOrderController(orders *services.OrderService, payments *services.PaymentService) *OrderController {
	return &OrderController{orders: orders, payments: payments}
}

func (oc *OrderController) Create(c *ctx.Context) {
	var in models.OrderInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.Create(c.Context(), c.Subject(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(order)
}

func (oc *OrderController) Mine(c *ctx.Context) {
	list, err := oc.orders.ListMine(c.Context(), c.Subject())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (oc *OrderController) ByStatus(c *ctx.Context) {
	list, err := oc.orders.ListByStatus(c.Context(), c.Subject(), c.Role(), c.Param("status"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (oc *OrderController) Transition(c *ctx.Context) {
	var in models.StatusInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.Transition(c.Context(), c.Subject(), c.Role(), c.Param("id"), in.Status)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

// PaymentIntent opens a card payment and returns the client secret.
func (oc *OrderController) PaymentIntent(c *ctx.Context) {
	var in services.PaymentInput
	if !c.BindJSON(&in) {
		return
	}
	secret, err := oc.payments.CreateIntent(c.Context(), c.Subject(), c.Role(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]string{"clientSecret": secret})
}
