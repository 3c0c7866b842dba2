package controllers

import (
	"github.com/shashiranjanraj/grinfood/pkg/ctx"
	"github.com/shashiranjanraj/grinfood/pkg/sse"
	"github.com/shashiranjanraj/grinfood/pkg/ws"
)

// FeedController streams order events: every event to the manager dashboard
// over a websocket, and a customer's own status changes over SSE.
type FeedController struct {
	hub    *ws.Hub
	broker *sse.Broker
}

func NewFeedController(hub *ws.Hub, broker *sse.Broker) *FeedController {
	return &FeedController{hub: hub, broker: broker}
}

func (fc *FeedController) Orders(c *ctx.Context) {
	if err := fc.hub.Upgrade(c.W, c.R); err != nil {
		c.Log().Warn("order feed: upgrade failed", "error", err)
		return
	}
	c.Log().Info("order feed: client connected", "uid", c.Subject().ID, "clients", fc.hub.ClientCount())
}

// MyOrders keeps the connection open and pushes status changes of the
// caller's orders until the client goes away.
func (fc *FeedController) MyOrders(c *ctx.Context) {
	fc.broker.Serve(c.W, c.R, c.Subject().ID)
}
