package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/ctx"
)

type PromotionController struct {
	promotions *services.PromotionService
}

func NewPromotionController(promotions *services.PromotionService) *PromotionController {
	return &PromotionController{promotions: promotions}
}

// Active lists the promotions running now. Public.
func (pc *PromotionController) Active(c *ctx.Context) {
	list, err := pc.promotions.ListActive(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (pc *PromotionController) All(c *ctx.Context) {
	list, err := pc.promotions.ListAll(c.Context(), c.Subject(), c.Role())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (pc *PromotionController) Store(c *ctx.Context) {
	var in models.PromotionInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.promotions.Create(c.Context(), c.Subject(), c.Role(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

func (pc *PromotionController) Update(c *ctx.Context) {
	var in models.PromotionInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.promotions.Update(c.Context(), c.Subject(), c.Role(), c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *PromotionController) Destroy(c *ctx.Context) {
	if err := pc.promotions.Delete(c.Context(), c.Subject(), c.Role(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Status(http.StatusNoContent)
}
