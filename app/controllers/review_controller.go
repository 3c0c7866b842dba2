package controllers

import (
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/ctx"
)

type ReviewController struct {
	reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

func (rc *ReviewController) Index(c *ctx.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.Fail(apperr.Field("limit", "The limit must be a non-negative integer."))
		return
	}
	list, err := rc.reviews.List(c.Context(), limit)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (rc *ReviewController) Store(c *ctx.Context) {
	var in models.ReviewInput
	if !c.BindJSON(&in) {
		return
	}
	rv, err := rc.reviews.Add(c.Context(), c.Subject(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(rv)
}

func (rc *ReviewController) Destroy(c *ctx.Context) {
	if err := rc.reviews.Delete(c.Context(), c.Subject(), c.Role(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Status(http.StatusNoContent)
}
