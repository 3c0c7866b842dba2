package controllers

import (
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/ctx"
)

type StatsController struct {
	stats *services.StatsService
}

func NewStatsController(stats *services.StatsService) *StatsController {
	return &StatsController{stats: stats}
}

func (sc *StatsController) PopularProducts(c *ctx.Context) {
	list, err := sc.stats.PopularProducts(c.Context(), c.Subject(), c.Role())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (sc *StatsController) Revenue(c *ctx.Context) {
	q := services.RevenueQuery{StartDate: c.Query("startDate"), EndDate: c.Query("endDate")}
	rev, err := sc.stats.Revenue(c.Context(), c.Subject(), c.Role(), q)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rev)
}
