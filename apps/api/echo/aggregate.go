package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/calendar"
)

type aggregateApi struct {
	engine *aggregate.Engine
}

// ServiceYearResponse is a service year's stored aggregates plus their sums.
type ServiceYearResponse struct {
	ServiceYear int                          `json:"service_year"`
	From        calendar.Month               `json:"from"`
	To          calendar.Month               `json:"to"`
	Months      []aggregate.MonthlyAggregate `json:"months"`
	Totals      aggregate.CategoryTotals     `json:"totals"`
}

func registerAggregateAPI(g *echo.Group, engine *aggregate.Engine) {
	api := aggregateApi{engine: engine}

	ag := g.Group("/aggregates")
	ag.GET("", api.aggregateQuery)
	ag.GET("/:month", api.aggregateRetrieve)
	ag.POST("/:month", api.aggregateCompute, writerMiddleware())

	sg := g.Group("/service-years/:fy")
	sg.GET("", api.serviceYearRetrieve)
	sg.POST("", api.serviceYearCompute, writerMiddleware())
}

func (api *aggregateApi) aggregateQuery(ctx echo.Context) error {
	from, to, err := monthRangeQuery(ctx)
	if err != nil {
		return err
	}
	aggs, err := api.engine.Query(ctx.Request().Context(), from, to)
	if err != nil {
		return err
	}
	if aggs == nil {
		aggs = []aggregate.MonthlyAggregate{}
	}
	return ctx.JSON(http.StatusOK, aggs)
}

func (api *aggregateApi) aggregateRetrieve(ctx echo.Context) error {
	month, err := monthParam(ctx, "month")
	if err != nil {
		return err
	}
	agg, err := api.engine.Get(ctx.Request().Context(), month)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, agg)
}

func (api *aggregateApi) aggregateCompute(ctx echo.Context) error {
	month, err := monthParam(ctx, "month")
	if err != nil {
		return err
	}
	agg, err := api.engine.Aggregate(ctx.Request().Context(), month)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, agg)
}

func (api *aggregateApi) serviceYearRetrieve(ctx echo.Context) error {
	fy, err := serviceYearParam(ctx)
	if err != nil {
		return err
	}
	from, to := calendar.ServiceYearBounds(fy)
	aggs, err := api.engine.Query(ctx.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newServiceYearResponse(fy, aggs))
}

func (api *aggregateApi) serviceYearCompute(ctx echo.Context) error {
	fy, err := serviceYearParam(ctx)
	if err != nil {
		return err
	}
	aggs, err := api.engine.AggregateServiceYear(ctx.Request().Context(), fy)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newServiceYearResponse(fy, aggs))
}

func newServiceYearResponse(fy int, aggs []aggregate.MonthlyAggregate) ServiceYearResponse {
	from, to := calendar.ServiceYearBounds(fy)
	if aggs == nil {
		aggs = []aggregate.MonthlyAggregate{}
	}
	return ServiceYearResponse{
		ServiceYear: fy,
		From:        from,
		To:          to,
		Months:      aggs,
		Totals:      aggregate.SumTotals(aggs),
	}
}
