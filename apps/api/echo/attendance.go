package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ministry/core/attendance"
)

type attendanceApi struct {
	service *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service) {
	api := attendanceApi{service: svc}

	ag := g.Group("/attendance")
	ag.GET("", api.attendanceQuery)
	ag.POST("", api.attendanceCreate, writerMiddleware())
	ag.GET("/aggregates/:month", api.attendanceAggregate)

	dg := ag.Group("/:id")
	dg.GET("", api.attendanceRetrieve)
	dg.PUT("", api.attendanceUpdate, writerMiddleware())
	dg.DELETE("", api.attendanceDestroy, writerMiddleware())
}

func (api *attendanceApi) attendanceCreate(ctx echo.Context) error {
	data := new(attendance.NewRecord)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	rec, err := api.service.Record(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) attendanceQuery(ctx echo.Context) error {
	from, to, err := monthRangeQuery(ctx)
	if err != nil {
		return err
	}
	records, err := api.service.Query(ctx.Request().Context(), from, to)
	if err != nil {
		return err
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) attendanceRetrieve(ctx echo.Context) error {
	rec, err := api.service.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) attendanceUpdate(ctx echo.Context) error {
	data := new(attendance.UpdateRecord)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	rec, err := api.service.Update(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) attendanceDestroy(ctx echo.Context) error {
	if err := api.service.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) attendanceAggregate(ctx echo.Context) error {
	month, err := monthParam(ctx, "month")
	if err != nil {
		return err
	}
	agg, err := api.service.GetAggregate(ctx.Request().Context(), month)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, agg)
}
