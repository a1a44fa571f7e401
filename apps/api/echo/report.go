package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/report"
)

type reportApi struct {
	service *report.Service
}

func registerReportAPI(g *echo.Group, svc *report.Service) {
	api := reportApi{service: svc}

	rg := g.Group("/reports")
	rg.GET("", api.reportQuery)
	rg.PUT("", api.reportSave, writerMiddleware())
	rg.GET("/:month/:publisher_id", api.reportRetrieve)
	rg.DELETE("/:month/:publisher_id", api.reportDestroy, writerMiddleware())
}

// reportSave creates or replaces a report. Sending previous_month moves the report to month.
func (api *reportApi) reportSave(ctx echo.Context) error {
	data := new(report.SaveReport)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	r, err := api.service.Save(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *reportApi) reportQuery(ctx echo.Context) error {
	month, err := calendar.ParseMonth(ctx.QueryParam("month"))
	if err != nil {
		return core.NewFieldValidationError("month", err)
	}
	reports, err := api.service.QueryByMonth(ctx.Request().Context(), month)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []report.ActivityReport{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *reportApi) reportRetrieve(ctx echo.Context) error {
	month, err := monthParam(ctx, "month")
	if err != nil {
		return err
	}
	r, err := api.service.Get(ctx.Request().Context(), ctx.Param("publisher_id"), month)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *reportApi) reportDestroy(ctx echo.Context) error {
	month, err := monthParam(ctx, "month")
	if err != nil {
		return err
	}
	if err = api.service.Delete(ctx.Request().Context(), ctx.Param("publisher_id"), month); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
