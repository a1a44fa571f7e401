package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
)

type publisherApi struct {
	service *publisher.Service
	reports *report.Service
}

func registerPublisherAPI(g *echo.Group, pubSvc *publisher.Service, reportSvc *report.Service) {
	api := publisherApi{service: pubSvc, reports: reportSvc}

	pg := g.Group("/publishers")
	pg.GET("", api.publisherQuery)
	pg.POST("", api.publisherCreate, writerMiddleware())

	dg := pg.Group("/:id")
	dg.GET("", api.publisherRetrieve)
	dg.PUT("", api.publisherUpdate, writerMiddleware())
	dg.PUT("/status", api.publisherSetStatus, writerMiddleware())
	dg.GET("/reports", api.publisherReports)
}

func (api *publisherApi) publisherCreate(ctx echo.Context) error {
	data := new(publisher.NewPublisher)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	pub, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, pub)
}

func (api *publisherApi) publisherQuery(ctx echo.Context) error {
	pubs, err := api.service.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	if pubs == nil {
		pubs = []publisher.Publisher{}
	}
	return ctx.JSON(http.StatusOK, pubs)
}

func (api *publisherApi) publisherRetrieve(ctx echo.Context) error {
	pub, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pub)
}

func (api *publisherApi) publisherUpdate(ctx echo.Context) error {
	data := new(publisher.UpdatePublisher)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	pub, err := api.service.Update(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pub)
}

// publisherSetStatus is the operator's manual override; the next status sync may revise it
// unless the new status is protected.
func (api *publisherApi) publisherSetStatus(ctx echo.Context) error {
	data := new(publisher.SetStatus)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	pub, err := api.service.SetStatus(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pub)
}

func (api *publisherApi) publisherReports(ctx echo.Context) error {
	from, to, err := monthRangeQuery(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()
	pub, err := api.service.GetByID(c, ctx.Param("id"))
	if err != nil {
		return err
	}
	reports, err := api.reports.QueryByPublisher(c, pub.ID, calendar.Range(from, to))
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []report.ActivityReport{}
	}
	return ctx.JSON(http.StatusOK, reports)
}
