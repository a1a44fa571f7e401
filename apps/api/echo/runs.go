package echoapi

import (
	"net/http"
	"net/mail"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/audit"
	"github.com/trezcool/ministry/core/status"
)

type runApi struct {
	status     *status.Engine
	audit      *audit.Engine
	mailSvc    core.EmailService
	recipients []mail.Address
}

func registerRunAPI(g *echo.Group, statusEngine *status.Engine, auditEngine *audit.Engine, mailSvc core.EmailService, recipients []mail.Address) {
	api := runApi{status: statusEngine, audit: auditEngine, mailSvc: mailSvc, recipients: recipients}

	g.POST("/status/sync", api.statusSync, writerMiddleware())
	g.POST("/audit", api.auditRun, writerMiddleware())
}

// statusSync runs status inference as of ?date= (default today).
func (api *runApi) statusSync(ctx echo.Context) error {
	runDate, err := runDateQuery(ctx)
	if err != nil {
		return err
	}
	summary, err := api.status.Run(ctx.Request().Context(), runDate)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summary)
}

// auditRun recomputes the lookback window as of ?date= and, with ?notify=true,
// mails the summary to the configured recipients.
func (api *runApi) auditRun(ctx echo.Context) error {
	runDate, err := runDateQuery(ctx)
	if err != nil {
		return err
	}
	var notify bool
	if s := ctx.QueryParam("notify"); s != "" {
		if notify, err = strconv.ParseBool(s); err != nil {
			return core.NewFieldValidationError("notify", errors.New("must be a boolean"))
		}
	}

	res, err := api.audit.Run(ctx.Request().Context(), runDate)
	if err != nil {
		return err
	}

	if notify && len(api.recipients) > 0 {
		msg, err := audit.NewEmailMessage(res, api.recipients)
		if err != nil {
			return errors.Wrap(err, "preparing audit email")
		}
		api.mailSvc.SendMessages(msg)
	}
	return ctx.JSON(http.StatusOK, res)
}
