package dig_container

import (
	"context"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/ministry/apps/api/echo"
	"github.com/trezcool/ministry/apps/shared"
	"github.com/trezcool/ministry/core"
	emailsvc "github.com/trezcool/ministry/services/email"
	locksvc "github.com/trezcool/ministry/services/lock"
	"github.com/trezcool/ministry/storage/database"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// LockCloser releases the locker's connection.
	LockCloser func()
)

func newLogger(conf *core.Config) core.Logger {
	return shared.NewLogger(conf, "API")
}

func newDBLogger(conf *core.Config) core.Logger {
	return shared.NewLogger(conf, "DB")
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) *database.Store {
	store, err := database.Setup(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return store
}

func newLocker(conf *core.Config, logger core.Logger) (core.Locker, LockCloser) {
	locker, closeFn, err := locksvc.NewLocker(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up locker: %v", err), err)
	}
	return locker, LockCloser(closeFn)
}

func newServices(
	conf *core.Config,
	store *database.Store,
	validate *validator.Validate,
	locker core.Locker,
	logger core.Logger,
) *shared.Services {
	return shared.NewServices(conf, store, validate, locker, logger)
}

func newDeps(conf *core.Config, svcs *shared.Services, mailSvc core.EmailService) *echoapi.Deps {
	return &echoapi.Deps{
		PublisherSvc:    svcs.Publishers,
		ReportSvc:       svcs.Reports,
		AttendanceSvc:   svcs.Attendance,
		AggregateEngine: svcs.Aggregates,
		StatusEngine:    svcs.Status,
		AuditEngine:     svcs.Audit,
		MailSvc:         mailSvc,
		Recipients:      conf.ReportRecipients,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newLocker))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(shared.NewValidator))
	must(c.Provide(newServices))
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewOptions))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
