// Package shared builds the services both apps run on.
package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/attendance"
	"github.com/trezcool/ministry/core/audit"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
	"github.com/trezcool/ministry/core/status"
	logsvc "github.com/trezcool/ministry/services/logger"
	"github.com/trezcool/ministry/storage/database"
)

// NewValidator returns a validator with every package's custom validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	publisher.InitValidators(validate, translator)
	report.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	return validate, translator
}

// NewLogger returns the named app logger: logrus, forwarded to Rollbar outside debug mode.
func NewLogger(conf *core.Config, name string) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewLogrus(conf.Log, name), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// Services are the domain services & engines over one store.
type Services struct {
	Publishers *publisher.Service
	Reports    *report.Service
	Attendance *attendance.Service
	Aggregates *aggregate.Engine
	Status     *status.Engine
	Audit      *audit.Engine
}

func NewServices(
	conf *core.Config,
	store *database.Store,
	validate *validator.Validate,
	locker core.Locker,
	logger core.Logger,
) *Services {
	return &Services{
		Publishers: publisher.NewService(store.Publishers, validate),
		Reports:    report.NewService(store.Reports, validate),
		Attendance: attendance.NewService(store.Attendance, validate, logger),
		Aggregates: aggregate.NewEngine(store.Publishers, store.Reports, store.Aggregates, logger),
		Status:     status.NewEngine(store.Publishers, store.Reports, locker, logger, status.NewConfig(conf.Engine)),
		Audit: audit.NewEngine(
			store.Publishers, store.Reports, store.Aggregates, locker, logger, conf.Engine.AuditLookbackMonths,
		),
	}
}
