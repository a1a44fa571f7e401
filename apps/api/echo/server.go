package echoapi

import (
	"context"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/attendance"
	"github.com/trezcool/ministry/core/audit"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
	"github.com/trezcool/ministry/core/status"
)

type (
	Options struct {
		Address        string
		AppName        string
		SecretKey      string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool
	}

	// Deps are the services served by the API.
	Deps struct {
		PublisherSvc    *publisher.Service
		ReportSvc       *report.Service
		AttendanceSvc   *attendance.Service
		AggregateEngine *aggregate.Engine
		StatusEngine    *status.Engine
		AuditEngine     *audit.Engine
		MailSvc         core.EmailService
		Recipients      []mail.Address // audit summaries
	}

	Server struct {
		opts       Options
		app        *echo.Echo
		logger     core.Logger
		translator ut.Translator
		shutdown   chan os.Signal
		errors     chan error
	}
)

func NewOptions(conf *core.Config) Options {
	return Options{
		Address:   conf.Server.Address,
		AppName:   conf.AppName,
		SecretKey: conf.SecretKey,
		Debug:     conf.Debug,
		TestMode:  conf.TestMode,
	}
}

func NewServer(opts Options, logger core.Logger, translator ut.Translator, deps *Deps) *Server {
	s := &Server{
		opts:       opts,
		app:        echo.New(),
		logger:     logger,
		translator: translator,
		shutdown:   make(chan os.Signal, 1),
		errors:     make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(deps)
	return s
}

func (s *Server) setup(deps *Deps) {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.translator)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig([]byte(s.opts.SecretKey))))

	registerPublisherAPI(v1, deps.PublisherSvc, deps.ReportSvc)
	registerReportAPI(v1, deps.ReportSvc)
	registerAggregateAPI(v1, deps.AggregateEngine)
	registerRunAPI(v1, deps.StatusEngine, deps.AuditEngine, deps.MailSvc, deps.Recipients)
	registerAttendanceAPI(v1, deps.AttendanceSvc)
}

// Start listens until the server is shut down. Listen errors are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.AppName+" API!")
}
