package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/ministry/core"
)

// RollbarLogger logs with logrus and, once enabled, reports to Rollbar.
type RollbarLogger struct {
	std     *logrus.Logger
	enabled bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *logrus.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.enabled = enabled
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, logrus.Fields (or map[string]interface{})
func (l *RollbarLogger) prepare(msg string, args []interface{}) (*logrus.Entry, []interface{}) {
	entry := logrus.NewEntry(l.std)
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			entry = entry.WithError(a)
			rbArgs = append(rbArgs, a)
		case logrus.Fields:
			entry = entry.WithFields(a)
			rbArgs = append(rbArgs, map[string]interface{}(a))
		case map[string]interface{}:
			entry = entry.WithFields(a)
			rbArgs = append(rbArgs, a)
		default:
			entry = entry.WithField("extra", a)
		}
	}
	return entry, rbArgs
}

func (l *RollbarLogger) log(level logrus.Level, report func(...interface{}), msg string, args []interface{}) {
	entry, rbArgs := l.prepare(msg, args)
	if l.enabled {
		report(rbArgs...)
	}
	entry.Log(level, msg)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(logrus.DebugLevel, rollbar.Debug, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(logrus.InfoLevel, rollbar.Info, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(logrus.WarnLevel, rollbar.Warning, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(logrus.ErrorLevel, rollbar.Error, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(logrus.FatalLevel, rollbar.Critical, msg, args)
	rollbar.Close()
	l.std.Exit(1)
}
