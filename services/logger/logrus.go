package logsvc

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trezcool/ministry/core"
)

// NewLogrus returns a logger writing to stdout and, when conf.File is set, to a rotated file.
// name is attached to every entry as the "logger" field.
func NewLogrus(conf core.LogConfig, name string) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(conf.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(conf.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	var out io.Writer = os.Stdout
	if conf.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
	logger.SetOutput(out)

	if name != "" {
		logger.AddHook(nameHook(name))
	}
	return logger
}

type nameHook string

func (h nameHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h nameHook) Fire(entry *logrus.Entry) error {
	entry.Data["logger"] = string(h)
	return nil
}

// NewNopLogger returns a core.Logger that discards everything. For tests.
func NewNopLogger() core.Logger {
	std := logrus.New()
	std.SetOutput(io.Discard)
	return &RollbarLogger{std: std}
}
