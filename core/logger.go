package core

// Logger is any service that can log messages.
// args may contain errors and logrus.Fields (or map[string]interface{}) carrying structured context.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
