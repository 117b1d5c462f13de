package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once   sync.Once
	logger *logrus.Logger
)

// Init configures the package logger. level is one of debug|info|warn|error,
// format is json (default) or text. Only the first call has an effect.
func Init(level, format string) {
	once.Do(func() {
		logger = newLogger(os.Stdout, level, format)
	})
}

func newLogger(out io.Writer, level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

// get returns the configured logger, falling back to info/json defaults
// when Init was never called.
func get() *logrus.Logger {
	Init("info", "json")
	return logger
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	get().SetOutput(w)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return get().WithFields(logrus.Fields(fields))
}

func Info(message string, v ...interface{}) {
	get().Infof(message, v...)
}

func Warn(message string, v ...interface{}) {
	get().Warnf(message, v...)
}

func Error(message string, v ...interface{}) {
	get().Errorf(message, v...)
}

func Debug(message string, v ...interface{}) {
	get().Debugf(message, v...)
}
