package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Warn(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

// Options selects the level and the sink. Output wins over File; with neither
// set the logger writes to stdout.
type Options struct {
	Level  string
	File   string
	Output io.Writer
}

type jsonLogger struct {
	service  string
	hostname string
	log      *logrus.Logger
}

func New(service string, opts Options) Logger {
	hostname, _ := os.Hostname()

	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})

	switch {
	case opts.Output != nil:
		l.SetOutput(opts.Output)
	case opts.File != "":
		l.SetOutput(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    32, // megabytes
			MaxBackups: 2,
			MaxAge:     28, // days
			Compress:   true,
		})
	default:
		l.SetOutput(os.Stdout)
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	return &jsonLogger{
		service:  service,
		hostname: hostname,
		log:      l,
	}
}

// Discard returns a logger that drops everything
func Discard() Logger {
	return New("discard", Options{Output: io.Discard})
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.entry(action, requestID, details, nil).Info(message)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.entry(action, requestID, details, nil).Debug(message)
}

func (l *jsonLogger) Warn(action, message, requestID string, details map[string]interface{}) {
	l.entry(action, requestID, details, nil).Warn(message)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.entry(action, requestID, details, err).Error(message)
}

func (l *jsonLogger) entry(action, requestID string, details map[string]interface{}, err error) *logrus.Entry {
	fields := logrus.Fields{
		"service":    l.service,
		"hostname":   l.hostname,
		"request_id": requestID,
		"action":     action,
	}
	if len(details) > 0 {
		fields["details"] = details
	}
	if err != nil {
		fields["error"] = ErrorInfo{
			Msg:  err.Error(),
			Type: errorType(err),
		}
	}
	return l.log.WithFields(fields)
}
