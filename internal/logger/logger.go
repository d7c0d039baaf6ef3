package logger

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger tagged with the service name. LOG_LEVEL picks the level
// (debug, info, warn, error) and LOG_FORMAT=text switches from JSON to coloured text output.
func New(service string) *logrus.Entry {
	return NewWithOutput(service, os.Stdout)
}

func NewWithOutput(service string, out io.Writer) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(out)

	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
			ForceColors:     os.Getenv("LOG_COLORS") != "false",
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	if service == "" {
		return logrus.NewEntry(l)
	}
	return l.WithField("service", service)
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// SetStdLog redirects the standard log package through this logger at info level.
func SetStdLog(entry *logrus.Entry) {
	log.SetOutput(entry.WriterLevel(logrus.InfoLevel))
	log.SetFlags(0)
}
