package core

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

const defaultLogPrefix = "Engine 🏎️ "

type LoggerOptions struct {
	// Level is one of debug, info, warn, error, fatal. Empty means debug.
	Level  string
	Prefix string
	// Writer defaults to os.Stderr.
	Writer       io.Writer
	ReportCaller bool
}

// Logger is the engine logger. It is created once by the host and handed to
// every system that needs it; there is no package-level instance.
type Logger struct {
	*log.Logger
}

func NewLogger(opts LoggerOptions) (*Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultLogPrefix
	}
	level := log.DebugLevel
	if opts.Level != "" {
		lvl, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: log level %q", ErrBadParam, opts.Level)
		}
		level = lvl
	}
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    opts.ReportCaller,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	l.SetLevel(level)
	return &Logger{l}, nil
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *Logger {
	l := log.NewWithOptions(io.Discard, log.Options{})
	l.SetLevel(log.FatalLevel + 1)
	return &Logger{l}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{l.Logger.With(keyvals...)}
}

func (l *Logger) LogDebug(msg string, args ...interface{}) {
	l.Helper()
	l.Debugf(msg, args...)
}

func (l *Logger) LogInfo(msg string, args ...interface{}) {
	l.Helper()
	l.Infof(msg, args...)
}

func (l *Logger) LogWarn(msg string, args ...interface{}) {
	l.Helper()
	l.Warnf(msg, args...)
}

func (l *Logger) LogError(msg string, args ...interface{}) {
	l.Helper()
	l.Errorf(msg, args...)
}

func (l *Logger) LogFatal(msg string, args ...interface{}) {
	l.Helper()
	l.Fatalf(msg, args...)
}
