// Package logger provides the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the global logger. Configure replaces it.
var Logger *log.Logger

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.WarnLevel)
}

// Configure sets the level and destination. An empty level falls back to
// ATTRACTOR_LOG_LEVEL and then to "warn". The returned closer releases the
// log file, if any.
func Configure(level, file string) (io.Closer, error) {
	if level == "" {
		level = os.Getenv("ATTRACTOR_LOG_LEVEL")
	}

	var output io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		output, closer = f, f
	}

	Logger = log.NewWithOptions(output, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: file != "",
	})
	Logger.SetStyles(styles())
	return closer, nil
}

// ParseLevel maps debug, info, warn and error; anything else is warn.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	}
	return log.WarnLevel
}

// For returns a component logger sharing the global configuration. Call
// it at use time so that it picks up Configure.
func For(component string) *log.Logger {
	return Logger.WithPrefix(component)
}

func Debug(msg interface{}, keyvals ...interface{}) { Logger.Debug(msg, keyvals...) }
func Info(msg interface{}, keyvals ...interface{})  { Logger.Info(msg, keyvals...) }
func Warn(msg interface{}, keyvals ...interface{})  { Logger.Warn(msg, keyvals...) }
func Error(msg interface{}, keyvals ...interface{}) { Logger.Error(msg, keyvals...) }

func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	s.Values["err"] = lipgloss.NewStyle().Bold(true)
	s.Keys["system"] = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	s.Keys["method"] = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	return s
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
