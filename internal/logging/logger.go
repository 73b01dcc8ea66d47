package logging

import (
	"fmt"
	"io"
	"os"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. It writes to stderr so command output on
// stdout stays machine-readable.
var L = New(os.Stderr)

// New returns a logger with relclock's prefix and timestamp settings.
func New(w io.Writer) *clog.Logger {
	return clog.NewWithOptions(w, clog.Options{
		Prefix:          "relclock",
		ReportTimestamp: true,
	})
}

// SetLevel parses a level name (debug, info, warn, error) and applies it to L.
func SetLevel(level string) error {
	lvl, err := clog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	L.SetLevel(lvl)
	return nil
}

// Info logs a message with structured key/value pairs.
func Info(msg string, keyvals ...interface{}) {
	L.Info(msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	L.Debug(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	L.Error(msg, keyvals...)
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}
