// Package logging holds the package-level logger shared across browserboot.
package logging

import (
	"os"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. Callers use the helpers below so the
// backing logger can be swapped in tests.
var L = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
})

// SetDebug raises the log level to debug.
func SetDebug(enabled bool) {
	if enabled {
		L.SetLevel(clog.DebugLevel)
	} else {
		L.SetLevel(clog.InfoLevel)
	}
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...interface{}) {
	L.Debugf(format, v...)
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...interface{}) {
	L.Infof(format, v...)
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...interface{}) {
	L.Warnf(format, v...)
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...interface{}) {
	L.Errorf(format, v...)
}
