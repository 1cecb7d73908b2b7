// Package logger provides leveled logging for sage.
//
// Debug, Info and Warn messages are printed only in verbose mode (the
// --verbose flag). Errors are always printed. Long-running commands such as
// serve turn on timestamps so log lines can be correlated with requests.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu         sync.RWMutex
	verbose    bool
	timestamps bool
	output     io.Writer = os.Stderr
	now                  = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTimestamps prefixes every line with an RFC 3339 timestamp when enabled.
func SetTimestamps(v bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = v
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(always bool, level, component, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !always && !verbose {
		return
	}
	prefix := level
	if component != "" {
		prefix += "[" + component + "] "
	}
	if timestamps {
		prefix = now().UTC().Format(time.RFC3339) + " " + prefix
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(false, "[DEBUG] ", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(false, "[INFO] ", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write(false, "[WARN] ", "", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	write(true, "[ERROR] ", "", format, args...)
}

// Component tags every message with the name of the subsystem that wrote it.
type Component string

// For returns a logger for the named component.
func For(name string) Component {
	return Component(name)
}

// Debug prints a tagged message if verbose mode is enabled.
func (c Component) Debug(format string, args ...any) {
	write(false, "[DEBUG] ", string(c), format, args...)
}

// Info prints a tagged message if verbose mode is enabled.
func (c Component) Info(format string, args ...any) {
	write(false, "[INFO] ", string(c), format, args...)
}

// Warn prints a tagged warning if verbose mode is enabled.
func (c Component) Warn(format string, args ...any) {
	write(false, "[WARN] ", string(c), format, args...)
}

// Error prints a tagged error regardless of verbose mode.
func (c Component) Error(format string, args ...any) {
	write(true, "[ERROR] ", string(c), format, args...)
}
