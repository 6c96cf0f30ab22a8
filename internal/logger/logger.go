// Package logger provides verbose logging for the sercha-rag CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to trace ingestion, indexing and the query pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
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

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(true, "[DEBUG] ", format, args...)
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
	logf(true, "[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(true, "[WARN] ", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	logf(false, "[ERROR] ", format, args...)
}

// logf holds the write lock so concurrent callers never interleave on output.
func logf(gated bool, level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(output, level+format+"\n", args...)
}

// Component prefixes every line with a component name, e.g. "[query]".
type Component struct {
	name string
}

// With returns a logger for the named component.
func With(name string) *Component {
	return &Component{name: name}
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.name
}

// Debug prints a component message if verbose mode is enabled.
func (c *Component) Debug(format string, args ...any) {
	Debug(c.prefix()+format, args...)
}

// Info prints a component message if verbose mode is enabled.
func (c *Component) Info(format string, args ...any) {
	Info(c.prefix()+format, args...)
}

// Warn prints a component warning if verbose mode is enabled.
func (c *Component) Warn(format string, args ...any) {
	Warn(c.prefix()+format, args...)
}

// Error prints a component error regardless of verbose mode.
func (c *Component) Error(format string, args ...any) {
	Error(c.prefix()+format, args...)
}

func (c *Component) prefix() string {
	return "[" + c.name + "] "
}
