// Package color provides terminal color output for Baton.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"sync"
)

var state struct {
	once    sync.Once
	enabled bool
}

// Init decides whether color output is enabled. NO_COLOR, TERM=dumb, and the
// explicit flag all disable it. The first call wins.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			return
		}
		if os.Getenv("TERM") == "dumb" {
			return
		}
		if noColorFlag {
			return
		}
		state.enabled = true
	})
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled
}

// Disable turns off color output.
func Disable() {
	Init(true)
	state.enabled = false
}

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

func wrap(code, s string) string {
	if !Enabled() {
		return s
	}
	return code + s + reset
}

// Error formats an error message in red.
func Error(s string) string { return wrap(red, s) }

// Errorf formats an error message with printf-style arguments.
func Errorf(format string, args ...any) string {
	return Error(fmt.Sprintf(format, args...))
}

// Success formats a success message in green.
func Success(s string) string { return wrap(green, s) }

// Warning formats a warning message in yellow.
func Warning(s string) string { return wrap(yellow, s) }

// Info formats an informational message in cyan.
func Info(s string) string { return wrap(cyan, s) }

// AgentID formats an agent identifier in cyan for visibility.
func AgentID(s string) string { return wrap(cyan, s) }

// Header formats a section header in bold.
func Header(s string) string { return wrap(bold, s) }

// Dim formats secondary information.
func Dim(s string) string { return wrap(dim, s) }
