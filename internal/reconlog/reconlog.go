// Package reconlog is the leveled, structured logger that
// orchestrate.Orchestrator accepts as an optional collaborator via its
// WithLogger option, instead of writing directly to stdout/stderr or
// importing a CLI-rendering package. No other internal package takes a
// logger.
package reconlog

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// Logger is the leveled logging interface components depend on.
// Arguments after msg are alternating key/value pairs, mirroring the
// structured-logging convention the rest of the module's functional
// options already follow.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Noop discards every log call. It is the default for library code so
// importing a package never produces console output unless a caller
// opts in with WithLogger.
var Noop Logger = noopLogger{}

// ptermLogger renders leveled lines through pterm's styled prefix
// printers, the same presentation library the rest of the module's CLI
// surface uses for everything else it prints.
type ptermLogger struct{}

// NewPtermLogger returns a Logger that writes through pterm's Debug,
// Info and Error prefix printers.
func NewPtermLogger() Logger {
	return ptermLogger{}
}

func (ptermLogger) Debug(msg string, kv ...any) {
	pterm.Debug.Println(format(msg, kv))
}

func (ptermLogger) Info(msg string, kv ...any) {
	pterm.Info.Println(format(msg, kv))
}

func (ptermLogger) Error(msg string, kv ...any) {
	pterm.Error.Println(format(msg, kv))
}

// format renders msg followed by space-separated key=value pairs, e.g.
// "probe failed package=left-pad version=1.0.0".
func format(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	if len(kv)%2 == 1 {
		fmt.Fprintf(&b, " %v=<missing>", kv[len(kv)-1])
	}
	return b.String()
}
