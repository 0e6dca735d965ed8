// Package report renders a run for people: coloured console output while it
// executes and on-disk artifacts once it ends.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/state"
)

// Verbosity represents the console verbosity level
type Verbosity int

const (
	// Quiet shows only failures and the final summary
	Quiet Verbosity = iota
	// Normal shows the log as it is produced (default)
	Normal
	// Verbose also shows the failed run's full log tree
	Verbose
	// Debug shows everything, including failure causes
	Debug
)

// ParseVerbosity converts a verbosity name to Verbosity
func ParseVerbosity(level string) Verbosity {
	switch level {
	case "quiet":
		return Quiet
	case "verbose":
		return Verbose
	case "debug":
		return Debug
	default:
		return Normal
	}
}

const (
	colorReset     = "\033[0m"
	colorCyan      = "\033[36m"
	colorSalmon    = "\033[38;5;217m" // Salmon pink #FFB3BA
	colorYellow    = "\033[33m"
	colorRed       = "\033[31m"
	colorGray      = "\033[90m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
	colorBoldWhite = "\033[1;37m"
)

// Console writes run progress to a terminal
type Console struct {
	level  Verbosity
	writer io.Writer
	color  bool

	startTime time.Time
}

// NewConsole creates a console writing to stdout with the given level
func NewConsole(level Verbosity) *Console {
	return &Console{level: level, writer: os.Stdout, color: true, startTime: time.Now()}
}

// WithWriter redirects output, disabling colours.
func (c *Console) WithWriter(w io.Writer) *Console {
	c.writer = w
	c.color = false
	return c
}

func (c *Console) paint(color, text string) string {
	if !c.color {
		return text
	}
	return color + text + colorReset
}

// Header prints a prominent header message
func (c *Console) Header(message string) {
	if c.level < Normal {
		return
	}
	rule := c.paint(colorBoldWhite, strings.Repeat("=", 70))
	fmt.Fprintf(c.writer, "\n%s\n%s\n%s\n", rule, c.paint(colorBoldWhite, "  "+message), rule)
}

// LoggingAction returns a config.LoggingAction that echoes each log line.
func (c *Console) LoggingAction() config.LoggingAction {
	return func(text string, indent int) {
		if c.level < Normal {
			return
		}
		color := colorSalmon
		switch {
		case strings.HasPrefix(text, logtree.KindError.Tag()):
			color = colorRed
		case strings.HasPrefix(text, logtree.KindWarn.Tag()):
			color = colorYellow
		case !strings.HasPrefix(text, logtree.KindInfo.Tag()):
			color = colorCyan
		}
		fmt.Fprintln(c.writer, c.paint(color, logtree.FormatLine(logtree.KindContext, text, indent)))
	}
}

// FailureAction returns a config.FailureAction that prints the failure and,
// from Verbose up, the log tree it happened in.
func (c *Console) FailureAction() config.FailureAction {
	return func(err error, log logtree.Log) {
		fmt.Fprintln(c.writer, c.paint(colorBoldRed, "✗ Error: "+err.Error()))
		if c.level >= Debug {
			for _, f := range failures(err) {
				fmt.Fprintln(c.writer, c.paint(colorGray, fmt.Sprintf("    %s: %s", f.Kind, f.Message)))
			}
		}
		if c.level >= Verbose && !log.IsEmpty() {
			fmt.Fprintln(c.writer, c.paint(colorGray, log.String()))
		}
	}
}

// Summary prints the final outcome of a run
func (c *Console) Summary(s state.State) {
	rule := c.paint(colorBoldWhite, strings.Repeat("=", 70))
	fmt.Fprintf(c.writer, "\n%s\n%s\n", rule, c.paint(colorBoldWhite, "  RUN SUMMARY"))

	fmt.Fprint(c.writer, "  Status: ")
	if s.Failed() {
		fmt.Fprintln(c.writer, c.paint(colorBoldRed, "✗ FAILED"))
	} else {
		fmt.Fprintln(c.writer, c.paint(colorBoldGreen, "✓ SUCCESS"))
	}
	fmt.Fprintf(c.writer, "  Duration: %s\n", time.Since(c.startTime).Round(time.Millisecond))

	log := s.Log()
	fmt.Fprintf(c.writer, "  Contexts: %d  Warnings: %d  Errors: %d\n",
		log.Count(logtree.KindContext), log.Count(logtree.KindWarn), log.Count(logtree.KindError))

	for _, f := range s.Errors() {
		fmt.Fprintln(c.writer, c.paint(colorRed, "    "+f.Error()))
	}
	fmt.Fprintf(c.writer, "%s\n\n", rule)
}

// failures flattens err into the run failures it carries.
func failures(err error) []*state.Failure {
	if f, ok := err.(*state.Failure); ok {
		return []*state.Failure{f}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*state.Failure
		for _, e := range joined.Unwrap() {
			out = append(out, failures(e)...)
		}
		return out
	}
	var f *state.Failure
	if errors.As(err, &f) {
		return []*state.Failure{f}
	}
	return nil
}
