// Package output provides terminal output formatting utilities for the releasekit CLI.
// This package is designed to have minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// Reporter prints the per-package trace of a command: info in blue, warnings
// in yellow, errors in red and successes in green. It satisfies
// release.Reporter.
type Reporter struct {
	out   io.Writer
	quiet bool

	mu sync.Mutex
}

// NewReporter creates a Reporter writing to out. A quiet reporter drops info
// lines.
func NewReporter(out io.Writer, quiet bool) *Reporter {
	return &Reporter{out: out, quiet: quiet}
}

var (
	infoColor    = color.New(color.FgBlue)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen, color.Bold)
)

// Info prints a progress line.
func (r *Reporter) Info(format string, args ...interface{}) {
	if r.quiet {
		return
	}
	r.print(infoColor, "•", format, args...)
}

// Warn prints a warning.
func (r *Reporter) Warn(format string, args ...interface{}) {
	r.print(warnColor, "!", format, args...)
}

// Error prints an error line.
func (r *Reporter) Error(format string, args ...interface{}) {
	r.print(errorColor, "✗", format, args...)
}

// Success prints a completed step.
func (r *Reporter) Success(format string, args ...interface{}) {
	r.print(successColor, "✓", format, args...)
}

func (r *Reporter) print(c *color.Color, symbol, format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(r.out, "%s %s\n", c.Sprint(symbol), c.Sprint(msg))
}

// PrintSectionHeader prints a colored header line for a package
// (e.g., "── Fable.Foo ─────").
func PrintSectionHeader(out io.Writer, title string) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	label := " " + title + " "
	rest := GetTerminalWidth() - len(label) - 2
	if rest < 3 {
		rest = 3
	}
	fmt.Fprintf(out, "\n%s%s%s\n", dim("──"), cyan(label), dim(strings.Repeat("─", rest)))
}

// PrintSummary prints the closing line of a run with counts per status.
func PrintSummary(out io.Writer, counts []Count) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		if c.N == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d %s", c.N, c.Label))
	}
	if len(parts) == 0 {
		fmt.Fprintln(out, dim("Nothing to do."))
		return
	}
	fmt.Fprintf(out, "\n%s %s\n", green("Done:"), strings.Join(parts, ", "))
}

// Count is one entry of a run summary.
type Count struct {
	Label string
	N     int
}
