package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// CategoryStyle defines the color and icon for a Keep a Changelog category.
type CategoryStyle struct {
	Color *color.Color
	Icon  string
}

// categoryStyles maps lower-cased "### " subheadings to their terminal styling.
var categoryStyles = map[string]CategoryStyle{
	"added":      {Color: color.New(color.FgGreen), Icon: "✓"},
	"changed":    {Color: color.New(color.FgBlue), Icon: "~"},
	"deprecated": {Color: color.New(color.FgRed), Icon: "⚠"},
	"removed":    {Color: color.New(color.FgRed), Icon: "✗"},
	"fixed":      {Color: color.New(color.FgYellow), Icon: "⚡"},
	"security":   {Color: color.New(color.FgMagenta), Icon: "🔒"},
}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain  bool   // Disable colors and icons
	Indent string // Prefix for every line
}

// FormatEntry writes the release notes of one section to w.
// Colors are used only when w is a terminal and Plain is false.
func FormatEntry(entry VersionEntry, w io.Writer, opts FormatOptions) error {
	plain := opts.Plain || !isTerminal(w)

	if err := writeHeader(entry, w, opts.Indent, plain); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	style := CategoryStyle{}
	for _, line := range strings.Split(entry.Body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if name, ok := strings.CutPrefix(line, "### "); ok {
			style = categoryStyles[strings.ToLower(strings.TrimSpace(name))]
			if err := writeCategory(name, style, w, opts.Indent, plain); err != nil {
				return err
			}
			continue
		}
		if err := writeLine(line, style, w, opts.Indent, plain); err != nil {
			return err
		}
	}

	return nil
}

func writeHeader(entry VersionEntry, w io.Writer, indent string, plain bool) error {
	header := entry.Title
	if entry.HasVersion() {
		header = "v" + entry.VersionString()
		if entry.Date != "" {
			header = fmt.Sprintf("%s (%s)", header, entry.Date)
		}
	}

	if plain {
		_, err := fmt.Fprintf(w, "%s%s\n", indent, header)
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "%s%s\n", indent, bold(header))
	return err
}

func writeCategory(name string, style CategoryStyle, w io.Writer, indent string, plain bool) error {
	if plain || style.Color == nil {
		_, err := fmt.Fprintf(w, "%s  %s\n", indent, name)
		return err
	}

	colored := style.Color.SprintFunc()
	_, err := fmt.Fprintf(w, "%s  %s %s\n", indent, colored(style.Icon), colored(name))
	return err
}

func writeLine(line string, style CategoryStyle, w io.Writer, indent string, plain bool) error {
	if plain || style.Color == nil {
		_, err := fmt.Fprintf(w, "%s    %s\n", indent, line)
		return err
	}

	colored := style.Color.SprintFunc()
	_, err := fmt.Fprintf(w, "%s    %s\n", indent, colored(line))
	return err
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
