package changelog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/spf13/afero"
)

const (
	sectionHeading = "## "
	fenceBackticks = "```"
	fenceTildes    = "~~~"
)

var (
	// linkedTitle matches "[1.2.0] - date" and "[1.2.0](https://...) - date".
	linkedTitle   = regexp.MustCompile(`^\[([^\]]+)\](?:\([^)]*\))?(.*)$`)
	closingHashes = regexp.MustCompile(`\s+#+\s*$`)
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Load reads and parses a changelog from the given file system.
func Load(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading changelog: %w", err)
	}
	doc := Parse(string(data))
	return &doc, nil
}

// NormalizeLineEndings converts CRLF and lone CR line endings to LF.
func NormalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// Parse converts changelog markdown into a Document.
// Only level-2 headings outside fenced code blocks start a section; anything
// before the first section is ignored. A document without sections yields an
// empty Versions slice, never an error: deciding whether that is acceptable
// is up to the caller.
func Parse(text string) Document {
	var (
		doc     Document
		current *VersionEntry
		body    []string
		fence   string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.Trim(strings.Join(body, "\n"), "\n")
		doc.Versions = append(doc.Versions, *current)
		body = body[:0]
	}

	for _, line := range strings.Split(NormalizeLineEndings(text), "\n") {
		if marker := fenceMarker(line); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case fence == marker:
				fence = ""
			}
		}

		if fence == "" && strings.HasPrefix(line, sectionHeading) {
			flush()
			entry := parseHeading(line[len(sectionHeading):])
			current = &entry
			continue
		}

		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	return doc
}

// parseHeading builds a VersionEntry from the text that follows "## ".
func parseHeading(raw string) VersionEntry {
	title := strings.TrimSpace(closingHashes.ReplaceAllString(raw, ""))
	if m := linkedTitle.FindStringSubmatch(title); m != nil {
		title = m[1] + m[2]
	}

	entry := VersionEntry{Title: title}

	fields := strings.Fields(title)
	if len(fields) == 0 {
		return entry
	}
	if v, err := ParseVersion(fields[0]); err == nil {
		entry.Version = &v
	}
	if len(fields) >= 3 && fields[1] == "-" && datePattern.MatchString(fields[2]) {
		entry.Date = fields[2]
	}

	return entry
}

// ParseVersion parses a strict MAJOR.MINOR.PATCH[-prerelease][+build] version.
// A single leading "v" is accepted.
func ParseVersion(s string) (semver.Version, error) {
	return semver.Parse(strings.TrimPrefix(strings.TrimSpace(s), "v"))
}

// fenceMarker returns the fence delimiter opening or closing a code block on
// this line, or "" when the line is not a fence.
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return ""
	}
	switch {
	case strings.HasPrefix(trimmed, fenceBackticks):
		return fenceBackticks
	case strings.HasPrefix(trimmed, fenceTildes):
		return fenceTildes
	}
	return ""
}
