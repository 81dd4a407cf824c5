package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// ErrMissingVersionField is returned when a manifest has no <Version> element.
var ErrMissingVersionField = errors.New("missing <Version>..</Version> tag")

// versionField matches a single-line <Version>...</Version> element.
// Tag names are matched case-insensitively; the value is group 1.
var versionField = regexp.MustCompile(`(?i)<Version>([^<\r\n]*)</Version>`)

// FieldError reports a manifest that cannot be edited.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s in %s", e.Err, e.Path)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ExtractVersion returns the value of the first <Version> element.
// Surrounding whitespace inside the element is trimmed.
func ExtractVersion(content string) (string, error) {
	m := versionField.FindStringSubmatch(content)
	if m == nil {
		return "", ErrMissingVersionField
	}
	return strings.TrimSpace(m[1]), nil
}

// ApplyVersion returns content with the value of the first <Version> element
// replaced by newVersion. Only the bytes between the tags change.
func ApplyVersion(content, newVersion string) (string, error) {
	loc := versionField.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", ErrMissingVersionField
	}
	valueStart, valueEnd := loc[2], loc[3]

	var b strings.Builder
	b.Grow(len(content) - (valueEnd - valueStart) + len(newVersion))
	b.WriteString(content[:valueStart])
	b.WriteString(newVersion)
	b.WriteString(content[valueEnd:])
	return b.String(), nil
}

// CountVersionFields returns how many <Version> elements the manifest holds.
func CountVersionFields(content string) int {
	return len(versionField.FindAllStringIndex(content, -1))
}

// Manifest is the content of a manifest file as last read from storage.
type Manifest struct {
	Path    string
	Content []byte
	Version string
}

// Load reads a manifest and extracts its recorded version.
func Load(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	version, err := ExtractVersion(string(data))
	if err != nil {
		return nil, &FieldError{Path: path, Err: err}
	}

	return &Manifest{Path: path, Content: data, Version: version}, nil
}

// WithVersion returns the manifest content rewritten to record version.
func (m *Manifest) WithVersion(version string) ([]byte, error) {
	updated, err := ApplyVersion(string(m.Content), version)
	if err != nil {
		return nil, &FieldError{Path: m.Path, Err: err}
	}
	return []byte(updated), nil
}
