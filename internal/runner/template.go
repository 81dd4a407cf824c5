package runner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/shlex"
)

// placeholder matches {{NAME}} markers in command templates.
var placeholder = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Template is a command line with {{NAME}} placeholders, split into words
// with shell quoting rules but never run through a shell.
type Template struct {
	raw   string
	words []string
}

// ParseTemplate splits a command template into words.
func ParseTemplate(raw string) (Template, error) {
	words, err := shlex.Split(raw)
	if err != nil {
		return Template{}, fmt.Errorf("invalid command template %q: %w", raw, err)
	}
	if len(words) == 0 {
		return Template{}, fmt.Errorf("command template %q produces no command", raw)
	}
	return Template{raw: raw, words: words}, nil
}

// MustParseTemplate is like ParseTemplate but panics on error. For tests and
// compiled-in defaults only.
func MustParseTemplate(raw string) Template {
	t, err := ParseTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template as written.
func (t Template) String() string {
	return t.raw
}

// Placeholders returns the sorted, de-duplicated placeholder names.
func (t Template) Placeholders() []string {
	seen := make(map[string]struct{})
	for _, w := range t.words {
		for _, m := range placeholder.FindAllStringSubmatch(w, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand substitutes vars into every word. Each word is expanded on its own,
// so a value containing spaces stays a single argument. Unknown placeholders
// are an error.
func (t Template) Expand(vars map[string]string) (Command, error) {
	expanded := make([]string, len(t.words))
	var missing []string

	for i, w := range t.words {
		var unknown []string
		expanded[i], unknown = Substitute(w, vars)
		missing = append(missing, unknown...)
	}

	if len(missing) > 0 {
		return Command{}, fmt.Errorf("command template %q: unknown placeholder(s) %s", t.raw, strings.Join(missing, ", "))
	}

	return Command{Name: expanded[0], Args: expanded[1:]}, nil
}

// Substitute replaces the {{NAME}} markers of s with their values.
// Markers without a value are left in place and their names returned.
func Substitute(s string, vars map[string]string) (string, []string) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-2]
		v, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	return out, missing
}
