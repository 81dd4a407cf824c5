package changelog

import "github.com/blang/semver/v4"

// Document is the parsed form of a CHANGELOG.md file.
// Versions are kept in document order: index 0 is the in-progress section.
type Document struct {
	Versions []VersionEntry
}

// VersionEntry is one "## " section of the changelog.
// Version is nil when the title does not start with a valid semantic version,
// which is always the case for the in-progress section.
type VersionEntry struct {
	Title   string
	Version *semver.Version
	// Date is the YYYY-MM-DD suffix of a "## 1.2.0 - 2024-01-15" heading, if any.
	Date string
	// Body is the raw markdown between this heading and the next one.
	Body string
}

// HasVersion reports whether the section title parsed as a semantic version.
func (e VersionEntry) HasVersion() bool {
	return e.Version != nil
}

// VersionString returns the parsed version, or "" when the title is not a version.
func (e VersionEntry) VersionString() string {
	if e.Version == nil {
		return ""
	}
	return e.Version.String()
}
