package changelog

import (
	"fmt"
	"strings"
)

// VersionNotFoundError is returned when a requested version doesn't exist.
type VersionNotFoundError struct {
	Version           string
	AvailableVersions []string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %q not found (available: %s)",
		e.Version, strings.Join(e.AvailableVersions, ", "))
}

// InProgress returns the first section when its title equals marker exactly.
// Returns nil otherwise, including for an empty document.
func (d *Document) InProgress(marker string) *VersionEntry {
	if len(d.Versions) == 0 || d.Versions[0].Title != marker {
		return nil
	}
	return &d.Versions[0]
}

// Find retrieves the section for a specific version.
// Accepts both "v1.2.0" and "1.2.0".
func (d *Document) Find(version string) (*VersionEntry, error) {
	want, err := ParseVersion(version)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", version, err)
	}

	for i := range d.Versions {
		if v := d.Versions[i].Version; v != nil && v.Equals(want) {
			return &d.Versions[i], nil
		}
	}

	return nil, &VersionNotFoundError{
		Version:           version,
		AvailableVersions: d.ListVersions(),
	}
}

// ListVersions returns the versions of every versioned section, newest first.
func (d *Document) ListVersions() []string {
	versions := make([]string, 0, len(d.Versions))
	for _, v := range d.Versions {
		if v.HasVersion() {
			versions = append(versions, v.VersionString())
		}
	}
	return versions
}

// Titles returns every section title in document order.
func (d *Document) Titles() []string {
	titles := make([]string, len(d.Versions))
	for i, v := range d.Versions {
		titles[i] = v.Title
	}
	return titles
}
