// Package changelog parses the human-edited CHANGELOG.md kept next to every
// package.
//
// This package implements:
//   - line-ending normalization and level-2 heading extraction
//   - semantic version parsing of section titles
//   - lookups used by the release flow (in-progress section, latest release)
//   - terminal rendering of a single section's release notes
//
// A changelog is read top-down: the first section is the in-progress section
// (conventionally "## Unreleased") and every following section records a
// released or about-to-be-released version, newest first.
package changelog
