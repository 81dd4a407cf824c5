// Package manifest reads and rewrites the version recorded in a package
// manifest (an MSBuild project file).
//
// The editor is a targeted text transform: it locates the first
// <Version>...</Version> element and replaces only the characters between the
// tags. Every other byte of the manifest, including formatting, comments and
// line endings, is preserved. When a manifest contains several Version
// elements the first one is authoritative for both reading and writing.
package manifest
