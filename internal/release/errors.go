package release

import "fmt"

// AbortKind names the step that stopped a run.
type AbortKind string

const (
	AbortMalformed AbortKind = "malformed"
	AbortBuild     AbortKind = "build"
	AbortArtifact  AbortKind = "artifact"
	AbortPublish   AbortKind = "publish"
	AbortIO        AbortKind = "io"
)

// AbortError stops the whole run at package Package.
// RolledBack reports whether a rewritten manifest was restored; it is false
// both when nothing was written and when the restore failed.
type AbortError struct {
	Package    string
	Kind       AbortKind
	Err        error
	RolledBack bool
}

func (e *AbortError) Error() string {
	if e.Kind == AbortMalformed {
		return fmt.Sprintf("package %s: %v", e.Package, e.Err)
	}
	return fmt.Sprintf("package %s: %s step failed: %v", e.Package, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *AbortError) Unwrap() error {
	return e.Err
}

// RestoreError reports a manifest that could not be put back after a failed
// attempt. Its content on disk is the rewritten one.
type RestoreError struct {
	Path string
	Err  error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restoring manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *RestoreError) Unwrap() error {
	return e.Err
}

// ChangelogError is the reason a changelog cannot drive a release.
type ChangelogError struct {
	Path   string
	Reason string
}

func (e *ChangelogError) Error() string {
	return e.Reason
}
