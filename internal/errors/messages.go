package errors

import (
	"fmt"
	"strings"
)

// Common error messages for the releasekit CLI.
// These templates ensure consistent, actionable error messages.

// MissingEnvVariables creates an error for required secrets absent from the environment.
func MissingEnvVariables(names []string) *CLIError {
	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = fmt.Sprintf("missing environment variable %s", name)
	}
	return NewConfigError(
		strings.Join(msgs, "; "),
		fmt.Sprintf("Export the variable before running: export %s=<value>", names[0]),
		"Or remove it from required_secrets in .releasekit/config.yml",
	)
}

// PackageNotFound creates an error for a --package name that matches nothing.
func PackageNotFound(name string, available []string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("package %q not found", name),
		fmt.Sprintf("Available packages: %s", strings.Join(available, ", ")),
		"If you just created it, check packages_dir and packages in .releasekit/config.yml",
	)
}

// MalformedChangelog creates an error for a changelog that cannot drive a release.
func MalformedChangelog(pkg, reason string) *CLIError {
	return NewMalformedInputError(
		fmt.Sprintf("malformed CHANGELOG.md in %s: %s", pkg, reason),
		"The first section must be the in-progress section (e.g. '## Unreleased')",
		"The second section must be a SEMVER compliant version (e.g. '## 1.2.0')",
	)
}

// ReleaseFailed creates an error for a build, artifact or publish step that failed.
func ReleaseFailed(pkg, step string, rolledBack bool) *CLIError {
	restored := "The manifest was restored to its original content"
	if !rolledBack {
		restored = "The manifest could NOT be restored; check it with 'git diff' before retrying"
	}
	return NewExternalToolError(
		fmt.Sprintf("something went wrong while publishing %s (%s step)", pkg, step),
		restored,
		"Fix the failing step and run 'releasekit publish' again",
	)
}

// PublishLocked creates an error for a publish run already in progress.
func PublishLocked(pid int, lockPath string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("another publish run is in progress (pid %d)", pid),
		"Wait for the other run to finish",
		fmt.Sprintf("If no run is active, remove the stale lock: rm %s", lockPath),
	)
}
