package cli

import (
	"context"
	"errors"

	"github.com/ariel-frischer/releasekit/internal/config"
	clierrors "github.com/ariel-frischer/releasekit/internal/errors"
	"github.com/ariel-frischer/releasekit/internal/lock"
	"github.com/ariel-frischer/releasekit/internal/project"
	"github.com/ariel-frischer/releasekit/internal/release"
	"github.com/ariel-frischer/releasekit/internal/tester"
)

// Exit codes for the releasekit CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitReleaseFailed indicates a malformed changelog or manifest, or a
	// failed build, test or publish step
	ExitReleaseFailed = 1

	// ExitConfigError indicates invalid configuration, missing secrets, an
	// unknown package or a publish run already in progress
	ExitConfigError = 2

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3
)

// exitCode maps an error category to the process exit code.
func exitCode(err *clierrors.CLIError) int {
	switch err.Category {
	case clierrors.Argument:
		return ExitInvalidArguments
	case clierrors.Configuration:
		return ExitConfigError
	default:
		return ExitReleaseFailed
	}
}

// toCLIError turns any command error into a categorized CLIError. Errors
// returned before the command started running come from cobra's flag and
// argument parsing.
func toCLIError(err error, ran bool) *clierrors.CLIError {
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		return cliErr
	}
	if !ran {
		return clierrors.Wrap(err, clierrors.Argument)
	}

	var (
		missing   *config.MissingEnvError
		notFound  *project.NotFoundError
		held      *lock.HeldError
		invalid   *config.ValidationError
		changelog *release.ChangelogError
		abort     *release.AbortError
		testFail  *tester.Failure
	)

	switch {
	case errors.As(err, &missing):
		return clierrors.MissingEnvVariables(missing.Names)
	case errors.As(err, &notFound):
		return clierrors.PackageNotFound(notFound.Name, notFound.Available)
	case errors.As(err, &held):
		return clierrors.PublishLocked(held.Lock.PID, held.Path)
	case errors.As(err, &invalid):
		return clierrors.Wrap(err, clierrors.Configuration, "Check .releasekit/config.yml")
	case errors.As(err, &changelog) && errors.As(err, &abort):
		return clierrors.MalformedChangelog(abort.Package, changelog.Reason)
	case errors.As(err, &abort):
		return abortError(err, abort)
	case errors.As(err, &testFail):
		return clierrors.WrapWithMessage(testFail.Err, clierrors.ExternalTool, "tests failed for "+testFail.Package,
			"Run 'releasekit test --package "+testFail.Package+"' to reproduce")
	case errors.Is(err, context.Canceled):
		return clierrors.NewRuntimeError("interrupted")
	default:
		return clierrors.Wrap(err, clierrors.Runtime)
	}
}

func abortError(err error, abort *release.AbortError) *clierrors.CLIError {
	switch abort.Kind {
	case release.AbortMalformed:
		return clierrors.Wrap(err, clierrors.MalformedInput,
			"Every package needs exactly one manifest with a <Version> field")
	case release.AbortIO:
		if !abort.RolledBack && !isRestoreFailure(err) {
			return clierrors.Wrap(err, clierrors.Runtime)
		}
	}
	return clierrors.ReleaseFailed(abort.Package, string(abort.Kind), abort.RolledBack)
}

func isRestoreFailure(err error) bool {
	var restore *release.RestoreError
	return errors.As(err, &restore)
}
