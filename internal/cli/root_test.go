package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ariel-frischer/releasekit/internal/config"
	clierrors "github.com/ariel-frischer/releasekit/internal/errors"
	"github.com/ariel-frischer/releasekit/internal/lock"
	"github.com/ariel-frischer/releasekit/internal/project"
	"github.com/ariel-frischer/releasekit/internal/release"
	"github.com/ariel-frischer/releasekit/internal/runner"
	"github.com/ariel-frischer/releasekit/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Structure(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()

	assert.Equal(t, "releasekit", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)
	assert.NotEmpty(t, root.Example)
	assert.Len(t, root.Groups(), 2)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		flagName  string
		shorthand string
	}{
		"config":  {flagName: "config"},
		"chdir":   {flagName: "chdir", shorthand: "C"},
		"verbose": {flagName: "verbose", shorthand: "v"},
		"quiet":   {flagName: "quiet", shorthand: "q"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			flag := NewRootCmd().PersistentFlags().Lookup(tt.flagName)
			require.NotNil(t, flag, "Flag %s should exist", tt.flagName)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		group string
		flags []string
	}{
		"clean":   {group: GroupRelease, flags: []string{"dry-run"}},
		"test":    {group: GroupRelease, flags: []string{"watch", "package"}},
		"publish": {group: GroupRelease, flags: []string{"package", "dry-run", "with-tests"}},
		"history": {group: GroupInfo, flags: []string{"package", "limit", "clear"}},
		"version": {group: GroupInfo, flags: []string{"plain"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cmd, _, err := NewRootCmd().Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
			assert.Equal(t, tt.group, cmd.GroupID)
			for _, f := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(f), "%s should have --%s", name, f)
			}
		})
	}
}

func TestRun_InvalidArguments(t *testing.T) {
	tests := map[string]struct {
		args      []string
		wantUsage string
	}{
		"unknown command":  {args: []string{"deploy"}, wantUsage: "releasekit [flags]"},
		"unknown flag":     {args: []string{"publish", "--force"}, wantUsage: "releasekit publish [flags]"},
		"unexpected arg":   {args: []string{"clean", "extra"}, wantUsage: "releasekit clean [flags]"},
		"missing flag arg": {args: []string{"test", "--package"}, wantUsage: "releasekit test [flags]"},
		"bad flag value":   {args: []string{"history", "--limit", "many"}, wantUsage: "releasekit history [flags]"},
		"negative limit":   {args: []string{"history", "--limit", "-1"}, wantUsage: "releasekit history [flags]"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo := newTestRepo(t)
			repo.addPackage(t, "P", "1.1.0", changelogText)

			res := repo.run(t, tt.args...)

			assert.Equal(t, ExitInvalidArguments, res.code, res)
			assert.Contains(t, res.stderr, "Argument Error")
			assert.Contains(t, res.stderr, "Usage: "+tt.wantUsage)
			assert.Empty(t, repo.runner.calls)
		})
	}
}

func TestToCLIError(t *testing.T) {
	t.Parallel()

	abort := func(kind release.AbortKind, rolledBack bool) error {
		return &release.AbortError{Package: "P", Kind: kind, Err: errors.New("boom"), RolledBack: rolledBack}
	}

	tests := map[string]struct {
		err         error
		ran         bool
		wantCode    int
		wantMessage string
	}{
		"parse error": {
			err:      errors.New(`unknown flag: --force`),
			wantCode: ExitInvalidArguments,
		},
		"cli error passes through": {
			err:         clierrors.NewArgumentError("limit must be positive"),
			ran:         true,
			wantCode:    ExitInvalidArguments,
			wantMessage: "limit must be positive",
		},
		"missing secrets": {
			err:         fmt.Errorf("publish: %w", &config.MissingEnvError{Names: []string{"NUGET_KEY"}}),
			ran:         true,
			wantCode:    ExitConfigError,
			wantMessage: "missing environment variable NUGET_KEY",
		},
		"unknown package": {
			err:         &project.NotFoundError{Name: "X", Available: []string{"A"}},
			ran:         true,
			wantCode:    ExitConfigError,
			wantMessage: `package "X" not found`,
		},
		"lock held": {
			err:         &lock.HeldError{Path: "/r/.releasekit/publish.lock", Lock: lock.PublishLock{PID: 42}},
			ran:         true,
			wantCode:    ExitConfigError,
			wantMessage: "another publish run is in progress (pid 42)",
		},
		"invalid config": {
			err:      &config.ValidationError{Field: "command_timeout", Message: "must be positive"},
			ran:      true,
			wantCode: ExitConfigError,
		},
		"malformed changelog": {
			err: &release.AbortError{Package: "P", Kind: release.AbortMalformed,
				Err: &release.ChangelogError{Reason: release.ReasonNotSemver}},
			ran:         true,
			wantCode:    ExitReleaseFailed,
			wantMessage: "malformed CHANGELOG.md in P: release version is not semver-compliant",
		},
		"malformed manifest": {
			err:         abort(release.AbortMalformed, false),
			ran:         true,
			wantCode:    ExitReleaseFailed,
			wantMessage: "package P: boom",
		},
		"build failed": {
			err:         abort(release.AbortBuild, true),
			ran:         true,
			wantCode:    ExitReleaseFailed,
			wantMessage: "something went wrong while publishing P (build step)",
		},
		"restore failed": {
			err:         errors.Join(abort(release.AbortPublish, false), &release.RestoreError{Path: "m", Err: errors.New("ro")}),
			ran:         true,
			wantCode:    ExitReleaseFailed,
			wantMessage: "something went wrong while publishing P (publish step)",
		},
		"read failed": {
			err:         abort(release.AbortIO, false),
			ran:         true,
			wantCode:    ExitReleaseFailed,
			wantMessage: "package P: io step failed: boom",
		},
		"tests failed": {
			err:         &tester.Failure{Package: "P", Err: &runner.ExitError{Command: "dotnet", ExitCode: 1}},
			ran:         true,
			wantCode:    ExitReleaseFailed,
			wantMessage: "tests failed for P: dotnet exited with status 1",
		},
		"interrupted": {
			err:         context.Canceled,
			ran:         true,
			wantCode:    ExitReleaseFailed,
			wantMessage: "interrupted",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cliErr := toCLIError(tt.err, tt.ran)

			require.NotNil(t, cliErr)
			assert.Equal(t, tt.wantCode, exitCode(cliErr))
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, cliErr.Message)
			}
		})
	}
}
