// Package tester runs each package's test project, or compiles the package
// when it has none, stopping at the first failure.
package tester

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/releasekit/internal/project"
	"github.com/ariel-frischer/releasekit/internal/runner"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Reporter receives the human-readable trace.
type Reporter interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Success(format string, args ...interface{})
}

// Options configures a test pass.
type Options struct {
	// TestProjectGlob and ManifestGlob are relative to the package directory.
	TestProjectGlob string
	ManifestGlob    string
	// Test runs once per test project; Fallback runs when there is none.
	Test     runner.Template
	Fallback runner.Template
}

// Failure identifies the package whose tests failed.
type Failure struct {
	Package string
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("testing %s: %v", f.Package, f.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (f *Failure) Unwrap() error {
	return f.Err
}

// Tester runs test passes.
type Tester struct {
	opts     Options
	fs       afero.Fs
	runner   runner.Runner
	reporter Reporter
	logger   *zap.Logger
}

// New creates a Tester. A nil logger disables structured logging.
func New(opts Options, fs afero.Fs, r runner.Runner, reporter Reporter, logger *zap.Logger) *Tester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tester{opts: opts, fs: fs, runner: r, reporter: reporter, logger: logger}
}

// Run tests packages in order and returns a *Failure for the first one that
// fails.
func (t *Tester) Run(ctx context.Context, packages []project.Package) error {
	for _, pkg := range packages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.testPackage(ctx, pkg); err != nil {
			t.reporter.Error("error while testing %s, stopping here: %v", pkg.Name, err)
			return &Failure{Package: pkg.Name, Err: err}
		}
		t.reporter.Success("testing %s done", pkg.Name)
	}
	return nil
}

func (t *Tester) testPackage(ctx context.Context, pkg project.Package) error {
	t.reporter.Info("begin testing %s", pkg.Name)

	manifestPath, err := project.FindSingleFile(t.fs, pkg.Dir, t.opts.ManifestGlob)
	if err != nil {
		return err
	}

	var testProjects []string
	if t.opts.TestProjectGlob != "" {
		testProjects, err = project.FindFiles(t.fs, pkg.Dir, t.opts.TestProjectGlob)
		if err != nil {
			return err
		}
	}

	vars := map[string]string{
		"PACKAGE":      pkg.Name,
		"PACKAGE_DIR":  pkg.Dir,
		"MANIFEST":     manifestPath,
		"TEST_PROJECT": "",
	}

	if len(testProjects) == 0 {
		t.reporter.Info("no tests project found for %s, checking that it compiles", pkg.Name)
		return t.spawn(ctx, pkg, t.opts.Fallback, vars)
	}

	for _, tp := range testProjects {
		vars["TEST_PROJECT"] = tp
		if err := t.spawn(ctx, pkg, t.opts.Test, vars); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tester) spawn(ctx context.Context, pkg project.Package, tmpl runner.Template, vars map[string]string) error {
	cmd, err := tmpl.Expand(vars)
	if err != nil {
		return err
	}
	cmd.Dir = pkg.Dir

	t.logger.Debug("running tests", zap.String("package", pkg.Name), zap.String("command", cmd.String()))
	result, err := t.runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if !result.Success() {
		return &runner.ExitError{Command: cmd.Name, ExitCode: result.ExitCode}
	}
	return nil
}
