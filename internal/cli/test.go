package cli

import (
	"context"
	"errors"
	"time"

	"github.com/ariel-frischer/releasekit/internal/output"
	"github.com/ariel-frischer/releasekit/internal/runner"
	"github.com/ariel-frischer/releasekit/internal/tester"
	"github.com/ariel-frischer/releasekit/internal/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTestCmd(a *app) *cobra.Command {
	var (
		pkgName   string
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Clean, then run the tests of every package",
		Long: `Clean compiled files, then test each package in order. A package with a
test project (test_project_glob) runs test_command once per test project;
a package without one runs fallback_test_command to check that it compiles.
The run stops at the first failing package.

With --watch the tests run once, then again every time a file under
watch_paths changes, until interrupted.`,
		Example: `  releasekit test
  releasekit test --package Fable.Import.Foo
  releasekit test -w`,
		GroupID: GroupRelease,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.clean(cmd.Context(), false); err != nil {
				return err
			}
			if !watchMode {
				return a.test(cmd.Context(), pkgName)
			}

			ctx, stop := interruptible(cmd.Context())
			defer stop()
			return a.watchTests(ctx, pkgName)
		},
	}

	cmd.Flags().StringVarP(&pkgName, "package", "p", "", "Test only this package (case-insensitive)")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Re-run the tests when files change")

	return cmd
}

// test runs one test pass over the selected packages.
func (a *app) test(ctx context.Context, pkgName string) error {
	pkgs, err := a.enumerator().Select(pkgName)
	if err != nil {
		return err
	}

	t, err := a.tester()
	if err != nil {
		return err
	}
	return t.Run(ctx, pkgs)
}

func (a *app) tester() (*tester.Tester, error) {
	testTmpl, err := runner.ParseTemplate(a.cfg.TestCommand)
	if err != nil {
		return nil, err
	}
	fallback, err := runner.ParseTemplate(a.cfg.FallbackTestCommand)
	if err != nil {
		return nil, err
	}

	opts := tester.Options{
		TestProjectGlob: a.cfg.TestProjectGlob,
		ManifestGlob:    a.cfg.ManifestGlob,
		Test:            testTmpl,
		Fallback:        fallback,
	}
	return tester.New(opts, a.fs, a.processRunner(), output.NewReporter(a.stdout, a.quiet), a.logger), nil
}

// watchTests runs the tests, then re-runs them on every change until ctx
// is cancelled. Test failures are reported and the watch goes on.
func (a *app) watchTests(ctx context.Context, pkgName string) error {
	reporter := output.NewReporter(a.stdout, false)

	opts := []watch.Option{watch.WithLogger(a.logger)}
	if len(a.cfg.WatchIgnore) > 0 {
		opts = append(opts, watch.WithIgnore(a.cfg.WatchIgnore...))
	}
	w, err := watch.New(a.root, a.cfg.WatchPaths, opts...)
	if err != nil {
		return err
	}
	defer w.Close()

	pass := func(ctx context.Context) {
		output.PrintSectionHeader(a.stdout, "tests "+time.Now().Format("15:04:05"))
		err := a.test(ctx, pkgName)
		var failure *tester.Failure
		if err != nil && ctx.Err() == nil && !errors.As(err, &failure) {
			reporter.Error("%v", err)
		}
		a.logger.Debug("test pass finished", zap.Error(err))
		if ctx.Err() == nil {
			reporter.Info("watching for changes, press Ctrl+C to stop")
		}
	}

	pass(ctx)
	return w.Run(ctx, func(ctx context.Context, changed []string) {
		reporter.Info("%d file(s) changed, running the tests again", len(changed))
		pass(ctx)
	})
}
