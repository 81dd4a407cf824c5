package cli

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/releasekit/internal/config"
	"github.com/ariel-frischer/releasekit/internal/git"
	"github.com/ariel-frischer/releasekit/internal/history"
	"github.com/ariel-frischer/releasekit/internal/lock"
	"github.com/ariel-frischer/releasekit/internal/output"
	"github.com/ariel-frischer/releasekit/internal/project"
	"github.com/ariel-frischer/releasekit/internal/release"
	"github.com/ariel-frischer/releasekit/internal/runner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type publishOptions struct {
	pkgName   string
	dryRun    bool
	withTests bool
}

func newPublishCmd(a *app) *cobra.Command {
	var opts publishOptions

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish every package whose changelog has a new version",
		Long: `For each package, in order:
  1. Read CHANGELOG.md; the first section must be the in-progress section
     and the second one the version to release
  2. Skip the package when its manifest already records that version
  3. Update the version in the manifest
  4. Build the package and locate the artifact
  5. Publish the artifact

If anything fails after the manifest was updated, the manifest is restored
to its original content and the run stops. Every secret listed in
required_secrets must be set in the environment.`,
		Example: `  NUGET_KEY=... releasekit publish
  releasekit publish --dry-run
  NUGET_KEY=... releasekit publish --package Fable.Import.Foo --with-tests`,
		GroupID: GroupRelease,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd.Context())
			defer stop()
			return a.publish(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.pkgName, "package", "p", "", "Publish only this package (case-insensitive)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would be published without changing anything")
	cmd.Flags().BoolVar(&opts.withTests, "with-tests", false, "Clean and test the packages before publishing")

	return cmd
}

func (a *app) publish(ctx context.Context, opts publishOptions) error {
	secrets, err := config.ResolveSecrets(a.cfg.RequiredSecrets, a.lookupEnv)
	if err != nil {
		return err
	}

	pkgs, err := a.enumerator().Select(opts.pkgName)
	if err != nil {
		return err
	}

	releaseOpts, err := a.releaseOptions(secrets, opts.dryRun)
	if err != nil {
		return err
	}

	if !opts.dryRun {
		l, err := lock.Acquire(config.LockPath(a.root, a.cfg.StateDir), packageNames(pkgs))
		if err != nil {
			return err
		}
		defer func() {
			if err := l.Release(); err != nil {
				a.logger.Warn("releasing publish lock", zap.Error(err))
			}
		}()
	}

	if opts.withTests {
		if _, err := a.clean(ctx, false); err != nil {
			return err
		}
		t, err := a.tester()
		if err != nil {
			return err
		}
		if err := t.Run(ctx, pkgs); err != nil {
			return err
		}
	}

	if branch, err := git.CurrentBranch(a.root); err == nil {
		a.logger.Debug("publishing", zap.String("branch", branch), zap.Strings("packages", packageNames(pkgs)))
	}

	reporter := output.NewReporter(a.stdout, a.quiet)
	orch := release.New(releaseOpts, a.fs, a.processRunner(), reporter, a.logger).
		WithHistory(history.NewWriter(config.HistoryPath(a.root, a.cfg.StateDir), a.cfg.MaxHistoryEntries))

	summary, runErr := orch.Run(ctx, pkgs)
	printPublishSummary(a, summary)
	return runErr
}

func (a *app) releaseOptions(secrets config.Secrets, dryRun bool) (release.Options, error) {
	buildTmpl, err := runner.ParseTemplate(a.cfg.BuildCommand)
	if err != nil {
		return release.Options{}, fmt.Errorf("build_command: %w", err)
	}
	publishTmpl, err := runner.ParseTemplate(a.cfg.PublishCommand)
	if err != nil {
		return release.Options{}, fmt.Errorf("publish_command: %w", err)
	}

	return release.Options{
		Marker:        a.cfg.InProgressMarker,
		ManifestGlob:  a.cfg.ManifestGlob,
		ChangelogPath: a.cfg.ChangelogPath,
		ArtifactGlob:  a.cfg.ArtifactGlob,
		Build:         buildTmpl,
		Publish:       publishTmpl,
		Secrets:       secrets,
		DryRun:        dryRun,
		Notes:         a.stdout,
	}, nil
}

func printPublishSummary(a *app, summary *release.Summary) {
	if summary == nil {
		return
	}
	output.PrintSummary(a.stdout, []output.Count{
		{Label: "published", N: summary.Count(release.StatusPublished)},
		{Label: "would be published", N: summary.Count(release.StatusDryRun)},
		{Label: "already published", N: summary.Count(release.StatusSkipped)},
		{Label: "failed", N: summary.Count(release.StatusFailed)},
	})
}

func packageNames(pkgs []project.Package) []string {
	names := make([]string, len(pkgs))
	for i, p := range pkgs {
		names[i] = p.Name
	}
	return names
}
