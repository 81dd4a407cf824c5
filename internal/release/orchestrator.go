package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ariel-frischer/releasekit/internal/changelog"
	"github.com/ariel-frischer/releasekit/internal/config"
	"github.com/ariel-frischer/releasekit/internal/manifest"
	"github.com/ariel-frischer/releasekit/internal/project"
	"github.com/ariel-frischer/releasekit/internal/runner"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Reporter receives the human-readable trace of a run.
type Reporter interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Success(format string, args ...interface{})
}

// HistoryRecorder persists package outcomes. Failures are reported as
// warnings and never stop a run.
type HistoryRecorder interface {
	Record(outcome Outcome) error
}

// Options is the immutable configuration of one run.
type Options struct {
	// Marker is the exact title of the in-progress changelog section.
	Marker string
	// ManifestGlob, ChangelogPath and ArtifactGlob are relative to the
	// package directory. ArtifactGlob may use {{PACKAGE}} and {{VERSION}}.
	ManifestGlob  string
	ChangelogPath string
	ArtifactGlob  string

	Build   runner.Template
	Publish runner.Template

	Secrets config.Secrets
	DryRun  bool

	// Notes receives the release notes of every published version when set.
	Notes io.Writer
}

// ManifestState is the manifest of the package under release, as read at
// the start of the attempt.
type ManifestState struct {
	*manifest.Manifest
	mode os.FileMode
}

// Orchestrator releases packages one at a time. Any failure after the
// manifest was rewritten restores its original bytes before the run aborts.
type Orchestrator struct {
	opts     Options
	fs       afero.Fs
	runner   runner.Runner
	reporter Reporter
	logger   *zap.Logger
	history  HistoryRecorder
}

// New creates an Orchestrator. A nil logger disables structured logging.
func New(opts Options, fs afero.Fs, r runner.Runner, reporter Reporter, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		opts:     opts,
		fs:       fs,
		runner:   r,
		reporter: reporter,
		logger:   logger,
	}
}

// WithHistory makes the orchestrator record every outcome to h.
func (o *Orchestrator) WithHistory(h HistoryRecorder) *Orchestrator {
	o.history = h
	return o
}

// Run processes packages in order and stops at the first failure.
// The returned Summary holds every outcome up to and including the failing
// package. The error is an *AbortError, possibly joined with a *RestoreError.
func (o *Orchestrator) Run(ctx context.Context, packages []project.Package) (*Summary, error) {
	summary := &Summary{}

	for _, pkg := range packages {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		start := time.Now()
		outcome, err := o.release(ctx, pkg)
		outcome.Package = pkg.Name
		outcome.Duration = time.Since(start)
		if err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
		}

		summary.Outcomes = append(summary.Outcomes, outcome)
		o.record(outcome)

		if err != nil {
			o.logger.Error("release aborted", zap.String("package", pkg.Name), zap.Error(err))
			return summary, err
		}
	}

	return summary, nil
}

// release runs one attempt for pkg.
func (o *Orchestrator) release(ctx context.Context, pkg project.Package) (Outcome, error) {
	log := o.logger.With(zap.String("package", pkg.Name))

	state, doc, err := o.load(pkg)
	if err != nil {
		o.reporter.Error("%v", err)
		return Outcome{}, err
	}

	if n := manifest.CountVersionFields(string(state.Content)); n > 1 {
		o.reporter.Warn("%s: %s has %d <Version> fields, only the first is updated", pkg.Name, state.Path, n)
	}

	decision := Reconcile(*doc, state.Version, o.opts.Marker)
	log.Debug("reconciled",
		zap.String("decision", decision.Kind.String()),
		zap.String("recorded", state.Version),
		zap.String("reason", decision.Reason))

	switch decision.Kind {
	case DecisionMalformed:
		o.reporter.Error("%s: %s", pkg.Name, decision.Reason)
		return Outcome{}, &AbortError{
			Package: pkg.Name,
			Kind:    AbortMalformed,
			Err:     &ChangelogError{Path: pkg.Path(o.opts.ChangelogPath), Reason: decision.Reason},
		}
	case DecisionNoOp:
		o.reporter.Info("%s: %s already published, skipping", pkg.Name, state.Version)
		return Outcome{Status: StatusSkipped, Version: state.Version}, nil
	}

	target := decision.Target.String()
	if decision.Downgrade {
		o.reporter.Warn("%s: %s is older than the recorded version %s", pkg.Name, target, state.Version)
	}

	if o.opts.DryRun {
		o.reporter.Info("%s: would publish %s (currently %s)", pkg.Name, target, state.Version)
		return Outcome{Status: StatusDryRun, Version: target}, nil
	}

	o.reporter.Info("%s: publishing %s (currently %s)", pkg.Name, target, state.Version)

	updated, err := state.WithVersion(target)
	if err != nil {
		abort := &AbortError{Package: pkg.Name, Kind: AbortMalformed, Err: err}
		o.reporter.Error("%v", abort)
		return Outcome{Version: target}, abort
	}

	artifact, err := o.attempt(ctx, pkg, state, target, updated)
	if err != nil {
		return Outcome{Version: target}, o.rollback(pkg, state, err)
	}

	o.reporter.Success("%s: published %s", pkg.Name, target)
	log.Info("published", zap.String("version", target), zap.String("artifact", artifact))
	o.printNotes(pkg, doc, target)

	return Outcome{Status: StatusPublished, Version: target, Artifact: artifact}, nil
}

// load reads the manifest and changelog of pkg.
func (o *Orchestrator) load(pkg project.Package) (*ManifestState, *changelog.Document, error) {
	path, err := project.FindSingleFile(o.fs, pkg.Dir, o.opts.ManifestGlob)
	if err != nil {
		return nil, nil, o.abort(pkg, err)
	}

	m, err := manifest.Load(o.fs, path)
	if err != nil {
		return nil, nil, o.abort(pkg, err)
	}

	mode := os.FileMode(0o644)
	if info, err := o.fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	doc, err := changelog.Load(o.fs, pkg.Path(o.opts.ChangelogPath))
	if err != nil {
		return nil, nil, o.abort(pkg, err)
	}
	o.logger.Debug("changelog loaded", zap.String("package", pkg.Name), zap.Strings("sections", doc.Titles()))

	return &ManifestState{Manifest: m, mode: mode}, doc, nil
}

// abort classifies a load error: content problems are malformed input,
// everything else is I/O.
func (o *Orchestrator) abort(pkg project.Package, err error) *AbortError {
	var (
		fieldErr *manifest.FieldError
		matchErr *project.MatchError
	)
	kind := AbortIO
	if errors.As(err, &fieldErr) || errors.As(err, &matchErr) {
		kind = AbortMalformed
	}
	return &AbortError{Package: pkg.Name, Kind: kind, Err: err}
}

// attempt is the guarded scope: it writes the new manifest, builds, locates
// the artifact and publishes it. On error the caller restores the manifest.
func (o *Orchestrator) attempt(ctx context.Context, pkg project.Package, state *ManifestState, version string, updated []byte) (string, error) {
	if err := afero.WriteFile(o.fs, state.Path, updated, state.mode); err != nil {
		return "", &AbortError{Package: pkg.Name, Kind: AbortIO, Err: fmt.Errorf("writing manifest: %w", err)}
	}
	o.logger.Debug("manifest rewritten", zap.String("path", state.Path), zap.String("version", version))

	vars := map[string]string{
		"PACKAGE":     pkg.Name,
		"PACKAGE_DIR": pkg.Dir,
		"MANIFEST":    state.Path,
		"VERSION":     version,
	}

	if err := o.spawn(ctx, pkg, o.opts.Build, vars); err != nil {
		return "", &AbortError{Package: pkg.Name, Kind: AbortBuild, Err: err}
	}

	artifact, err := o.locateArtifact(pkg, vars)
	if err != nil {
		return "", &AbortError{Package: pkg.Name, Kind: AbortArtifact, Err: err}
	}

	vars["ARTIFACT"] = artifact
	for name, value := range o.opts.Secrets {
		vars[name] = value
	}

	if err := o.spawn(ctx, pkg, o.opts.Publish, vars); err != nil {
		return "", &AbortError{Package: pkg.Name, Kind: AbortPublish, Err: err}
	}

	return artifact, nil
}

// spawn expands tmpl and runs it in the package directory.
func (o *Orchestrator) spawn(ctx context.Context, pkg project.Package, tmpl runner.Template, vars map[string]string) error {
	cmd, err := tmpl.Expand(vars)
	if err != nil {
		return err
	}
	cmd.Dir = pkg.Dir
	cmd.Redact = o.opts.Secrets.Values()

	o.reporter.Info("%s: running %s", pkg.Name, cmd)

	result, err := o.runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if !result.Success() {
		return &runner.ExitError{Command: cmd.Name, ExitCode: result.ExitCode}
	}
	return nil
}

// locateArtifact finds the single artifact built for this version.
func (o *Orchestrator) locateArtifact(pkg project.Package, vars map[string]string) (string, error) {
	pattern, missing := runner.Substitute(o.opts.ArtifactGlob, vars)
	if len(missing) > 0 {
		return "", fmt.Errorf("artifact pattern %q: unknown placeholder(s) %v", o.opts.ArtifactGlob, missing)
	}
	return project.FindSingleFile(o.fs, pkg.Dir, pattern)
}

// rollback restores the original manifest bytes after a failed attempt.
func (o *Orchestrator) rollback(pkg project.Package, state *ManifestState, cause error) error {
	var abort *AbortError
	if !errors.As(cause, &abort) {
		abort = &AbortError{Package: pkg.Name, Kind: AbortIO, Err: cause}
	}

	if err := afero.WriteFile(o.fs, state.Path, state.Content, state.mode); err != nil {
		restoreErr := &RestoreError{Path: state.Path, Err: err}
		o.reporter.Error("%v", abort)
		o.reporter.Error("%s: could NOT restore %s, it still records the new version: %v", pkg.Name, state.Path, err)
		o.logger.Error("manifest restore failed", zap.String("path", state.Path), zap.Error(err))
		return errors.Join(abort, restoreErr)
	}

	abort.RolledBack = true
	o.reporter.Error("%v", abort)
	o.reporter.Warn("%s: restored %s to version %s", pkg.Name, state.Path, state.Version)
	return abort
}

func (o *Orchestrator) printNotes(pkg project.Package, doc *changelog.Document, version string) {
	if o.opts.Notes == nil {
		return
	}
	entry, err := doc.Find(version)
	if err != nil {
		o.reporter.Warn("%s: release notes: %v", pkg.Name, err)
		return
	}
	if err := changelog.FormatEntry(*entry, o.opts.Notes, changelog.FormatOptions{Indent: "  "}); err != nil {
		o.reporter.Warn("%s: printing release notes: %v", pkg.Name, err)
	}
}

func (o *Orchestrator) record(outcome Outcome) {
	if o.history == nil {
		return
	}
	if err := o.history.Record(outcome); err != nil {
		o.reporter.Warn("could not record history for %s: %v", outcome.Package, err)
	}
}
