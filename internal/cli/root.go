// Package cli wires the releasekit commands: clean, test, publish, history
// and version.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ariel-frischer/releasekit/internal/build"
	"github.com/ariel-frischer/releasekit/internal/config"
	clierrors "github.com/ariel-frischer/releasekit/internal/errors"
	"github.com/ariel-frischer/releasekit/internal/git"
	"github.com/ariel-frischer/releasekit/internal/progress"
	"github.com/ariel-frischer/releasekit/internal/project"
	"github.com/ariel-frischer/releasekit/internal/runner"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Command group IDs for organizing help output
const (
	GroupRelease = "release"
	GroupInfo    = "info"
)

// app holds the state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	fs        afero.Fs
	lookupEnv config.LookupFunc
	// runner overrides the process runner (tests).
	runner runner.Runner

	configPath string
	chdir      string
	verbose    bool
	quiet      bool

	logger *zap.Logger
	root   string
	cfg    *config.Configuration

	// ran is set once flags and arguments were accepted.
	ran bool
}

// Option customizes the root command.
type Option func(*app)

// WithOutput redirects command output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *app) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithRunner replaces the process runner.
func WithRunner(r runner.Runner) Option {
	return func(a *app) { a.runner = r }
}

// WithLookupEnv replaces the environment lookup used for secrets.
func WithLookupEnv(lookup config.LookupFunc) Option {
	return func(a *app) { a.lookupEnv = lookup }
}

func newApp(opts ...Option) *app {
	a := &app{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		fs:        afero.NewOsFs(),
		lookupEnv: os.LookupEnv,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	return newRootCmd(newApp(opts...))
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "releasekit",
		Short: "Release automation for multi-package repositories",
		Long: `releasekit publishes the packages of a multi-package repository.

For every package it reads CHANGELOG.md, compares the latest released version
with the version recorded in the package manifest, and when they differ it
updates the manifest, builds the package and publishes the artifact. If any
step fails the manifest is restored to its original content.`,
		Example: `  # Remove compiled files and build caches
  releasekit clean

  # Run the tests of every package, then keep watching
  releasekit test --watch

  # Publish every package whose changelog has a new version
  NUGET_KEY=... releasekit publish

  # Show what would be published
  releasekit publish --dry-run`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.ran = true
			return a.setup(cmd)
		},
	}

	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default: .releasekit/config.yml)")
	cmd.PersistentFlags().StringVarP(&a.chdir, "chdir", "C", "", "Run as if started in this directory")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	cmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Hide command output unless a command fails")

	cmd.AddGroup(
		&cobra.Group{ID: GroupRelease, Title: "Release Commands:"},
		&cobra.Group{ID: GroupInfo, Title: "Information:"},
	)

	cmd.AddCommand(
		newCleanCmd(a),
		newTestCmd(a),
		newPublishCmd(a),
		newHistoryCmd(a),
		newVersionCmd(a),
	)

	return cmd
}

// skipConfig marks commands that run without loading the configuration.
const skipConfig = "skip-config"

// setup builds the logger, resolves the repository root and loads the
// configuration.
func (a *app) setup(cmd *cobra.Command) error {
	a.logger = newLogger(a.stderr, a.verbose)
	a.logger.Debug("starting", zap.String("build", build.Summary()), zap.String("command", cmd.CommandPath()))

	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	dir := a.chdir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return clierrors.WrapWithMessage(err, clierrors.Runtime, "getting working directory")
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Argument, "resolving --chdir")
	}

	root, err := git.ResolveRoot(dir, a.logger)
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "finding repository root")
	}
	a.root = root

	cfg, err := config.LoadWithOptions(config.LoadOptions{ProjectConfigPath: a.configPath, Root: root})
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Configuration, "loading configuration",
			"Check .releasekit/config.yml against the documented keys",
			"Environment overrides use the RELEASEKIT_ prefix, e.g. RELEASEKIT_PACKAGES_DIR")
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded", zap.String("root", root), zap.String("packages_dir", cfg.PackagesDir))
	return nil
}

// newLogger returns a debug console logger on w when verbose, a no-op
// logger otherwise.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

func (a *app) enumerator() *project.Enumerator {
	return &project.Enumerator{
		Fs:          a.fs,
		Root:        a.root,
		PackagesDir: a.cfg.PackagesDir,
		Names:       a.cfg.Packages,
	}
}

// processRunner returns the runner external commands go through. In quiet
// mode output is captured and only shown when a command fails.
func (a *app) processRunner() runner.Runner {
	if a.runner != nil {
		return a.runner
	}
	if a.quiet {
		return &quietRunner{
			inner:   &runner.ExecRunner{Timeout: a.cfg.CommandTimeout, Logger: a.logger},
			spinner: progress.NewSpinner(a.stderr, progress.DetectTerminalCapabilities()),
			out:     a.stderr,
		}
	}
	return &runner.ExecRunner{
		Stdout:  a.stdout,
		Stderr:  a.stderr,
		Timeout: a.cfg.CommandTimeout,
		Logger:  a.logger,
	}
}

// interruptible cancels ctx on SIGINT or SIGTERM. Running commands are
// killed and the release in flight rolls its manifest back before exiting.
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// Execute runs the CLI with the process arguments and returns the exit code.
func Execute() int {
	return run(context.Background(), os.Args[1:], newApp())
}

func run(ctx context.Context, args []string, a *app) int {
	root := newRootCmd(a)
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if cmd == nil {
		cmd = root
	}
	return a.finish(cmd, err)
}

// finish prints err and maps it to an exit code. cmd is the command that
// failed; its usage line accompanies argument errors.
func (a *app) finish(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	cliErr := toCLIError(err, a.ran)
	if cliErr.Category == clierrors.Argument && cliErr.Usage == "" {
		cliErr.Usage = cmd.UseLine()
		cliErr.Remediation = append(cliErr.Remediation, fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
	}
	clierrors.FprintError(a.stderr, cliErr)
	a.logger.Debug("command failed", zap.Error(err))
	return exitCode(cliErr)
}
