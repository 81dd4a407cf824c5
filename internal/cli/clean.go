package cli

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/releasekit/internal/clean"
	"github.com/spf13/cobra"
)

func newCleanCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete compiled files and build caches",
		Long: `Delete the JavaScript generated by Fable and the .fable, obj and bin
cache folders. The patterns come from clean_files and clean_dirs in the
configuration.`,
		Example: `  releasekit clean
  releasekit clean --dry-run`,
		GroupID: GroupRelease,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.clean(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, p := range append(result.Files, result.Dirs...) {
					fmt.Fprintf(out, "would remove %s\n", p)
				}
				return nil
			}
			if !a.quiet {
				fmt.Fprintf(out, "Removed %d file(s) and %d folder(s)\n", len(result.Files), len(result.Dirs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed without removing it")

	return cmd
}

// clean removes generated files below the repository root.
func (a *app) clean(ctx context.Context, dryRun bool) (*clean.Result, error) {
	c := &clean.Cleaner{
		Fs:     a.fs,
		Root:   a.root,
		Files:  a.cfg.CleanFiles,
		Dirs:   a.cfg.CleanDirs,
		DryRun: dryRun,
		Logger: a.logger,
	}
	result, err := c.Clean(ctx)
	if err != nil {
		return nil, fmt.Errorf("cleaning compiled files: %w", err)
	}
	return result, nil
}
