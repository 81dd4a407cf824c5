package cli

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/releasekit/internal/config"
	clierrors "github.com/ariel-frischer/releasekit/internal/errors"
	"github.com/ariel-frischer/releasekit/internal/history"
	"github.com/ariel-frischer/releasekit/internal/release"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	pkgName string
	limit   int
	clear   bool
}

func newHistoryCmd(a *app) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "View past publish attempts",
		Long: `View the log of publish attempts with timestamp, package, version, status
and duration. The log lives in <state_dir>/history.yml.`,
		Example: `  releasekit history
  releasekit history --package Fable.Import.Foo -n 5
  releasekit history --clear`,
		GroupID: GroupInfo,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, config.HistoryPath(a.root, a.cfg.StateDir), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.pkgName, "package", "p", "", "Filter by package name (case-insensitive)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Limit to last N entries (most recent)")
	cmd.Flags().BoolVarP(&opts.clear, "clear", "c", false, "Clear all history")

	return cmd
}

func runHistory(cmd *cobra.Command, path string, opts historyOptions) error {
	if opts.limit < 0 {
		return clierrors.NewArgumentError(fmt.Sprintf("limit must be positive, got %d", opts.limit))
	}

	out := cmd.OutOrStdout()

	if opts.clear {
		if err := history.ClearHistory(path); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintln(out, "History cleared.")
		return nil
	}

	histFile, err := history.LoadHistory(path)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	entries := filterEntries(histFile.Entries, opts.pkgName, opts.limit)
	if len(entries) == 0 {
		if opts.pkgName != "" {
			fmt.Fprintf(out, "No matching entries for package '%s'.\n", opts.pkgName)
		} else {
			fmt.Fprintln(out, "No history available.")
		}
		return nil
	}

	displayEntries(cmd, entries)
	return nil
}

// filterEntries filters and limits history entries.
func filterEntries(entries []history.HistoryEntry, pkgFilter string, limit int) []history.HistoryEntry {
	var result []history.HistoryEntry

	for _, entry := range entries {
		if pkgFilter == "" || strings.EqualFold(entry.Package, pkgFilter) {
			result = append(result, entry)
		}
	}

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}

	return result
}

// displayEntries formats and displays history entries.
func displayEntries(cmd *cobra.Command, entries []history.HistoryEntry) {
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, entry := range entries {
		timestamp := entry.Timestamp.Format("2006-01-02 15:04:05")

		status := fmt.Sprintf("%-9s", entry.Status)
		switch release.Status(entry.Status) {
		case release.StatusPublished:
			status = green(status)
		case release.StatusFailed:
			status = red(status)
		default:
			status = yellow(status)
		}

		version := entry.Version
		if version == "" {
			version = "-"
		}

		fmt.Fprintf(out, "%s  %-30s  %-12s  %s  %s\n",
			cyan(timestamp),
			entry.Package,
			version,
			status,
			entry.Duration,
		)
		if entry.Error != "" {
			fmt.Fprintf(out, "    %s\n", red(entry.Error))
		}
	}
}
