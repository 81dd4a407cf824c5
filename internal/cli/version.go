package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/ariel-frischer/releasekit/internal/build"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Display version information",
		Long:        "Display version, commit, build date, and Go version information for releasekit",
		Example:     "  releasekit version\n  releasekit version --plain",
		GroupID:     GroupInfo,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			if plain {
				fmt.Fprintln(cmd.OutOrStdout(), build.Summary())
				return
			}
			printPrettyVersion(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Plain output without formatting")

	return cmd
}

func printPrettyVersion(out io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(out, "%s %s\n", cyan("releasekit"), build.Version)
	info := []struct {
		label string
		value string
	}{
		{"Commit", truncateCommit(build.Commit)},
		{"Built", build.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
	for _, item := range info {
		fmt.Fprintf(out, "  %s  %s\n", yellow(fmt.Sprintf("%-8s", item.label)), item.value)
	}
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
