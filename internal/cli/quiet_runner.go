package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/releasekit/internal/progress"
	"github.com/ariel-frischer/releasekit/internal/runner"
)

// quietRunner replaces command output with a spinner line and replays the
// captured output only when the command fails.
type quietRunner struct {
	inner   runner.Runner
	spinner *progress.Spinner
	out     io.Writer
}

func (q *quietRunner) Run(ctx context.Context, cmd runner.Command) (runner.Result, error) {
	q.spinner.Start(cmd.String())
	result, err := q.inner.Run(ctx, cmd)

	ok := err == nil && result.Success()
	q.spinner.Stop(ok)
	if !ok && result.Output != "" {
		fmt.Fprint(q.out, redact(result.Output, cmd.Redact))
	}
	return result, err
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "***")
		}
	}
	return s
}
