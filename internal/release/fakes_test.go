package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ariel-frischer/releasekit/internal/manifest"
	"github.com/ariel-frischer/releasekit/internal/runner"
	"github.com/spf13/afero"
)

// recordingFs wraps an afero.Fs and logs every path it touches.
type recordingFs struct {
	afero.Fs

	mu      sync.Mutex
	touched []string
	writes  []string
	// failWrite fails the nth write (1-based) to a path.
	failWrite map[string]int
}

func newRecordingFs(inner afero.Fs) *recordingFs {
	return &recordingFs{Fs: inner, failWrite: map[string]int{}}
}

func (r *recordingFs) Open(name string) (afero.File, error) {
	r.touch(name)
	return r.Fs.Open(name)
}

func (r *recordingFs) Stat(name string) (os.FileInfo, error) {
	r.touch(name)
	return r.Fs.Stat(name)
}

func (r *recordingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	r.touch(name)
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		r.mu.Lock()
		r.writes = append(r.writes, filepath.Clean(name))
		n := r.countWrites(filepath.Clean(name))
		fail := r.failWrite[filepath.Clean(name)] == n
		r.mu.Unlock()
		if fail {
			return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("disk full")}
		}
	}
	return r.Fs.OpenFile(name, flag, perm)
}

func (r *recordingFs) touch(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched = append(r.touched, filepath.Clean(name))
}

func (r *recordingFs) countWrites(path string) int {
	n := 0
	for _, w := range r.writes {
		if w == path {
			n++
		}
	}
	return n
}

// touchedUnder reports whether any access happened inside dir.
func (r *recordingFs) touchedUnder(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.touched {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (r *recordingFs) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

// fakeRunner records commands. The "pack" subcommand drops an artifact
// named <Package>.<Version>.nupkg next to the manifest, reading the version
// from the manifest on disk at the time of the call.
type fakeRunner struct {
	fs afero.Fs

	calls []runner.Command
	// fail returns a non-zero exit code for matching commands.
	fail func(cmd runner.Command) bool
	// artifacts is how many artifacts a build produces (default 1).
	artifacts int
	// seenVersions holds the manifest version observed by each build.
	seenVersions []string
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.calls = append(f.calls, cmd)

	if f.fail != nil && f.fail(cmd) {
		return runner.Result{ExitCode: 1}, &runner.ExitError{Command: cmd.Name, ExitCode: 1}
	}

	if len(cmd.Args) > 0 && cmd.Args[0] == "pack" {
		manifestPath := cmd.Args[len(cmd.Args)-1]
		data, err := afero.ReadFile(f.fs, manifestPath)
		if err != nil {
			return runner.Result{ExitCode: 1}, err
		}
		version, err := manifest.ExtractVersion(string(data))
		if err != nil {
			return runner.Result{ExitCode: 1}, err
		}
		f.seenVersions = append(f.seenVersions, version)

		count := f.artifacts
		if count == 0 {
			count = 1
		}
		pkg := filepath.Base(cmd.Dir)
		for i := 0; i < count; i++ {
			name := fmt.Sprintf("%s.%s.nupkg", pkg, version)
			if i > 0 {
				name = fmt.Sprintf("%s.Extra%d.%s.nupkg", pkg, i, version)
			}
			path := filepath.Join(cmd.Dir, "src", "bin", "Release", name)
			if err := afero.WriteFile(f.fs, path, []byte("nupkg"), 0o644); err != nil {
				return runner.Result{ExitCode: 1}, err
			}
		}
	}

	return runner.Result{}, nil
}

func (f *fakeRunner) callsIn(dir string) int {
	n := 0
	for _, c := range f.calls {
		if c.Dir == dir {
			n++
		}
	}
	return n
}

func failSubcommand(sub, dir string) func(runner.Command) bool {
	return func(cmd runner.Command) bool {
		return len(cmd.Args) > 0 && cmd.Args[0] == sub && (dir == "" || cmd.Dir == dir)
	}
}

type reportLine struct {
	level string
	text  string
}

type recordingReporter struct {
	lines []reportLine
}

func (r *recordingReporter) add(level, format string, args ...interface{}) {
	r.lines = append(r.lines, reportLine{level: level, text: fmt.Sprintf(format, args...)})
}

func (r *recordingReporter) Info(format string, args ...interface{})  { r.add("info", format, args...) }
func (r *recordingReporter) Warn(format string, args ...interface{})  { r.add("warn", format, args...) }
func (r *recordingReporter) Error(format string, args ...interface{}) { r.add("error", format, args...) }
func (r *recordingReporter) Success(format string, args ...interface{}) {
	r.add("success", format, args...)
}

func (r *recordingReporter) has(level, substr string) bool {
	for _, l := range r.lines {
		if l.level == level && strings.Contains(l.text, substr) {
			return true
		}
	}
	return false
}

func (r *recordingReporter) all() string {
	var b strings.Builder
	for _, l := range r.lines {
		b.WriteString(l.level + ": " + l.text + "\n")
	}
	return b.String()
}

type recordingHistory struct {
	outcomes []Outcome
	err      error
}

func (h *recordingHistory) Record(o Outcome) error {
	h.outcomes = append(h.outcomes, o)
	return h.err
}
