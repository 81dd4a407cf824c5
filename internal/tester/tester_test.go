package tester

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/releasekit/internal/project"
	"github.com/ariel-frischer/releasekit/internal/runner"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls  []runner.Command
	failIn string
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.calls = append(f.calls, cmd)
	if f.failIn != "" && cmd.Dir == f.failIn {
		return runner.Result{ExitCode: 1}, &runner.ExitError{Command: cmd.Name, ExitCode: 1}
	}
	return runner.Result{}, nil
}

type nopReporter struct{ lines []string }

func (r *nopReporter) Info(format string, args ...interface{})    { r.add(format, args...) }
func (r *nopReporter) Error(format string, args ...interface{})   { r.add(format, args...) }
func (r *nopReporter) Success(format string, args ...interface{}) { r.add(format, args...) }
func (r *nopReporter) add(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func options() Options {
	return Options{
		TestProjectGlob: "tests/*.fsproj",
		ManifestGlob:    "src/*.fsproj",
		Test:            runner.MustParseTemplate("dotnet test {{TEST_PROJECT}}"),
		Fallback:        runner.MustParseTemplate("dotnet build {{MANIFEST}}"),
	}
}

func addPackage(t *testing.T, fs afero.Fs, name string, withTests bool) project.Package {
	t.Helper()
	dir := filepath.Join("/repo/glues", name)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "src", name+".fsproj"), []byte("<Version>1.0.0</Version>"), 0o644))
	if withTests {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "tests", "Tests.fsproj"), []byte("<Project />"), 0o644))
	}
	return project.Package{Name: name, Dir: dir}
}

func TestTester_Run(t *testing.T) {
	fs := afero.NewMemMapFs()
	withTests := addPackage(t, fs, "Fable.Foo", true)
	withoutTests := addPackage(t, fs, "Fable.Bar", false)
	r := &fakeRunner{}

	err := New(options(), fs, r, &nopReporter{}, nil).Run(context.Background(), []project.Package{withTests, withoutTests})

	require.NoError(t, err)
	require.Len(t, r.calls, 2)
	assert.Equal(t, []string{"test", filepath.Join(withTests.Dir, "tests", "Tests.fsproj")}, r.calls[0].Args)
	assert.Equal(t, withTests.Dir, r.calls[0].Dir)
	assert.Equal(t, []string{"build", filepath.Join(withoutTests.Dir, "src", "Fable.Bar.fsproj")}, r.calls[1].Args)
}

func TestTester_StopsAtFirstFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := addPackage(t, fs, "A", true)
	b := addPackage(t, fs, "B", false)
	c := addPackage(t, fs, "C", true)
	r := &fakeRunner{failIn: b.Dir}
	rep := &nopReporter{}

	err := New(options(), fs, r, rep, nil).Run(context.Background(), []project.Package{a, b, c})

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "B", failure.Package)
	var exitErr *runner.ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.Len(t, r.calls, 2, "C is never tested")
	assert.Contains(t, rep.lines, "no tests project found for B, checking that it compiles")
}

func TestTester_MissingManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/repo/glues/Empty", 0o755))
	r := &fakeRunner{}

	err := New(options(), fs, r, &nopReporter{}, nil).Run(context.Background(), []project.Package{{Name: "Empty", Dir: "/repo/glues/Empty"}})

	var matchErr *project.MatchError
	require.True(t, errors.As(err, &matchErr))
	assert.Empty(t, r.calls)
}
