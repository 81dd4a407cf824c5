package clean

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fableFiles = []string{"{src,tests,glues}/**/*.fs.js", "{src,tests,glues}/**/*.fs.js.map"}
	fableDirs  = []string{"{src,tests,glues}/**/.fable", "{src,tests,glues}/**/obj", "{src,tests,glues}/**/bin"}
)

func newRepo(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range []string{
		"/repo/src/Library.fs",
		"/repo/src/Library.fs.js",
		"/repo/src/Library.fs.js.map",
		"/repo/src/.fable/cache.json",
		"/repo/tests/Tests.fs",
		"/repo/tests/obj/project.assets.json",
		"/repo/glues/Fable.Foo/src/Foo.fs",
		"/repo/glues/Fable.Foo/src/Foo.fs.js",
		"/repo/glues/Fable.Foo/src/bin/Release/Fable.Foo.1.0.0.nupkg",
		"/repo/glues/Fable.Foo/src/bin/obj/nested.txt",
		"/repo/docs/page.fs.js",
		"/repo/README.md",
	} {
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0o644))
	}
	return fs
}

func TestCleaner_Clean(t *testing.T) {
	fs := newRepo(t)
	c := &Cleaner{Fs: fs, Root: "/repo", Files: fableFiles, Dirs: fableDirs, Parallel: 2}

	result, err := c.Clean(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"glues/Fable.Foo/src/Foo.fs.js",
		"src/Library.fs.js",
		"src/Library.fs.js.map",
	}, result.Files)
	assert.Equal(t, []string{
		"glues/Fable.Foo/src/bin",
		"src/.fable",
		"tests/obj",
	}, result.Dirs, "nested matches collapse into their outermost directory")

	for _, gone := range []string{"/repo/src/Library.fs.js", "/repo/src/.fable", "/repo/tests/obj", "/repo/glues/Fable.Foo/src/bin"} {
		exists, err := afero.Exists(fs, gone)
		require.NoError(t, err)
		assert.False(t, exists, gone)
	}
	for _, kept := range []string{"/repo/src/Library.fs", "/repo/docs/page.fs.js", "/repo/README.md", "/repo/glues/Fable.Foo/src/Foo.fs"} {
		exists, err := afero.Exists(fs, kept)
		require.NoError(t, err)
		assert.True(t, exists, kept)
	}
}

func TestCleaner_DryRun(t *testing.T) {
	fs := newRepo(t)
	c := &Cleaner{Fs: fs, Root: "/repo", Files: fableFiles, Dirs: fableDirs, DryRun: true}

	result, err := c.Clean(context.Background())

	require.NoError(t, err)
	assert.Len(t, result.Files, 3)
	exists, err := afero.Exists(fs, "/repo/src/Library.fs.js")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCleaner_Errors(t *testing.T) {
	tests := map[string]struct {
		files []string
		ctx   func() context.Context
	}{
		"invalid pattern": {
			files: []string{"src/[*.fs.js"},
			ctx:   context.Background,
		},
		"cancelled": {
			files: fableFiles,
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := &Cleaner{Fs: newRepo(t), Root: "/repo", Files: tt.files}
			_, err := c.Clean(tt.ctx())
			assert.Error(t, err)
		})
	}
}

func TestCleaner_NothingToClean(t *testing.T) {
	c := &Cleaner{Fs: afero.NewMemMapFs(), Root: "/repo", Files: fableFiles, Dirs: fableDirs}

	result, err := c.Clean(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Empty(t, result.Dirs)
}

func TestOutermost(t *testing.T) {
	got := outermost([]string{"a/bin", "a/bin/obj", "a/binary", "b/obj"})
	assert.Equal(t, []string{"a/bin", "a/binary", "b/obj"}, got)
}
