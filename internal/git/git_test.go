package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with one commit in a temp directory.
func initRepo(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "glues", "Fable.Foo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# repo\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func TestRepositoryRoot(t *testing.T) {
	root := initRepo(t)

	tests := map[string]struct {
		dir string
	}{
		"from root":   {dir: root},
		"from subdir": {dir: filepath.Join(root, "glues", "Fable.Foo")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := RepositoryRoot(tt.dir)
			require.NoError(t, err)
			assert.Equal(t, root, got)
		})
	}
}

func TestResolveRoot(t *testing.T) {
	root := initRepo(t)
	plain, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	tests := map[string]struct {
		dir  string
		want string
	}{
		"inside repository":      {dir: filepath.Join(root, "glues"), want: root},
		"outside any repository": {dir: plain, want: plain},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ResolveRoot(tt.dir, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrentBranch(t *testing.T) {
	root := initRepo(t)

	branch, err := CurrentBranch(root)

	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestRepositoryRoot_NotARepo(t *testing.T) {
	_, err := RepositoryRoot(t.TempDir())
	assert.Error(t, err)
}
