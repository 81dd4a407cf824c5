// Package git locates the repository that releasekit operates on. It uses
// go-git to walk up from a directory to the enclosing repository, so no git
// binary is required.
package git

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// openRepo opens the repository containing path, walking up the directory
// tree. If path is empty, the current working directory is used.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// RepositoryRoot returns the absolute path of the worktree containing dir.
func RepositoryRoot(dir string) (string, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return "", err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// ResolveRoot returns the repository root for dir, or dir itself when it is
// not inside a repository. An empty dir means the working directory.
func ResolveRoot(dir string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = wd
	}

	root, err := RepositoryRoot(dir)
	if err == nil {
		logger.Debug("repository root found", zap.String("root", root))
		return root, nil
	}
	if errors.Is(err, git.ErrRepositoryNotExists) {
		logger.Debug("not a git repository, using directory as root", zap.String("dir", dir))
		return dir, nil
	}
	return "", err
}

// CurrentBranch returns the checked-out branch of the repository containing
// dir. Returns empty string in detached HEAD state.
func CurrentBranch(dir string) (string, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}

	if !head.Name().IsBranch() {
		return "", nil
	}
	return head.Name().Short(), nil
}
