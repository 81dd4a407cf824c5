// Package clean removes generated files and build caches from the
// repository: compiled JavaScript next to the F# sources and the
// .fable/obj/bin folders.
package clean

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultParallel bounds concurrent directory removals.
const DefaultParallel = 4

// Result lists what was removed, relative to the root, sorted.
type Result struct {
	Files []string
	Dirs  []string
}

// Cleaner removes everything matching its doublestar patterns under Root.
type Cleaner struct {
	Fs   afero.Fs
	Root string
	// Files patterns match regular files only, Dirs patterns directories only.
	Files []string
	Dirs  []string
	// Parallel bounds concurrent directory removals (0 = DefaultParallel).
	Parallel int
	// DryRun lists matches without removing anything.
	DryRun bool
	Logger *zap.Logger
}

// Clean removes matching files first, then matching directories in parallel.
func (c *Cleaner) Clean(ctx context.Context) (*Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	files, err := c.match(c.Files, false)
	if err != nil {
		return nil, err
	}
	dirs, err := c.match(c.Dirs, true)
	if err != nil {
		return nil, err
	}
	dirs = outermost(dirs)

	result := &Result{Files: files, Dirs: dirs}
	if c.DryRun {
		return result, nil
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.Fs.Remove(c.abs(f)); err != nil {
			return nil, fmt.Errorf("removing %s: %w", f, err)
		}
		logger.Debug("removed file", zap.String("path", f))
	}

	limit := c.Parallel
	if limit <= 0 {
		limit = DefaultParallel
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, d := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.Fs.RemoveAll(c.abs(d)); err != nil {
				return fmt.Errorf("removing %s: %w", d, err)
			}
			logger.Debug("removed directory", zap.String("path", d))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// match expands patterns relative to Root, keeping directories or files.
func (c *Cleaner) match(patterns []string, wantDirs bool) ([]string, error) {
	fsys := afero.NewIOFS(afero.NewBasePathFs(c.Fs, c.Root))
	seen := make(map[string]struct{})

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid clean pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			isDir, err := afero.IsDir(c.Fs, c.abs(m))
			if err != nil || isDir != wantDirs {
				continue
			}
			seen[m] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Cleaner) abs(rel string) string {
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// outermost drops directories nested inside another matched directory.
// dirs must be sorted.
func outermost(dirs []string) []string {
	var out []string
	for _, d := range dirs {
		if len(out) > 0 && strings.HasPrefix(d, out[len(out)-1]+"/") {
			continue
		}
		out = append(out, d)
	}
	return out
}
