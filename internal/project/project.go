// Package project enumerates the packages of a multi-package source tree.
//
// Packages live in subdirectories of a single packages directory (glues/ by
// default). The enumerator either lists all of them, in configuration order
// or sorted by name, or resolves one package by name.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Package is one releasable unit of the tree.
type Package struct {
	Name string
	// Dir is the package directory, joined onto the repository root.
	Dir string
}

// Path joins elements onto the package directory.
func (p Package) Path(elem ...string) string {
	return filepath.Join(append([]string{p.Dir}, elem...)...)
}

// NotFoundError is returned when a named package does not exist.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Enumerator yields the packages to process.
type Enumerator struct {
	Fs afero.Fs
	// Root is the repository root every relative path is resolved against.
	Root string
	// PackagesDir holds one subdirectory per package, relative to Root.
	PackagesDir string
	// Names fixes the package list and its order. Empty means every
	// subdirectory of PackagesDir, sorted by name.
	Names []string
}

// All returns every package in enumeration order.
func (e *Enumerator) All() ([]Package, error) {
	base := filepath.Join(e.Root, e.PackagesDir)

	if len(e.Names) > 0 {
		return e.configured(base)
	}

	infos, err := afero.ReadDir(e.Fs, base)
	if err != nil {
		return nil, fmt.Errorf("listing packages in %s: %w", base, err)
	}

	var pkgs []Package
	for _, info := range infos {
		if !info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		pkgs = append(pkgs, Package{Name: info.Name(), Dir: filepath.Join(base, info.Name())})
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })

	return pkgs, nil
}

// configured returns the packages listed in Names, checking each exists.
func (e *Enumerator) configured(base string) ([]Package, error) {
	pkgs := make([]Package, 0, len(e.Names))
	for _, name := range e.Names {
		dir := filepath.Join(base, name)
		ok, err := afero.DirExists(e.Fs, dir)
		if err != nil {
			return nil, fmt.Errorf("checking package %s: %w", name, err)
		}
		if !ok {
			return nil, fmt.Errorf("configured package %q has no directory %s: %w", name, dir, os.ErrNotExist)
		}
		pkgs = append(pkgs, Package{Name: name, Dir: dir})
	}
	return pkgs, nil
}

// Named returns the single package whose name matches, ignoring case.
func (e *Enumerator) Named(name string) (Package, error) {
	all, err := e.All()
	if err != nil {
		return Package{}, err
	}

	for _, p := range all {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}

	available := make([]string, len(all))
	for i, p := range all {
		available[i] = p.Name
	}
	return Package{}, &NotFoundError{Name: name, Available: available}
}

// Select returns all packages when name is empty, otherwise the named one.
func (e *Enumerator) Select(name string) ([]Package, error) {
	if name == "" {
		return e.All()
	}
	p, err := e.Named(name)
	if err != nil {
		return nil, err
	}
	return []Package{p}, nil
}

// FindFiles returns the files under dir matching a doublestar pattern
// relative to dir, sorted.
func FindFiles(fs afero.Fs, dir, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fs, dir)), filepath.ToSlash(pattern))
	if err != nil {
		return nil, fmt.Errorf("matching %s in %s: %w", pattern, dir, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(dir, filepath.FromSlash(m))
		if isDir, err := afero.IsDir(fs, path); err == nil && isDir {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// FindSingleFile is FindFiles that requires exactly one match.
func FindSingleFile(fs afero.Fs, dir, pattern string) (string, error) {
	files, err := FindFiles(fs, dir, pattern)
	if err != nil {
		return "", err
	}
	switch len(files) {
	case 0:
		return "", &MatchError{Dir: dir, Pattern: pattern}
	case 1:
		return files[0], nil
	default:
		return "", &MatchError{Dir: dir, Pattern: pattern, Matches: files}
	}
}

// MatchError reports a pattern that did not match exactly one file.
type MatchError struct {
	Dir     string
	Pattern string
	Matches []string
}

func (e *MatchError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("no file matching %s in %s", e.Pattern, e.Dir)
	}
	return fmt.Sprintf("expected exactly one file matching %s in %s, found %d: %s",
		e.Pattern, e.Dir, len(e.Matches), strings.Join(e.Matches, ", "))
}
