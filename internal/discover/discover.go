// Package discover finds the Go source files of a foreign codebase.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

const (
	sourceSuffix = ".go"
	testSuffix   = "_test.go"
	vendorDir    = "vendor"
)

// Options tunes the walk. The zero value applies only the fixed rules:
// hidden and vendor directories are skipped, test files are excluded.
type Options struct {
	// Exclude holds glob patterns matched against slash-separated
	// relative paths. Matching directories are pruned.
	Exclude []string
	// Gitignore skips paths matched by the root .gitignore.
	Gitignore bool
}

// Files returns the source files under root as slash-separated paths relative
// to root, in directory-entry enumeration order. A missing root yields no
// files and no error.
func Files(root string, opts Options) ([]string, error) {
	excludes, err := compileExcludes(opts.Exclude)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var gi *ignore.GitIgnore
	if opts.Gitignore {
		gi = loadGitignore(root)
	}

	var results []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if path == root {
			return nil
		}

		name := d.Name()
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if SkipDir(name) {
				return filepath.SkipDir
			}
			if matchesAny(excludes, rel) || (gi != nil && gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks and other non-regular entries
		if !d.Type().IsRegular() {
			return nil
		}
		if !IsSource(name) {
			return nil
		}
		if matchesAny(excludes, rel) || (gi != nil && gi.MatchesPath(rel)) {
			return nil
		}

		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// IsSource reports whether a file name is a non-test Go source file.
func IsSource(name string) bool {
	return strings.HasSuffix(name, sourceSuffix) && !strings.HasSuffix(name, testSuffix)
}

// SkipDir reports whether a directory name is never walked.
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == vendorDir
}

// ErrBadPattern is returned for exclude patterns that do not compile.
var ErrBadPattern = errors.New("invalid exclude pattern")

func compileExcludes(patterns []string) ([]glob.Glob, error) {
	var globs []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchesAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
