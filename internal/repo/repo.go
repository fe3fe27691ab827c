// Package repo validates the directory a scan starts from and finds the Go
// module that contains it.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// Marker is the file that identifies a project root.
const Marker = "go.mod"

// maxLevels is how many parent directories are searched for Marker.
const maxLevels = 2

// ErrNoProject is returned when no Marker is found near the directory.
var ErrNoProject = errors.New("no go.mod found")

// Project describes a located project.
type Project struct {
	// Dir is the directory that was asked about, made absolute.
	Dir string
	// Root is the directory holding go.mod.
	Root string
	// ModulePath is the module directive of go.mod, or "" if it has none.
	ModulePath string
	// ImportPath is the import path of Dir: ModulePath followed by the
	// path from Root to Dir. It is "" when ModulePath is.
	ImportPath string
}

// Locate checks that path is a directory and finds go.mod in it or in one of
// its two nearest parents.
func Locate(path string) (Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Project{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Project{}, fmt.Errorf("checking %s: %w", path, err)
	}
	if !info.IsDir() {
		return Project{}, fmt.Errorf("%s is not a directory", path)
	}

	fs := afs.New()
	dir := abs
	for level := 0; level <= maxLevels; level++ {
		marker := filepath.Join(dir, Marker)
		if st, err := os.Stat(marker); err == nil && st.Mode().IsRegular() {
			data, err := fs.DownloadWithURL(context.Background(), marker)
			if err != nil {
				return Project{}, fmt.Errorf("reading %s: %w", marker, err)
			}
			p := Project{Dir: abs, Root: dir, ModulePath: modfile.ModulePath(data)}
			p.ImportPath = importPath(p)
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return Project{}, fmt.Errorf("%w within %d levels of %s", ErrNoProject, maxLevels, abs)
}

func importPath(p Project) string {
	if p.ModulePath == "" {
		return ""
	}
	rel, err := filepath.Rel(p.Root, p.Dir)
	if err != nil || rel == "." {
		return p.ModulePath
	}
	return p.ModulePath + "/" + filepath.ToSlash(rel)
}
