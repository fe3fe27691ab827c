// Package index collects and scans a codebase once and serves declaration
// queries from the memoized result.
package index

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"

	"github.com/phobologic/declmap/internal/discover"
	"github.com/phobologic/declmap/internal/lang"
	"github.com/phobologic/declmap/internal/model"
	"github.com/phobologic/declmap/internal/parse"
)

// Scan engines.
const (
	EngineText       = "text"
	EngineTreeSitter = "treesitter"
)

// Options configures an Index.
type Options struct {
	// Engine selects the declaration scanner. Empty means EngineText.
	Engine    string
	Exclude   []string
	Gitignore bool
	// Logger receives scan diagnostics. Nil discards them.
	Logger *log.Logger
	// OnProgress is called after each file is scanned.
	OnProgress func(done, total int)
}

// Index is a lazily built, memoized declaration index over one root.
// It is safe for concurrent use.
type Index struct {
	root string
	opts Options
	log  *log.Logger
	read func(ctx context.Context, path string) ([]byte, error)

	once  sync.Once
	files []string
	decls []model.Declaration
	err   error
}

// New returns an Index over root. Nothing is read until the first query.
func New(root string, opts Options) *Index {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	fs := afs.New()
	return &Index{
		root: root,
		opts: opts,
		log:  logger,
		read: func(ctx context.Context, path string) ([]byte, error) {
			return fs.DownloadWithURL(ctx, path)
		},
	}
}

// Root returns the absolute root directory.
func (x *Index) Root() string {
	return x.root
}

// Declarations returns every declaration in collector order. The first call
// performs the scan; its result, including any error, is reused afterwards.
func (x *Index) Declarations() ([]model.Declaration, error) {
	x.once.Do(func() {
		x.files, x.decls, x.err = x.build(context.Background())
	})
	return x.decls, x.err
}

// Files returns the collected relative paths.
func (x *Index) Files() ([]string, error) {
	if _, err := x.Declarations(); err != nil {
		return nil, err
	}
	return x.files, nil
}

// ReadFile reads a file relative to the root.
func (x *Index) ReadFile(rel string) ([]byte, error) {
	return x.readFile(context.Background(), rel)
}

func (x *Index) readFile(ctx context.Context, rel string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("reading %s: path escapes root", rel)
	}
	data, err := x.read(ctx, filepath.Join(x.root, clean))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	return data, nil
}

type scanFunc func(ctx context.Context, source []byte, relPath string) ([]model.Declaration, error)

// engine returns the scan function for the configured engine and a release
// func for any resources it holds.
func (x *Index) engine() (scanFunc, func(), error) {
	switch x.opts.Engine {
	case "", EngineText:
		return func(_ context.Context, source []byte, relPath string) ([]model.Declaration, error) {
			return parse.Scan(source, relPath), nil
		}, func() {}, nil
	case EngineTreeSitter:
		s := lang.NewScanner()
		return s.Scan, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine %q", x.opts.Engine)
	}
}

func (x *Index) build(ctx context.Context) ([]string, []model.Declaration, error) {
	scan, release, err := x.engine()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	files, err := discover.Files(x.root, discover.Options{
		Exclude:   x.opts.Exclude,
		Gitignore: x.opts.Gitignore,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("collecting files: %w", err)
	}

	var decls []model.Declaration
	for i, rel := range files {
		src, err := x.readFile(ctx, rel)
		if err != nil {
			return nil, nil, err
		}
		found, err := scan(ctx, src, rel)
		if err != nil {
			x.log.Printf("warning: %v", err)
		}
		decls = append(decls, found...)
		if x.opts.OnProgress != nil {
			x.opts.OnProgress(i+1, len(files))
		}
	}

	x.log.Printf("scanned %d files, %d declarations (%s engine)", len(files), len(decls), x.engineName())
	return files, decls, nil
}

func (x *Index) engineName() string {
	if x.opts.Engine == "" {
		return EngineText
	}
	return x.opts.Engine
}

// filter returns the declarations satisfying keep.
func (x *Index) filter(keep func(*model.Declaration) bool) ([]model.Declaration, error) {
	decls, err := x.Declarations()
	if err != nil {
		return nil, err
	}
	var out []model.Declaration
	for i := range decls {
		if keep(&decls[i]) {
			out = append(out, decls[i])
		}
	}
	return out, nil
}

// ByModule returns the declarations of one module.
func (x *Index) ByModule(name string) ([]model.Declaration, error) {
	return x.filter(func(d *model.Declaration) bool { return d.Module == name })
}

// ByKind returns the declarations of one kind.
func (x *Index) ByKind(kind model.Kind) ([]model.Declaration, error) {
	return x.filter(func(d *model.Declaration) bool { return d.Kind == kind })
}

// ByName returns exact name matches, or case-insensitive matches when there
// are no exact ones.
func (x *Index) ByName(name string) ([]model.Declaration, error) {
	exact, err := x.filter(func(d *model.Declaration) bool { return d.Name == name })
	if err != nil || len(exact) > 0 {
		return exact, err
	}
	return x.filter(func(d *model.Declaration) bool { return strings.EqualFold(d.Name, name) })
}

// ValuesView returns constants and variables.
func (x *Index) ValuesView() ([]model.Declaration, error) {
	return x.filter(func(d *model.Declaration) bool {
		return d.Kind == model.Constant || d.Kind == model.Variable
	})
}

// CallablesView returns functions and methods.
func (x *Index) CallablesView() ([]model.Declaration, error) {
	return x.filter((*model.Declaration).IsCallable)
}

// Modules returns the sorted unique module names.
func (x *Index) Modules() ([]string, error) {
	decls, err := x.Declarations()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var mods []string
	for _, d := range decls {
		if !seen[d.Module] {
			seen[d.Module] = true
			mods = append(mods, d.Module)
		}
	}
	sort.Strings(mods)
	return mods, nil
}
