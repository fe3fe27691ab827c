// Package watch rebuilds a declaration index when the source tree changes.
package watch

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/minio/highwayhash"

	"github.com/phobologic/declmap/internal/discover"
	"github.com/phobologic/declmap/internal/index"
)

var key = []byte("declmap-fingerprint-key-32-bytes")

// DefaultDebounce is how long the tree must be quiet before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc returns a fresh index over the watched root.
type BuildFunc func() (*index.Index, error)

// Options configures a Watcher.
type Options struct {
	Discover discover.Options
	Debounce time.Duration
	Logger   *log.Logger
}

// Watcher rebuilds an index after source changes settle. A rebuild only
// happens when the fingerprint of the collected files changed.
type Watcher struct {
	root     string
	build    BuildFunc
	opts     Options
	log      *log.Logger
	debounce time.Duration
	last     uint64
	built    bool
}

// New returns a Watcher over root.
func New(root string, build BuildFunc, opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, build: build, opts: opts, log: logger, debounce: debounce}
}

// Fingerprint hashes the relative paths and contents of files under root.
// The result does not depend on the order of files.
func Fingerprint(root string, files []string) (uint64, error) {
	h, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for _, rel := range sorted {
		if _, err := io.WriteString(h, rel+"\x00"); err != nil {
			return 0, err
		}
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", rel, err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", rel, err)
		}
		if _, err := h.Write([]byte{0}); err != nil {
			return 0, err
		}
	}
	return h.Sum64(), nil
}

// Run builds the index once, hands it to onRebuild, then rebuilds on every
// settled change until ctx is done.
func (w *Watcher) Run(ctx context.Context, onRebuild func(*index.Index)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	if _, err := w.rebuild(onRebuild); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(fw, event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			changed, err := w.rebuild(onRebuild)
			if err != nil {
				w.log.Printf("warning: rebuild failed: %v", err)
			} else if !changed {
				w.log.Printf("no source changes")
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Printf("watcher error: %v", err)
		}
	}
}

// rebuild fingerprints the tree and builds a fresh index when it changed.
func (w *Watcher) rebuild(onRebuild func(*index.Index)) (bool, error) {
	files, err := discover.Files(w.root, w.opts.Discover)
	if err != nil {
		return false, err
	}
	fp, err := Fingerprint(w.root, files)
	if err != nil {
		return false, err
	}
	if w.built && fp == w.last {
		return false, nil
	}

	idx, err := w.build()
	if err != nil {
		return false, err
	}
	if _, err := idx.Declarations(); err != nil {
		return false, err
	}
	w.last = fp
	w.built = true
	w.log.Printf("rebuilt index for %d files", len(files))
	onRebuild(idx)
	return true, nil
}

// relevant reports whether an event can change the scan result. New
// directories are added to the watch as a side effect.
func (w *Watcher) relevant(fw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if discover.SkipDir(info.Name()) {
				return false
			}
			if err := w.addTree(fw, event.Name); err != nil {
				w.log.Printf("warning: failed to watch new directory %s: %v", event.Name, err)
			}
			return true
		}
	}
	// Removed or renamed directories cannot be stat'ed; treat them as changes.
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && filepath.Ext(event.Name) == "" {
		return true
	}
	return discover.IsSource(filepath.Base(event.Name))
}

// addTree watches dir and every walkable directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && discover.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
