package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/declmap/internal/index"
	"github.com/phobologic/declmap/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "b/b.go", "package b\n")

	fp1, err := Fingerprint(root, []string{"a.go", "b/b.go"})
	require.NoError(t, err)
	fp2, err := Fingerprint(root, []string{"b/b.go", "a.go"})
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2, "order must not matter")

	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")
	fp3, err := Fingerprint(root, []string{"a.go", "b/b.go"})
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3, "content change")

	fp4, err := Fingerprint(root, []string{"a.go"})
	require.NoError(t, err)
	assert.NotEqual(t, fp3, fp4, "file set change")

	_, err = Fingerprint(root, []string{"missing.go"})
	assert.ErrorContains(t, err, "reading missing.go")
}

func TestFingerprintSeparatesPathAndContent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "ab.go", "x")
	writeFile(t, root, "a.go", "bx")

	fp1, err := Fingerprint(root, []string{"ab.go"})
	require.NoError(t, err)
	fp2, err := Fingerprint(root, []string{"a.go"})
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)
}

func names(t *testing.T, idx *index.Index) []string {
	t.Helper()
	decls, err := idx.Declarations()
	require.NoError(t, err)
	var out []string
	for _, d := range decls {
		out = append(out, d.Name)
	}
	return out
}

func TestRunRebuildsOnChange(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n\nfunc First() {}\n")

	w := New(root, func() (*index.Index, error) {
		return index.New(root, index.Options{}), nil
	}, Options{Debounce: 20 * time.Millisecond})

	var mu sync.Mutex
	var builds [][]string
	rebuilt := make(chan struct{}, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(idx *index.Index) {
			mu.Lock()
			builds = append(builds, names(t, idx))
			mu.Unlock()
			rebuilt <- struct{}{}
		})
	}()

	waitFor(t, rebuilt)
	writeFile(t, root, "b.go", "package a\n\nfunc Second() {}\n")
	waitFor(t, rebuilt)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(builds), 2)
	assert.Equal(t, []string{"First"}, builds[0])
	assert.ElementsMatch(t, []string{"First", "Second"}, builds[len(builds)-1])
}

func TestRebuildSkipsUnchangedTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")

	count := 0
	w := New(root, func() (*index.Index, error) {
		count++
		return index.New(root, index.Options{}), nil
	}, Options{})

	changed, err := w.rebuild(func(*index.Index) {})
	require.NoError(t, err)
	assert.True(t, changed)

	writeFile(t, root, "notes.txt", "ignored")
	changed, err = w.rebuild(func(*index.Index) {})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, count)

	writeFile(t, root, "a.go", "package a\n\nfunc B() {}\n")
	var got []model.Declaration
	changed, err = w.rebuild(func(idx *index.Index) {
		got, _ = idx.Declarations()
	})
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Name)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild")
	}
}
