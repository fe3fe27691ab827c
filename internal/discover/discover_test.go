package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverGoFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "lib/util.go", "package lib")
	// Non-Go file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	// Test files should be ignored
	writeFile(t, dir, "lib/util_test.go", "package lib")

	files, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lib/util.go", "main.go"}, files)
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "vendor/github.com/x/y/y.go", "package y")
	writeFile(t, dir, ".hidden/secret.go", "package secret")
	writeFile(t, dir, "pkg/.cache/gen.go", "package gen")
	writeFile(t, dir, "pkg/ok.go", "package pkg")

	files, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "pkg/ok.go"}, files)
}

func TestDiscoverMissingRoot(t *testing.T) {
	t.Parallel()

	files, err := Files(filepath.Join(t.TempDir(), "nope"), Options{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverExclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "gen/api.go", "package gen")
	writeFile(t, dir, "pkg/zz_generated.go", "package pkg")
	writeFile(t, dir, "pkg/real.go", "package pkg")

	files, err := Files(dir, Options{Exclude: []string{"gen", "**/zz_*.go"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "pkg/real.go"}, files)
}

func TestDiscoverBadPattern(t *testing.T) {
	t.Parallel()

	_, err := Files(t.TempDir(), Options{Exclude: []string{"[a-"}})
	require.ErrorIs(t, err, ErrBadPattern)
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "build/\nscratch.go\n")
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "scratch.go", "package main")
	writeFile(t, dir, "build/out.go", "package build")

	files, err := Files(dir, Options{Gitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, files)

	// Off by default
	files, err = Files(dir, Options{})
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.go", "package main")

	err := os.Symlink(filepath.Join(dir, "real.go"), filepath.Join(dir, "link.go"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	files, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"real.go"}, files)
}

func TestIsSource(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		want bool
	}{
		{"main.go", true},
		{"graph_test.go", false},
		{"testing_utils.go", true},
		{"main.py", false},
		{"go.mod", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsSource(tc.name))
		})
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
