package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, Dir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "text", cfg.Engine)
	assert.Empty(t, cfg.Exclude)
	assert.False(t, cfg.Gitignore)
	assert.Equal(t, 20, cfg.Limit)
	assert.Equal(t, 5, cfg.Highlights)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Equal(t, FormatToon, cfg.Format)
	assert.NoError(t, Validate(cfg))
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir(), "").Load()
	require.NoError(t, err)
	want := Default()
	assert.Equal(t, want.Engine, cfg.Engine)
	assert.Empty(t, cfg.Exclude)
	assert.Equal(t, want.Limit, cfg.Limit)
	assert.Equal(t, want.Highlights, cfg.Highlights)
	assert.Equal(t, want.CacheSize, cfg.CacheSize)
	assert.Equal(t, want.Format, cfg.Format)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "config.yml", `
engine: treesitter
exclude:
  - "gen/**"
  - "*.pb.go"
limit: 7
`)

	cfg, err := NewLoader(root, "").Load()
	require.NoError(t, err)
	assert.Equal(t, "treesitter", cfg.Engine)
	assert.Equal(t, []string{"gen/**", "*.pb.go"}, cfg.Exclude)
	assert.Equal(t, 7, cfg.Limit)
	// Unset keys keep their defaults.
	assert.Equal(t, 5, cfg.Highlights)
	assert.Equal(t, FormatToon, cfg.Format)
}

func TestLoadYamlExtension(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "config.yaml", "format: json\n")

	cfg, err := NewLoader(root, "").Load()
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Format)
}

func TestLoadExplicitFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("highlights: 9\ngitignore: true\n"), 0o644))

	cfg, err := NewLoader(t.TempDir(), path).Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Highlights)
	assert.True(t, cfg.Gitignore)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, err := NewLoader(t.TempDir(), filepath.Join(t.TempDir(), "nope.yml")).Load()
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.yml", "limit: 7\nengine: treesitter\n")
	t.Setenv("DECLMAP_LIMIT", "3")
	t.Setenv("DECLMAP_EXCLUDE", "gen/**,tmp/*")

	cfg, err := NewLoader(root, "").Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Limit)
	assert.Equal(t, "treesitter", cfg.Engine)
	assert.Equal(t, []string{"gen/**", "tmp/*"}, cfg.Exclude)
}

func TestLoadMalformedYAML(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "config.yml", "limit: [unclosed\n")

	_, err := NewLoader(root, "").Load()
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadInvalidValues(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "config.yml", "engine: magic\n")

	_, err := NewLoader(root, "").Load()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "engine must be")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"engine", func(c *Config) { c.Engine = "regex" }, "engine must be"},
		{"format", func(c *Config) { c.Format = "xml" }, "format must be"},
		{"limit", func(c *Config) { c.Limit = 0 }, "limit must be at least 1"},
		{"highlights", func(c *Config) { c.Highlights = -1 }, "highlights must not be negative"},
		{"cache", func(c *Config) { c.CacheSize = -2 }, "cache_size must not be negative"},
		{"glob", func(c *Config) { c.Exclude = []string{"[a-"} }, "exclude pattern '[a-'"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Engine = "x"
	cfg.Limit = -1
	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "engine must be")
	assert.ErrorContains(t, err, "limit must be")
}
