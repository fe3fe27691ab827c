package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Dir is the per-project configuration directory under the scanned root.
const Dir = ".declmap"

// Loader reads configuration for one root directory.
type Loader struct {
	rootDir string
	file    string
}

// NewLoader returns a Loader for rootDir. When file is non-empty it is read
// instead of searching rootDir/.declmap, and it must exist.
func NewLoader(rootDir, file string) *Loader {
	return &Loader{rootDir: rootDir, file: file}
}

// Load resolves the configuration with the following priority (highest to
// lowest):
// 1. Environment variables (DECLMAP_*)
// 2. Config file (.declmap/config.yml or .declmap/config.yaml, or the explicit file)
// 3. Default values
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, Dir))
	}

	v.SetEnvPrefix("DECLMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("engine", d.Engine)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("gitignore", d.Gitignore)
	v.SetDefault("limit", d.Limit)
	v.SetDefault("highlights", d.Highlights)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("format", d.Format)
}
