// Package config loads declmap settings from defaults, an optional YAML
// file and DECLMAP_* environment variables.
package config

// Output formats.
const (
	FormatToon = "toon"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config is the complete declmap configuration.
type Config struct {
	// Engine selects the declaration scanner: "text" or "treesitter".
	Engine    string   `yaml:"engine" mapstructure:"engine"`
	Exclude   []string `yaml:"exclude" mapstructure:"exclude"`     // glob patterns pruned from the walk
	Gitignore bool     `yaml:"gitignore" mapstructure:"gitignore"` // honor the root .gitignore
	Limit     int      `yaml:"limit" mapstructure:"limit"`         // default search result count
	// Highlights is the number of declarations shown per module summary.
	Highlights int    `yaml:"highlights" mapstructure:"highlights"`
	CacheSize  int    `yaml:"cache_size" mapstructure:"cache_size"` // ranked-query cache entries, 0 disables
	Format     string `yaml:"format" mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine:     "text",
		Exclude:    []string{},
		Gitignore:  false,
		Limit:      20,
		Highlights: 5,
		CacheSize:  256,
		Format:     FormatToon,
	}
}
