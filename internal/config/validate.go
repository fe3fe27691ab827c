package config

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid setting")

var (
	engines = map[string]bool{"text": true, "treesitter": true}
	formats = map[string]bool{FormatToon: true, FormatJSON: true, FormatYAML: true}
)

// Validate checks every setting and reports all problems at once.
func Validate(cfg *Config) error {
	var errs []error

	if !engines[cfg.Engine] {
		errs = append(errs, fmt.Errorf("%w: engine must be 'text' or 'treesitter', got '%s'", ErrInvalid, cfg.Engine))
	}
	if !formats[cfg.Format] {
		errs = append(errs, fmt.Errorf("%w: format must be 'toon', 'json' or 'yaml', got '%s'", ErrInvalid, cfg.Format))
	}
	if cfg.Limit < 1 {
		errs = append(errs, fmt.Errorf("%w: limit must be at least 1, got %d", ErrInvalid, cfg.Limit))
	}
	if cfg.Highlights < 0 {
		errs = append(errs, fmt.Errorf("%w: highlights must not be negative, got %d", ErrInvalid, cfg.Highlights))
	}
	if cfg.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size must not be negative, got %d", ErrInvalid, cfg.CacheSize))
	}
	for _, p := range cfg.Exclude {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: exclude pattern '%s': %v", ErrInvalid, p, err))
		}
	}

	return errors.Join(errs...)
}
