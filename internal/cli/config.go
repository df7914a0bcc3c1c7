package cli

import (
	"fmt"
	"slices"

	"github.com/dl/godents/internal/dirent"
	"github.com/dl/godents/internal/getdents"
	"github.com/dl/godents/internal/output"
)

// Config holds all configuration for a godents listing.
type Config struct {
	Path           string
	BufferSize     int
	Format         string
	All            bool // ls -a: keep hidden entries
	Raw            bool // no filtering at all
	Recursive      bool
	Gitignore      bool // single directory: drop .gitignore matches
	NoIgnore       bool // recursive: disable .gitignore layers
	Hidden         bool
	Match          string
	IgnoreCase     bool
	Invert         bool
	ResolveUnknown bool
	Color          string
	Workers        int
	Verbose        bool
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Path:       ".",
		BufferSize: getdents.DefaultBufferSize,
		Format:     "plain",
		Color:      "auto",
	}
}

// ConfigError is a usage error detected before any directory is touched.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// Validate checks that the config is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Path == "" {
		return configErrorf("no path specified")
	}
	if c.BufferSize < dirent.MinBufferSize {
		return configErrorf("minimum buffer size is %d", dirent.MinBufferSize)
	}
	if !slices.Contains(output.Names(), c.Format) {
		return configErrorf("unknown format %q (available: %v)", c.Format, output.Names())
	}
	if !slices.Contains(output.ColorModes, c.Color) {
		return configErrorf("invalid color mode %q (want auto, always or never)", c.Color)
	}
	if c.Raw && c.All {
		return configErrorf("cannot use -u (raw) and -a (all) together")
	}
	if c.Workers < 0 {
		return configErrorf("invalid worker count: %d", c.Workers)
	}
	if (c.IgnoreCase || c.Invert) && c.Match == "" {
		return configErrorf("-i and --invert-match need a pattern (-m)")
	}
	if !c.Recursive && (c.NoIgnore || c.Hidden || c.Workers > 0) {
		return configErrorf("--no-ignore, --hidden and -j only apply with -r")
	}
	if c.Recursive && c.Gitignore {
		return configErrorf("-g applies to a single directory; -r honors .gitignore unless --no-ignore")
	}
	return nil
}
