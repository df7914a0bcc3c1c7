package output

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dl/godents/internal/dirent"
)

// Formatter renders entries into bytes for output.
// buf is a reusable buffer: implementations append to it and return the result.
// Begin and End are called only when at least one entry is rendered, so an
// empty listing produces no output at all.
type Formatter interface {
	Begin(buf []byte) []byte
	Format(buf []byte, e dirent.Entry, i int) []byte
	End(buf []byte) []byte
}

// Options configures formatter construction.
type Options struct {
	// Styles colors the plain formatter. Nil means no color.
	Styles *Styles
}

// Constructor builds a fresh Formatter. Formatters may keep scratch state,
// so every render gets its own instance.
type Constructor func(opts Options) Formatter

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{
		"plain":       func(opts Options) Formatter { return NewTextFormatter(opts.Styles) },
		"csv":         func(Options) Formatter { return NewCSVFormatter(false) },
		"csv-headers": func(Options) Formatter { return NewCSVFormatter(true) },
		"json":        func(Options) Formatter { return NewJSONFormatter() },
		"json-stream": func(Options) Formatter { return NewJSONStreamFormatter() },
	}
)

// Register adds or replaces a named formatter.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// Lookup builds the formatter registered under name.
func Lookup(name string, opts Options) (Formatter, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(opts), nil
}

// Names returns the registered formatter names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
