package cli

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/dl/godents/internal/dirent"
	"github.com/dl/godents/internal/filter"
	"github.com/dl/godents/internal/getdents"
	"github.com/dl/godents/internal/output"
	"github.com/dl/godents/internal/walker"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitUsage      = 2
	ExitAlloc      = 3
	ExitNotExist   = 4
	ExitNotDir     = 5
	ExitPermission = 6
	ExitFailure    = 7
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ExitUsage
	}
	var ge *getdents.Error
	if !errors.As(err, &ge) {
		return ExitFailure
	}
	switch ge.Kind {
	case getdents.KindConfig:
		return ExitUsage
	case getdents.KindAlloc:
		return ExitAlloc
	case getdents.KindNotExist:
		return ExitNotExist
	case getdents.KindNotDir:
		return ExitNotDir
	case getdents.KindPermission:
		return ExitPermission
	}
	return ExitFailure
}

// fder is implemented by writers backed by a file descriptor.
type fder interface {
	Fd() uintptr
}

// Run executes the listing with the given config and returns the exit code.
// Every failure is reported as exactly one line on stderr.
func Run(cfg Config, stdout, stderr io.Writer) int {
	level := log.WarnLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(stderr, log.Options{
		Level:  level,
		Prefix: "godents",
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		return ExitUsage
	}

	// Determine color mode
	var useColor bool
	if f, ok := stdout.(fder); ok {
		useColor, _ = output.UseColor(cfg.Color, f.Fd())
	} else {
		useColor = cfg.Color == "always"
	}
	var opts output.Options
	if useColor && cfg.Format == "plain" {
		styles := output.NewStyles(stdout)
		opts.Styles = &styles
	}
	formatter, err := output.Lookup(cfg.Format, opts)
	if err != nil {
		logger.Error("invalid format", "err", err)
		return ExitUsage
	}

	var match filter.Func
	if cfg.Match != "" {
		p, err := filter.Pattern(cfg.Match, cfg.IgnoreCase, cfg.Invert)
		if err != nil {
			logger.Error("invalid pattern", "pattern", cfg.Match, "err", err)
			return ExitUsage
		}
		defer p.Close()
		match = p.Keep
	}

	logger.Debug("listing", "path", cfg.Path, "buffer", cfg.BufferSize, "format", cfg.Format, "recursive", cfg.Recursive)

	if cfg.Recursive {
		return runRecursive(cfg, match, formatter, stdout, logger)
	}
	return runDir(cfg, match, formatter, stdout, logger)
}

// entryFilter picks the ls-style filter for a single directory listing.
func entryFilter(cfg Config) filter.Func {
	var base filter.Func
	switch {
	case cfg.Raw:
	case cfg.All:
		base = filter.LSA
	default:
		base = filter.LS
	}
	var ignored filter.Func
	if cfg.Gitignore {
		ignored = filter.Gitignore(cfg.Path)
	}
	return filter.And(base, ignored)
}

func runDir(cfg Config, match filter.Func, formatter output.Formatter, w io.Writer, logger *log.Logger) int {
	entries := getdents.List(cfg.Path, getdents.ListOptions{
		BufferSize:     cfg.BufferSize,
		Keep:           filter.And(entryFilter(cfg), match),
		ResolveUnknown: cfg.ResolveUnknown,
	})

	n, err := output.Render(w, formatter, entries)
	if err != nil {
		logger.Error("list failed", "path", cfg.Path, "err", err)
		return ExitCode(err)
	}
	logger.Debug("done", "entries", n)
	return ExitOK
}

func runRecursive(cfg Config, match filter.Func, formatter output.Formatter, w io.Writer, logger *log.Logger) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items, errs := walker.Walk(ctx, []string{cfg.Path}, walker.Options{
		BufferSize:     cfg.BufferSize,
		NoIgnore:       cfg.NoIgnore,
		Hidden:         cfg.Hidden || cfg.All || cfg.Raw,
		ResolveUnknown: cfg.ResolveUnknown,
		Workers:        cfg.Workers,
		Keep:           match,
	})

	// Log walk errors in background
	var (
		g       errgroup.Group
		walkErr error
	)
	g.Go(func() error {
		for err := range errs {
			logger.Warn("walk error", "err", err)
			if walkErr == nil {
				walkErr = err
			}
		}
		return nil
	})

	n, err := output.Render(w, formatter, relativeEntries(cfg.Path, items))
	cancel()
	for range items {
	}
	g.Wait()

	if err != nil {
		logger.Error("list failed", "path", cfg.Path, "err", err)
		return ExitCode(err)
	}
	logger.Debug("done", "entries", n)
	return ExitCode(walkErr)
}

// relativeEntries adapts walker items to entries named by their path
// below root.
func relativeEntries(root string, items <-chan walker.Item) iter.Seq2[dirent.Entry, error] {
	prefix := root
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return func(yield func(dirent.Entry, error) bool) {
		for it := range items {
			e := it.Entry
			e.Name = strings.TrimPrefix(it.Path(), prefix)
			if !yield(e, nil) {
				return
			}
		}
	}
}
