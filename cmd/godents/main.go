// Command godents lists directories straight from getdents64.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dl/godents/internal/cli"
	"github.com/dl/godents/internal/dirent"
	"github.com/dl/godents/internal/output"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	cfg := cli.DefaultConfig()
	code := cli.ExitOK

	cmd := &cobra.Command{
		Use:   "godents [flags] [directory]",
		Short: "List a directory with raw getdents64",
		Long: "godents lists directory entries by calling getdents64 directly, without\n" +
			"readdir buffering. Defaults can be set in ~/.godents or $" + cli.ConfigPathEnv + ",\n" +
			"one flag per line.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Path = args[0]
			}
			code = cli.Run(cfg, output.NewWriter(os.Stdout), os.Stderr)
			return nil
		},
	}
	bindFlags(cmd.Flags(), &cfg)

	cmd.SetArgs(append(cli.LoadConfigArgs(), args...))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "godents: %v\n", err)
		return cli.ExitUsage
	}
	return code
}

func bindFlags(fs *pflag.FlagSet, cfg *cli.Config) {
	fs.SortFlags = false
	fs.SetNormalizeFunc(flagAliases)
	fs.IntVarP(&cfg.BufferSize, "buffer-size", "b", cfg.BufferSize,
		fmt.Sprintf("getdents64 buffer size in bytes (minimum %d)", dirent.MinBufferSize))
	fs.StringVarP(&cfg.Format, "format", "o", cfg.Format,
		"output format: "+strings.Join(output.Names(), ", "))
	fs.BoolVarP(&cfg.All, "all", "a", false, "include hidden entries")
	fs.BoolVarP(&cfg.Raw, "unfiltered", "u", false, "print every record, including . and .. and deleted slots")
	fs.BoolVarP(&cfg.Recursive, "recursive", "r", false, "walk subdirectories in parallel")
	fs.BoolVarP(&cfg.Gitignore, "gitignore", "g", false, "drop entries matched by the directory's .gitignore")
	fs.BoolVar(&cfg.NoIgnore, "no-ignore", false, "with -r, do not respect .gitignore files")
	fs.BoolVar(&cfg.Hidden, "hidden", false, "with -r, enter hidden directories")
	fs.StringVarP(&cfg.Match, "match", "m", "", "keep names matching a PCRE pattern")
	fs.BoolVarP(&cfg.IgnoreCase, "ignore-case", "i", false, "case-insensitive -m")
	fs.BoolVarP(&cfg.Invert, "invert-match", "v", false, "drop names matching -m instead")
	fs.BoolVar(&cfg.ResolveUnknown, "resolve", false, "fstatat entries the filesystem reports as unknown")
	fs.StringVar(&cfg.Color, "color", cfg.Color, "colorize plain output: "+strings.Join(output.ColorModes, ", "))
	fs.IntVarP(&cfg.Workers, "jobs", "j", 0, "with -r, number of walker goroutines (default: CPUs)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "log debug details to stderr")
}

// flagAliases maps alternate spellings onto the flags bindFlags defines.
func flagAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "output-format":
		name = "format"
	}
	return pflag.NormalizedName(name)
}
