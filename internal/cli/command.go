// Package cli wires the scanning engine to a command line: flag
// parsing, progress rendering, and table or JSON output.
package cli

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/diskray/diskray/internal/scan"
)

// options collects every flag of the diskray command.
type options struct {
	workers        int
	topK           int
	topDisplay     int
	followSymlinks bool
	interval       time.Duration
	excludes       []string
	minSizeStr     string
	output         string
	analyze        bool
	estimate       bool
	debug          bool
}

// NewCommand builds the diskray root command.
func NewCommand(version string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "diskray [flags] [path...]",
		Short:   "Analyze disk usage under one or more directories",
		Version: version,
		Long: heredoc.Doc(`
			diskray scans one or more directory trees in parallel and reports
			where the bytes went: cumulative sizes per directory, statistics
			per file extension, and the largest files found.

			Paths default to the current directory. Symlinked directories are
			not followed unless --follow-symlinks is given; cycles are broken
			either way. Permission errors never abort a scan, they are
			counted and listed in the output.

			With --analyze the report adds file-category shares, files
			untouched for over a year, and groups of same-sized files worth a
			duplicate check.
		`),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			allowedOutputs := []string{"table", "json"}
			if !slices.Contains(allowedOutputs, opts.output) {
				return fmt.Errorf("invalid output format %q: must be one of %v", opts.output, allowedOutputs)
			}

			if opts.workers < 0 {
				return errors.New("workers cannot be negative")
			}

			cfg := scan.Config{
				RootPaths:        args,
				WorkerCount:      opts.workers,
				TopKFiles:        opts.topK,
				FollowSymlinks:   opts.followSymlinks,
				ProgressInterval: opts.interval,
				Excludes:         opts.excludes,
				Debug:            opts.debug,
			}

			if len(cfg.RootPaths) == 0 {
				cfg.RootPaths = []string{"."}
			}

			if opts.minSizeStr != "" {
				size, err := humanize.ParseBytes(opts.minSizeStr)
				if err != nil {
					return fmt.Errorf("invalid min-size: %w", err)
				}

				cfg.MinSize = int64(size)
			}

			return run(cmd.Context(), cfg, *opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Walker pool size (0 = logical CPU count)")
	flags.IntVarP(&opts.topK, "top", "t", 100, "Number of largest files to track")
	flags.IntVar(&opts.topDisplay, "show", 10, "Number of top entries to display per table")
	flags.BoolVarP(&opts.followSymlinks, "follow-symlinks", "L", false, "Follow symlinked directories (cycle-safe)")
	flags.DurationVar(&opts.interval, "interval", scan.DefaultProgressInterval, "Progress update interval")
	flags.StringSliceVarP(&opts.excludes, "exclude", "e", nil, "Regex patterns to exclude")
	flags.StringVar(&opts.minSizeStr, "min-size", "", "Minimum file size to include (e.g., 1KB)")
	flags.StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")
	flags.BoolVarP(&opts.analyze, "analyze", "a", false, "Include category, old-file, and duplicate analysis")
	flags.BoolVar(&opts.estimate, "estimate", false, "Pre-count entries for progress totals")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug output")
	flags.SortFlags = false

	return cmd
}
