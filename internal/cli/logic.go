package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/diskray/diskray/internal/analyze"
	"github.com/diskray/diskray/internal/scan"
)

// run executes one scan with the parsed options and prints the report.
func run(ctx context.Context, cfg scan.Config, opts options) error {
	var sinks []scan.EntrySink

	var analyzer *analyze.Analyzer
	if opts.analyze {
		analyzer = analyze.New(opts.topDisplay)
		sinks = append(sinks, analyzer)
	}

	controller, err := scan.New(cfg, sinks...)
	if err != nil {
		return err
	}

	enableProgress := opts.output != "json" &&
		!opts.debug &&
		isatty.IsTerminal(os.Stderr.Fd())

	if enableProgress {
		var total int64

		if opts.estimate {
			if est, err := scan.EstimateRoots(ctx, cfg.RootPaths); err == nil {
				total = est.Entries
			}
		}

		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(os.Stderr, "\033[?25l")
		defer fmt.Fprint(os.Stderr, "\033[?25h")

		controller.SetProgressHook(func(p scan.Progress) {
			msg := fmt.Sprintf("Scanning… %d files, %s",
				p.Files, humanize.IBytes(uint64(p.Bytes)))
			if total > 0 {
				pct := float64(p.Files+p.Dirs) / float64(total) * 100
				msg = fmt.Sprintf("%s (%.0f%%)", msg, min(pct, 100))
			}
			fmt.Fprintf(os.Stderr, "\r\033[2K%s\r", msg)
		})
	}

	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("starting scan: %w", err)
	}

	controller.Wait()

	// Clear the status line
	if enableProgress {
		fmt.Fprint(os.Stderr, "\r\033[2K\r")
	}

	result := Result{Snapshot: controller.Snapshot()}

	if analyzer != nil {
		report := analyzer.Report(result.Snapshot.Bytes)
		result.Analysis = &report
	}

	switch opts.output {
	case "json":
		return PrintJSON(result, os.Stdout)
	default:
		return PrintTable(result, os.Stdout, opts.topDisplay)
	}
}
