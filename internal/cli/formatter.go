package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/diskray/diskray/internal/analyze"
	"github.com/diskray/diskray/internal/scan"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// Result is everything one invocation reports.
type Result struct {
	// Snapshot is the final scan snapshot.
	Snapshot *scan.Snapshot `json:"snapshot"`
	// Analysis is present when --analyze was given.
	Analysis *analyze.Report `json:"analysis,omitempty"`
}

// PrintJSON outputs the result in JSON format.
func PrintJSON(result Result, writer io.Writer) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintTable outputs the result in human-readable table format,
// limiting each section to show entries.
func PrintTable(result Result, writer io.Writer, show int) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)
	snap := result.Snapshot

	if show <= 0 {
		show = 10
	}

	// Per-root cumulative sizes
	fmt.Fprintln(w, "\nRoots:\t\t")

	for _, root := range snap.Roots {
		fmt.Fprintf(w, "  %s\t%s\t%d files\n",
			root.Path, humanize.IBytes(uint64(root.CumulativeSize)), root.FileCount)
	}

	// Extension statistics, merged across roots
	extStats := mergeExtStats(snap.Roots)
	if len(extStats) > 0 {
		fmt.Fprintln(w, "\nTop extensions:\t\t")

		extList := make([]string, 0, len(extStats))
		for ext := range extStats {
			extList = append(extList, ext)
		}

		sort.Slice(extList, func(i, j int) bool {
			return extStats[extList[i]].Bytes > extStats[extList[j]].Bytes
		})

		if len(extList) > show {
			extList = extList[:show]
		}

		for i, ext := range extList {
			stat := extStats[ext]

			pct := 0.0
			if snap.Bytes > 0 {
				pct = 100.0 * float64(stat.Bytes) / float64(snap.Bytes)
			}

			if ext == "" {
				ext = "\"\""
			}

			fmt.Fprintf(w, "  %d) %s:\t%d files, %s (%.1f%%)\n",
				i+1, ext, stat.Count, humanize.IBytes(uint64(stat.Bytes)), pct)
		}
	}

	// Largest files
	topFiles := snap.TopFiles
	if len(topFiles) > show {
		topFiles = topFiles[:show]
	}

	if len(topFiles) > 0 {
		fmt.Fprintln(w, "\nTop files:\t\t")

		for i, f := range topFiles {
			pct := 0.0
			if snap.Bytes > 0 {
				pct = 100.0 * float64(f.Size) / float64(snap.Bytes)
			}

			fmt.Fprintf(w, "  %d) '%s'\t%s (%.1f%%)\n",
				i+1, f.Path, humanize.IBytes(uint64(f.Size)), pct)
		}
	}

	if result.Analysis != nil {
		printAnalysis(w, result.Analysis, show)
	}

	// Stats summary
	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "State:\t%s\n", snap.State)
	fmt.Fprintf(w, "Total files:\t%d\n", snap.Files)
	fmt.Fprintf(w, "Total directories:\t%d\n", snap.Dirs)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n",
		humanize.IBytes(uint64(snap.Bytes)), snap.Bytes)

	if snap.Errors > 0 {
		fmt.Fprintf(w, "Errors:\t%d\n", snap.Errors)
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", snap.Elapsed)

	return w.Flush()
}

// printAnalysis appends the analyzer sections to the table.
func printAnalysis(w io.Writer, report *analyze.Report, show int) {
	if len(report.Categories) > 0 {
		fmt.Fprintln(w, "\nCategories:\t\t")

		for _, cat := range report.Categories {
			fmt.Fprintf(w, "  %s:\t%d files, %s (%.1f%%)\n",
				cat.Category, cat.Files, humanize.IBytes(uint64(cat.Bytes)), cat.Percent)
		}
	}

	if len(report.Duplicates) > 0 {
		fmt.Fprintln(w, "\nPossible duplicates (same size):\t\t")

		groups := report.Duplicates
		if len(groups) > show {
			groups = groups[:show]
		}

		for i, group := range groups {
			fmt.Fprintf(w, "  %d) %d files of %s\n",
				i+1, len(group.Paths), humanize.IBytes(uint64(group.Size)))
		}
	}

	if len(report.OldFiles) > 0 {
		fmt.Fprintln(w, "\nOldest files (unmodified >1 year):\t\t")

		old := report.OldFiles
		if len(old) > show {
			old = old[:show]
		}

		for i, f := range old {
			fmt.Fprintf(w, "  %d) '%s'\t%s (%s)\n",
				i+1, f.Path, humanize.IBytes(uint64(f.Size)), f.ModTime.Format("2006-01-02"))
		}
	}
}

// mergeExtStats combines per-root extension histograms into one map.
func mergeExtStats(roots []*scan.DirNode) map[string]scan.ExtStat {
	merged := make(map[string]scan.ExtStat)

	for _, root := range roots {
		for ext, stat := range root.ExtStats {
			m := merged[ext]
			m.Count += stat.Count
			m.Bytes += stat.Bytes
			merged[ext] = m
		}
	}

	return merged
}
