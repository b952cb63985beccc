// Package analyze derives secondary statistics from a scan: file
// category breakdowns, files untouched for a long time, and groups of
// same-sized files that are worth a duplicate check.
package analyze

import (
	"sort"
	"sync"
	"time"

	"github.com/diskray/diskray/internal/scan"
)

// OldFileAge is how long a file must go unmodified to count as old.
const OldFileAge = 365 * 24 * time.Hour

// CategoryStats summarizes one category's share of the scan.
type CategoryStats struct {
	// Category is the classification.
	Category Category `json:"category"`
	// Files is the number of files in the category.
	Files int64 `json:"files"`
	// Bytes is the cumulative size of those files.
	Bytes int64 `json:"bytes"`
	// Percent is the category's share of total scanned bytes.
	Percent float64 `json:"percent"`
}

// DuplicateGroup lists paths of files sharing one exact size. Equal
// size is only a first-pass signal; callers wanting certainty still
// need to compare contents.
type DuplicateGroup struct {
	// Size is the shared file size in bytes.
	Size int64 `json:"size"`
	// Paths are the files with that size.
	Paths []string `json:"paths"`
}

// Report is the analyzer's output for one scan.
type Report struct {
	// Categories holds per-category stats, largest share first.
	Categories []CategoryStats `json:"categories"`
	// Duplicates holds same-size groups, biggest group first.
	Duplicates []DuplicateGroup `json:"duplicates,omitempty"`
	// OldFiles holds files unmodified for over a year, oldest first.
	OldFiles []scan.FileInfo `json:"old_files,omitempty"`
}

// Analyzer accumulates analysis incrementally as the scan runs. It
// implements scan.EntrySink, so it is wired into a Controller at
// construction and needs no second pass over the tree.
type Analyzer struct {
	mu        sync.Mutex
	cutoff    time.Time
	cats      map[Category]*CategoryStats
	bySize    map[int64][]string
	old       []scan.FileInfo
	maxGroups int
	maxOld    int
}

// New creates an Analyzer. bound caps the duplicate groups and old
// files retained in a Report; <= 0 keeps the default of 100.
func New(bound int) *Analyzer {
	if bound <= 0 {
		bound = 100
	}

	return &Analyzer{
		cutoff:    time.Now().Add(-OldFileAge),
		cats:      make(map[Category]*CategoryStats),
		bySize:    make(map[int64][]string),
		maxGroups: bound,
		maxOld:    bound,
	}
}

// Observe folds one entry into the analysis. Non-file entries are
// ignored. Called from the aggregator goroutine.
func (a *Analyzer) Observe(e scan.Entry) {
	if e.Kind != scan.KindFile || e.Err != nil {
		return
	}

	cat := Categorize(e)

	a.mu.Lock()
	defer a.mu.Unlock()

	stat, ok := a.cats[cat]
	if !ok {
		stat = &CategoryStats{Category: cat}
		a.cats[cat] = stat
	}

	stat.Files++
	stat.Bytes += e.Size

	if e.Size > 0 {
		a.bySize[e.Size] = append(a.bySize[e.Size], e.Path)
	}

	if e.ModTime.Before(a.cutoff) {
		a.old = append(a.old, scan.FileInfo{Path: e.Path, Size: e.Size, ModTime: e.ModTime})
	}
}

// Report assembles the analysis. totalBytes scales category
// percentages; pass the scan snapshot's byte counter.
func (a *Analyzer) Report(totalBytes int64) Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	categories := make([]CategoryStats, 0, len(a.cats))

	for _, stat := range a.cats {
		s := *stat
		if totalBytes > 0 {
			s.Percent = float64(s.Bytes) / float64(totalBytes) * 100
		}

		categories = append(categories, s)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Bytes > categories[j].Bytes
	})

	duplicates := make([]DuplicateGroup, 0)

	for size, paths := range a.bySize {
		if len(paths) < 2 {
			continue
		}

		group := DuplicateGroup{Size: size, Paths: append([]string(nil), paths...)}
		sort.Strings(group.Paths)
		duplicates = append(duplicates, group)
	}

	sort.Slice(duplicates, func(i, j int) bool {
		if len(duplicates[i].Paths) != len(duplicates[j].Paths) {
			return len(duplicates[i].Paths) > len(duplicates[j].Paths)
		}

		return duplicates[i].Size > duplicates[j].Size
	})

	if len(duplicates) > a.maxGroups {
		duplicates = duplicates[:a.maxGroups]
	}

	old := append([]scan.FileInfo(nil), a.old...)
	sort.Slice(old, func(i, j int) bool {
		return old[i].ModTime.Before(old[j].ModTime)
	})

	if len(old) > a.maxOld {
		old = old[:a.maxOld]
	}

	return Report{
		Categories: categories,
		Duplicates: duplicates,
		OldFiles:   old,
	}
}
