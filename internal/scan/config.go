package scan

import (
	"fmt"
	"regexp"
	"runtime"
	"time"
)

// Defaults applied by Config.withDefaults.
const (
	// DefaultTopK is the default number of largest files tracked.
	DefaultTopK = 100
	// DefaultProgressInterval is the default cadence of progress updates.
	DefaultProgressInterval = 250 * time.Millisecond
)

// Config configures a scan.
type Config struct {
	// RootPaths are the directories to scan.
	RootPaths []string
	// WorkerCount is the walker pool size (default = logical CPU count).
	WorkerCount int
	// TopKFiles is the number of largest files to track (default 100).
	TopKFiles int
	// FollowSymlinks enables traversal into symlinked directories whose
	// canonical target has not been visited yet.
	FollowSymlinks bool
	// ProgressInterval controls progress publication cadence.
	ProgressInterval time.Duration
	// MinSize is the minimum file size in bytes to include.
	MinSize int64
	// Excludes contains regex patterns matched against slash-separated
	// paths. Matching directories are skipped entirely.
	Excludes []string
	// Debug enables walk diagnostics on stdout.
	Debug bool
}

// withDefaults returns a copy of the config with zero values replaced by
// defaults, plus the compiled exclusion patterns.
func (c Config) withDefaults() (Config, []*regexp.Regexp, error) {
	if c.WorkerCount <= 0 {
		c.WorkerCount = runtime.NumCPU()
	}

	if c.TopKFiles <= 0 {
		c.TopKFiles = DefaultTopK
	}

	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}

	excludes := make([]*regexp.Regexp, 0, len(c.Excludes))

	for _, p := range c.Excludes {
		re, err := regexp.Compile(p)
		if err != nil {
			return c, nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		excludes = append(excludes, re)
	}

	return c, excludes, nil
}

// logger provides conditional debug output.
type logger struct {
	enabled bool
}

// printf prints debug output if logging is enabled.
func (l logger) printf(format string, args ...any) {
	if l.enabled {
		fmt.Printf(format, args...)
	}
}
