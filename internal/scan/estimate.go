package scan

import (
	"context"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// Estimate is a fast, best-effort pre-count of a set of roots, used to
// give progress consumers a denominator before the real scan starts.
type Estimate struct {
	// Entries is the number of filesystem entries found.
	Entries int64 `json:"entries"`
	// Bytes is the apparent size of the regular files found.
	Bytes int64 `json:"bytes"`
}

// EstimateRoots counts entries under roots without building any tree.
// Per-entry errors are ignored; cancellation stops the count early and
// returns whatever was tallied.
func EstimateRoots(ctx context.Context, roots []string) (Estimate, error) {
	var entries, bytes atomic.Int64

	conf := &fastwalk.Config{
		Follow: false,
	}

	for _, root := range roots {
		err := fastwalk.Walk(conf, root, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}

			select {
			case <-ctx.Done():
				return context.Canceled
			default:
			}

			entries.Add(1)

			if d.Type().IsRegular() {
				if info, err := d.Info(); err == nil {
					bytes.Add(info.Size())
				}
			}

			return nil
		})
		if err != nil {
			return Estimate{Entries: entries.Load(), Bytes: bytes.Load()}, err
		}
	}

	return Estimate{Entries: entries.Load(), Bytes: bytes.Load()}, nil
}
