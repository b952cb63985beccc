package scan

import (
	"context"
	"sync"
	"time"
)

// Progress is one throttled view of a running scan.
type Progress struct {
	// Files is the number of regular files folded so far.
	Files int64 `json:"files"`
	// Bytes is the cumulative size of folded files.
	Bytes int64 `json:"bytes"`
	// Dirs is the number of directories discovered.
	Dirs int64 `json:"dirs"`
	// Errors is the number of per-entry errors recorded.
	Errors int64 `json:"errors"`
	// CurrentPath is the most recently folded path.
	CurrentPath string `json:"current_path"`
	// Done marks the final update of a session.
	Done bool `json:"done"`
}

// reporter publishes throttled progress updates to registered
// observers. Publication never blocks the scan: observers with full
// buffers miss that update and catch up on the next tick.
type reporter struct {
	interval time.Duration

	mu        sync.Mutex
	observers []chan Progress
	hook      func(Progress)
}

func newReporter(interval time.Duration) *reporter {
	return &reporter{interval: interval}
}

// Subscribe registers an observer channel with the given buffer size.
// Observers persist across sessions.
func (r *reporter) Subscribe(buffer int) <-chan Progress {
	if buffer < 1 {
		buffer = 1
	}

	ch := make(chan Progress, buffer)

	r.mu.Lock()
	r.observers = append(r.observers, ch)
	r.mu.Unlock()

	return ch
}

// SetHook installs a plain callback invoked on every published update.
func (r *reporter) SetHook(hook func(Progress)) {
	r.mu.Lock()
	r.hook = hook
	r.mu.Unlock()
}

// run publishes on each tick until ctx is done, then publishes one
// final update marked Done.
func (r *reporter) run(ctx context.Context, agg *aggregator) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.publish(snapshotProgress(agg, false))
		case <-ctx.Done():
			r.publish(snapshotProgress(agg, true))

			return
		}
	}
}

// publish fans an update out to the hook and all observers,
// non-blocking per observer.
func (r *reporter) publish(p Progress) {
	r.mu.Lock()
	hook := r.hook
	observers := make([]chan Progress, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	if hook != nil {
		hook(p)
	}

	for _, ch := range observers {
		select {
		case ch <- p:
		default:
		}
	}
}

func snapshotProgress(agg *aggregator, done bool) Progress {
	files, bytes, dirs, errs, current := agg.counters()

	return Progress{
		Files:       files,
		Bytes:       bytes,
		Dirs:        dirs,
		Errors:      errs,
		CurrentPath: current,
		Done:        done,
	}
}
