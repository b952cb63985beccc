package scan

import (
	"sync"
	"sync/atomic"
)

// EntrySink receives every entry the aggregator folds. Sinks are called
// from the aggregator goroutine, in fold order.
type EntrySink interface {
	Observe(Entry)
}

// PathError records one per-entry error for the on-demand error list.
type PathError struct {
	// Path is the path the error occurred on.
	Path string `json:"path"`
	// Err is the error message.
	Err string `json:"err"`
}

// aggregator drains the entry channel on a single goroutine and folds
// each entry into the directory tree. Serializing folds linearizes
// updates to shared ancestor chains; snapshots take the same lock, so
// no partial fold is ever visible.
type aggregator struct {
	entries chan Entry
	done    chan struct{}

	mu       sync.Mutex
	tree     *dirTree
	top      *topK
	pathErrs []PathError
	sinks    []EntrySink

	files   atomic.Int64
	bytes   atomic.Int64
	dirs    atomic.Int64
	errs    atomic.Int64
	current atomic.Pointer[string]
}

func newAggregator(roots []string, topK int, sinks []EntrySink) *aggregator {
	return &aggregator{
		entries: make(chan Entry, 1024),
		done:    make(chan struct{}),
		tree:    newDirTree(roots),
		top:     newTopK(topK),
		sinks:   sinks,
	}
}

// run folds entries until the channel is closed, then signals done.
func (a *aggregator) run() {
	defer close(a.done)

	for e := range a.entries {
		a.fold(e)
	}
}

// fold merges one entry into the tree and counters.
func (a *aggregator) fold(e Entry) {
	path := e.Path
	a.current.Store(&path)

	a.mu.Lock()

	switch {
	case e.Err != nil:
		a.errs.Add(1)
		a.pathErrs = append(a.pathErrs, PathError{Path: e.Path, Err: e.Err.Error()})
		a.tree.foldError(e)
	case e.Kind == KindFile:
		a.files.Add(1)
		a.bytes.Add(e.Size)
		a.tree.foldFile(e)
		a.top.offer(FileInfo{Path: e.Path, Size: e.Size, ModTime: e.ModTime})
	case e.Kind == KindDir:
		a.dirs.Add(1)
		a.tree.foldDir(e)
	}

	a.mu.Unlock()

	for _, sink := range a.sinks {
		sink.Observe(e)
	}
}

// counters returns the running totals. Safe to call concurrently with
// folding; used by the progress reporter.
func (a *aggregator) counters() (files, bytes, dirs, errs int64, current string) {
	if p := a.current.Load(); p != nil {
		current = *p
	}

	return a.files.Load(), a.bytes.Load(), a.dirs.Load(), a.errs.Load(), current
}

// snapshot deep-copies the tree, top-K set, and error list under the
// fold lock, so the returned view is consistent.
func (a *aggregator) snapshot() ([]*DirNode, []FileInfo, []PathError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	errs := make([]PathError, len(a.pathErrs))
	copy(errs, a.pathErrs)

	return a.tree.copyRoots(), a.top.list(), errs
}
