package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a Controller.
type State int32

// Controller states. Idle is initial; Completed, Cancelled, and Failed
// are terminal, and any terminal state accepts a fresh Start.
const (
	StateIdle State = iota
	StateRunning
	StateCancelling
	StateCompleted
	StateCancelled
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCancelling:
		return "cancelling"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler for JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Errors returned by Start.
var (
	// ErrScanInProgress is returned when Start is called on a running scan.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrNoRoots is returned when no root paths are configured.
	ErrNoRoots = errors.New("no root paths configured")
)

// Snapshot is a consistent, read-only view of a scan at one point in
// time. It is a deep copy: safe to hold and read while the scan
// continues.
type Snapshot struct {
	// State is the controller state at capture time.
	State State `json:"state"`
	// Roots holds one aggregated tree per scan root, sorted by path.
	Roots []*DirNode `json:"roots"`
	// TopFiles holds the largest files seen so far, largest first.
	TopFiles []FileInfo `json:"top_files"`
	// Files is the number of regular files folded.
	Files int64 `json:"files"`
	// Bytes is the cumulative size of folded files.
	Bytes int64 `json:"bytes"`
	// Dirs is the number of directories discovered.
	Dirs int64 `json:"dirs"`
	// Errors is the number of per-entry errors recorded.
	Errors int64 `json:"errors"`
	// PathErrors lists every per-entry error with its path.
	PathErrors []PathError `json:"path_errors,omitempty"`
	// Started is the session start time.
	Started time.Time `json:"started"`
	// Elapsed is the time spent scanning so far.
	Elapsed time.Duration `json:"elapsed"`
}

// Controller orchestrates scan sessions: it owns the scheduler,
// walkers, aggregator, and progress reporter of the current session and
// exposes the snapshot/query API over the evolving result tree.
type Controller struct {
	cfg      Config
	excludes []*regexp.Regexp
	rep      *reporter
	sinks    []EntrySink
	log      logger

	mu      sync.Mutex
	state   State
	session *session
	lastErr error
}

// session is one scan invocation's shared machinery.
type session struct {
	agg       *aggregator
	queue     *dirQueue
	visited   *visitedSet
	cancel    context.CancelFunc
	cancelled atomic.Bool
	started   time.Time
	elapsed   time.Duration
	done      chan struct{}
}

// New creates a Controller for cfg. Additional sinks receive every
// folded entry (the analyzer subscribes this way). The configuration is
// validated eagerly so a bad exclusion pattern fails before any scan.
func New(cfg Config, sinks ...EntrySink) (*Controller, error) {
	cfg, excludes, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	return &Controller{
		cfg:      cfg,
		excludes: excludes,
		rep:      newReporter(cfg.ProgressInterval),
		sinks:    sinks,
		log:      logger{enabled: cfg.Debug},
		state:    StateIdle,
	}, nil
}

// Subscribe registers a progress observer. Observers persist across
// sessions and never backpressure the scan.
func (c *Controller) Subscribe(buffer int) <-chan Progress {
	return c.rep.Subscribe(buffer)
}

// SetProgressHook installs a callback invoked on each progress update.
func (c *Controller) SetProgressHook(hook func(Progress)) {
	c.rep.SetHook(hook)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Err returns the cause of the most recent Failed transition, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastErr
}

// Start begins a new scan session over the configured roots, or over
// rootPaths when given. It returns ErrScanInProgress while a session is
// running. A root that does not resolve to an accessible directory
// fails the scan immediately: no partial result would be meaningful.
// Terminal states are reset by a fresh session.
func (c *Controller) Start(ctx context.Context, rootPaths ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning || c.state == StateCancelling {
		return ErrScanInProgress
	}

	if len(rootPaths) == 0 {
		rootPaths = c.cfg.RootPaths
	}

	if len(rootPaths) == 0 {
		c.state = StateFailed
		c.lastErr = ErrNoRoots

		return ErrNoRoots
	}

	roots, err := resolveRoots(rootPaths)
	if err != nil {
		c.state = StateFailed
		c.lastErr = err

		return err
	}

	s := &session{
		queue:   newDirQueue(),
		visited: newVisitedSet(),
		started: time.Now(),
		done:    make(chan struct{}),
	}

	s.agg = newAggregator(roots, c.cfg.TopKFiles, c.sinks)

	sessionCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, root := range roots {
		s.visited.insert(root)
		s.queue.push(workItem{path: root, root: root})
	}

	go s.agg.run()

	repCtx, repCancel := context.WithCancel(context.Background())
	repDone := make(chan struct{})

	go func() {
		c.rep.run(repCtx, s.agg)
		close(repDone)
	}()

	var eg errgroup.Group

	for i := 0; i < c.cfg.WorkerCount; i++ {
		w := &walker{
			visited:  s.visited,
			entries:  s.agg.entries,
			excludes: c.excludes,
			follow:   c.cfg.FollowSymlinks,
			minSize:  c.cfg.MinSize,
			log:      c.log,
		}

		eg.Go(func() error {
			return runWorker(sessionCtx, w, s.queue)
		})
	}

	// Release workers blocked on the queue if the caller's context is
	// cancelled without an explicit Cancel.
	go func() {
		<-sessionCtx.Done()
		s.queue.close()
	}()

	go func() {
		workErr := eg.Wait()
		s.cancel()
		close(s.agg.entries)
		<-s.agg.done
		repCancel()
		<-repDone

		c.mu.Lock()
		defer c.mu.Unlock()

		s.elapsed = time.Since(s.started)

		if s.cancelled.Load() || errors.Is(workErr, context.Canceled) {
			c.state = StateCancelled
		} else {
			c.state = StateCompleted
		}

		close(s.done)
	}()

	c.session = s
	c.state = StateRunning
	c.lastErr = nil

	return nil
}

// runWorker pops directories until the queue drains or the session is
// cancelled. Cancellation is honored between directories: a popped
// directory's immediate children are always finished first, so no node
// is left half-folded.
func runWorker(ctx context.Context, w *walker, queue *dirQueue) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, ok := queue.pop()
		if !ok {
			return ctx.Err()
		}

		for _, subdir := range w.walkDir(item) {
			queue.push(subdir)
		}

		queue.done()
	}
}

// Cancel requests cooperative cancellation of the running session.
// Idempotent; a no-op when no scan is running.
func (c *Controller) Cancel() {
	c.mu.Lock()

	s := c.session
	if c.state != StateRunning || s == nil {
		c.mu.Unlock()

		return
	}

	c.state = StateCancelling
	c.mu.Unlock()

	s.cancelled.Store(true)
	s.cancel()
	s.queue.close()
}

// Wait blocks until the current session reaches a terminal state and
// returns it. Returns immediately when no session has been started.
func (c *Controller) Wait() State {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s != nil {
		<-s.done
	}

	return c.State()
}

// Snapshot captures a deep copy of the current result tree and
// counters. Safe to call at any time, including mid-scan.
func (c *Controller) Snapshot() *Snapshot {
	c.mu.Lock()
	s := c.session
	state := c.state

	var elapsed time.Duration
	if s != nil {
		elapsed = s.elapsed
	}
	c.mu.Unlock()

	if s == nil {
		return &Snapshot{State: state}
	}

	if elapsed == 0 {
		elapsed = time.Since(s.started)
	}

	roots, topFiles, pathErrs := s.agg.snapshot()
	files, bytes, dirs, errs, _ := s.agg.counters()

	return &Snapshot{
		State:      state,
		Roots:      roots,
		TopFiles:   topFiles,
		Files:      files,
		Bytes:      bytes,
		Dirs:       dirs,
		Errors:     errs,
		PathErrors: pathErrs,
		Started:    s.started,
		Elapsed:    elapsed,
	}
}

// resolveRoots canonicalizes and validates the configured roots,
// dropping duplicates that resolve to the same identity.
func resolveRoots(paths []string) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	roots := make([]string, 0, len(paths))

	for _, path := range paths {
		canon, err := canonicalPath(path)
		if err != nil {
			return nil, fmt.Errorf("resolving root %q: %w", path, err)
		}

		info, err := os.Stat(canon)
		if err != nil {
			return nil, fmt.Errorf("accessing root %q: %w", path, err)
		}

		if !info.IsDir() {
			return nil, fmt.Errorf("root %q is not a directory", path)
		}

		if _, ok := seen[canon]; ok {
			continue
		}

		seen[canon] = struct{}{}
		roots = append(roots, canon)
	}

	return roots, nil
}
