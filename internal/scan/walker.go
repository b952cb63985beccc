package scan

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// readDirRetries bounds the retry attempts on descriptor exhaustion.
const readDirRetries = 4

// walker enumerates one directory at a time, emitting an Entry per
// child and reporting subdirectories back to the scheduler. All walkers
// of a session share the visited set and the entry channel; everything
// else is local.
type walker struct {
	visited  *visitedSet
	entries  chan<- Entry
	excludes []*regexp.Regexp
	follow   bool
	minSize  int64
	log      logger
}

// walkDir lists the immediate children of item and returns the
// subdirectories to enqueue. Per-entry errors are emitted as error
// entries and never abort the walk.
func (w *walker) walkDir(item workItem) []workItem {
	children, err := readDirRetry(item.path)
	if err != nil {
		w.log.printf("[debug]: error reading directory %s: %v\n", item.path, err)
		w.entries <- Entry{Path: item.path, Root: item.root, Kind: KindDir, Err: err}

		return nil
	}

	var subdirs []workItem

	for _, child := range children {
		path := filepath.Join(item.path, child.Name())

		if w.excluded(path) {
			w.log.printf("[debug]: excluding %s\n", path)

			continue
		}

		info, err := child.Info()
		if err != nil {
			w.entries <- Entry{Path: path, Root: item.root, Err: err}

			continue
		}

		switch kind := kindFromMode(info.Mode()); kind {
		case KindDir:
			if dir, ok := w.claim(path, item); ok {
				subdirs = append(subdirs, dir)
			}
		case KindSymlink:
			w.entries <- Entry{
				Path:    path,
				Root:    item.root,
				Kind:    KindSymlink,
				ModTime: info.ModTime(),
			}

			if w.follow {
				if dir, ok := w.followLink(path, item); ok {
					subdirs = append(subdirs, dir)
				}
			}
		case KindFile:
			if info.Size() < w.minSize {
				continue
			}

			w.entries <- Entry{
				Path:    path,
				Root:    item.root,
				Kind:    KindFile,
				Size:    info.Size(),
				ModTime: info.ModTime(),
				Ext:     extOf(path),
			}
		default:
			w.entries <- Entry{
				Path:    path,
				Root:    item.root,
				Kind:    KindOther,
				ModTime: info.ModTime(),
			}
		}
	}

	return subdirs
}

// claim registers path's canonical identity in the visited set and
// emits its directory entry. A false return means the directory is a
// cycle target or already owned by another walker.
func (w *walker) claim(path string, item workItem) (workItem, bool) {
	canon, err := canonicalPath(path)
	if err != nil {
		w.entries <- Entry{Path: path, Root: item.root, Kind: KindDir, Err: err}

		return workItem{}, false
	}

	if !w.visited.insert(canon) {
		w.log.printf("[debug]: skipping visited directory %s\n", path)

		return workItem{}, false
	}

	w.entries <- Entry{Path: path, Root: item.root, Kind: KindDir}

	return workItem{path: path, root: item.root}, true
}

// followLink resolves a symlink and, when it targets a directory, claims
// the target for traversal. File targets are emitted as file entries so
// their sizes count once.
func (w *walker) followLink(path string, item workItem) (workItem, bool) {
	info, err := os.Stat(path)
	if err != nil {
		w.entries <- Entry{Path: path, Root: item.root, Kind: KindSymlink, Err: err}

		return workItem{}, false
	}

	if info.IsDir() {
		return w.claim(path, item)
	}

	if info.Mode().IsRegular() && info.Size() >= w.minSize {
		w.entries <- Entry{
			Path:    path,
			Root:    item.root,
			Kind:    KindFile,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Ext:     extOf(path),
		}
	}

	return workItem{}, false
}

// excluded checks path against the exclusion patterns.
func (w *walker) excluded(path string) bool {
	if len(w.excludes) == 0 {
		return false
	}

	slashed := filepath.ToSlash(path)

	for _, re := range w.excludes {
		if re.MatchString(slashed) {
			return true
		}
	}

	return false
}

// readDirRetry lists a directory, retrying with exponential backoff
// when the process is out of file descriptors. Other errors fail
// immediately.
func readDirRetry(path string) ([]os.DirEntry, error) {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(5*time.Millisecond),
		backoff.WithMaxInterval(100*time.Millisecond),
	), readDirRetries)

	return backoff.RetryWithData(func() ([]os.DirEntry, error) {
		children, err := os.ReadDir(path)
		if err != nil && !isFDExhausted(err) {
			return nil, backoff.Permanent(err)
		}

		return children, err
	}, policy)
}

// isFDExhausted reports whether err indicates descriptor exhaustion.
func isFDExhausted(err error) bool {
	return errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE)
}
