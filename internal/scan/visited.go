package scan

import (
	"path/filepath"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// canonicalPath resolves path to its canonical identity: symlinks
// eliminated, absolute, and Unicode-normalized so that differently
// composed spellings of the same name compare equal.
func canonicalPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", err
	}

	return norm.NFC.String(abs), nil
}

// visitedSet tracks canonical directory identities already claimed by a
// walker. It is shared across all walkers of a session so that symlink
// cycles and overlapping roots are each traversed at most once.
type visitedSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func newVisitedSet() *visitedSet {
	return &visitedSet{paths: make(map[string]struct{})}
}

// insert atomically records canon and reports whether it was absent.
// A false return means another walker already owns the directory.
func (s *visitedSet) insert(canon string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paths[canon]; ok {
		return false
	}

	s.paths[canon] = struct{}{}

	return true
}

// size returns the number of recorded identities.
func (s *visitedSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.paths)
}
