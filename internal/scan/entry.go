package scan

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// Kind classifies a filesystem entry.
type Kind uint8

// Entry kinds, in the order they are most commonly encountered.
const (
	KindFile Kind = iota
	KindDir
	KindSymlink
	KindOther
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// kindFromMode derives the Kind from a file mode.
func kindFromMode(mode fs.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Entry is one filesystem object discovered during a walk. Entries are
// immutable once emitted by a walker; the aggregator folds them into the
// result tree and discards them.
type Entry struct {
	// Path is the absolute path of the entry.
	Path string
	// Root is the scan root this entry was discovered under.
	Root string
	// Kind classifies the entry.
	Kind Kind
	// Size is the size in bytes. Zero for directories pre-aggregation.
	Size int64
	// ModTime is the last-modified timestamp.
	ModTime time.Time
	// Ext is the lowercased filename extension. Empty for directories.
	Ext string
	// Err is set when metadata for the path could not be read.
	Err error
}

// extOf returns the lowercased extension of path, including the dot.
func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
