package scan

import (
	"path/filepath"
	"sort"
	"strings"
)

// ExtStat accumulates per-extension statistics.
type ExtStat struct {
	// Count is the number of files with this extension.
	Count int64 `json:"count"`
	// Bytes is the cumulative size in bytes.
	Bytes int64 `json:"bytes"`
}

// DirNode is one directory in the aggregated result tree. Nodes are
// mutated only by the aggregator; external consumers receive deep
// copies via Snapshot.
type DirNode struct {
	// Path is the absolute directory path.
	Path string `json:"path"`
	// CumulativeSize is the sum of all descendant file sizes.
	CumulativeSize int64 `json:"cumulative_size"`
	// ChildCount is the number of direct children (files and dirs).
	ChildCount int64 `json:"child_count"`
	// FileCount is the number of files in the subtree.
	FileCount int64 `json:"file_count"`
	// Errors is the number of per-entry errors recorded in the subtree.
	Errors int64 `json:"errors"`
	// ExtStats maps extensions to statistics for the subtree.
	ExtStats map[string]ExtStat `json:"ext_stats,omitempty"`
	// Children holds the child directories, sorted by path.
	Children []*DirNode `json:"children,omitempty"`

	parent *DirNode
}

// dirTree holds the evolving result tree for one session. The owning
// aggregator serializes all mutation; snapshots are taken under the
// aggregator's lock so the size invariant holds at every copy.
type dirTree struct {
	roots map[string]*DirNode
	nodes map[string]*DirNode
}

func newDirTree(roots []string) *dirTree {
	t := &dirTree{
		roots: make(map[string]*DirNode, len(roots)),
		nodes: make(map[string]*DirNode, len(roots)),
	}

	for _, root := range roots {
		node := &DirNode{Path: root, ExtStats: make(map[string]ExtStat)}
		t.roots[root] = node
		t.nodes[root] = node
	}

	return t
}

// node returns the DirNode for dir, creating it and any missing
// ancestors up to root on demand.
func (t *dirTree) node(dir, root string) *DirNode {
	if n, ok := t.nodes[dir]; ok {
		return n
	}

	if !isWithin(root, dir) {
		// Stray path outside its root. Attribute it to the root node
		// rather than corrupting the tree shape.
		return t.roots[root]
	}

	parent := t.node(filepath.Dir(dir), root)

	n := &DirNode{
		Path:     dir,
		ExtStats: make(map[string]ExtStat),
		parent:   parent,
	}

	parent.Children = append(parent.Children, n)
	parent.ChildCount++
	t.nodes[dir] = n

	return n
}

// foldFile merges one regular-file entry into the tree, incrementing
// cumulative size, file count, and the extension histogram on the
// file's directory and every ancestor up to the root.
func (t *dirTree) foldFile(e Entry) {
	dir := t.node(filepath.Dir(e.Path), e.Root)
	dir.ChildCount++

	for n := dir; n != nil; n = n.parent {
		n.CumulativeSize += e.Size
		n.FileCount++

		stat := n.ExtStats[e.Ext]
		stat.Count++
		stat.Bytes += e.Size
		n.ExtStats[e.Ext] = stat
	}
}

// foldDir registers a directory entry, creating its node.
func (t *dirTree) foldDir(e Entry) {
	t.node(e.Path, e.Root)
}

// foldError records a per-entry error against the entry's directory and
// its ancestors.
func (t *dirTree) foldError(e Entry) {
	dir := e.Path
	if e.Kind != KindDir {
		dir = filepath.Dir(e.Path)
	}

	for n := t.node(dir, e.Root); n != nil; n = n.parent {
		n.Errors++
	}
}

// copyRoots deep-copies the root nodes, sorting children by path. The
// copies carry no parent links and are safe to hand out.
func (t *dirTree) copyRoots() []*DirNode {
	paths := make([]string, 0, len(t.roots))
	for path := range t.roots {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	copies := make([]*DirNode, 0, len(paths))
	for _, path := range paths {
		copies = append(copies, copyNode(t.roots[path]))
	}

	return copies
}

func copyNode(n *DirNode) *DirNode {
	clone := &DirNode{
		Path:           n.Path,
		CumulativeSize: n.CumulativeSize,
		ChildCount:     n.ChildCount,
		FileCount:      n.FileCount,
		Errors:         n.Errors,
	}

	if len(n.ExtStats) > 0 {
		clone.ExtStats = make(map[string]ExtStat, len(n.ExtStats))
		for ext, stat := range n.ExtStats {
			clone.ExtStats[ext] = stat
		}
	}

	if len(n.Children) > 0 {
		clone.Children = make([]*DirNode, 0, len(n.Children))
		for _, child := range n.Children {
			clone.Children = append(clone.Children, copyNode(child))
		}

		sort.Slice(clone.Children, func(i, j int) bool {
			return clone.Children[i].Path < clone.Children[j].Path
		})
	}

	return clone
}

// isWithin reports whether path equals root or lies beneath it.
func isWithin(root, path string) bool {
	if root == path {
		return true
	}

	return strings.HasPrefix(path, root+string(filepath.Separator))
}
