package scan

import (
	"container/heap"
	"sort"
	"time"
)

// FileInfo identifies one file tracked in the largest-files set.
type FileInfo struct {
	// Path is the absolute file path.
	Path string `json:"path"`
	// Size is the size in bytes.
	Size int64 `json:"size"`
	// ModTime is the last-modified timestamp.
	ModTime time.Time `json:"mod_time"`
}

// fileHeap is a min-heap of files keyed by size, so the smallest of the
// tracked files sits at the root and is evicted first.
type fileHeap []FileInfo

func (h fileHeap) Len() int           { return len(h) }
func (h fileHeap) Less(i, j int) bool { return h[i].Size < h[j].Size }
func (h fileHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *fileHeap) Push(x any)        { *h = append(*h, x.(FileInfo)) }

func (h *fileHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// topK maintains the K largest files seen so far in O(log K) per offer.
type topK struct {
	k int
	h fileHeap
}

func newTopK(k int) *topK {
	return &topK{k: k, h: make(fileHeap, 0, k)}
}

// offer considers one file for the set.
func (t *topK) offer(fi FileInfo) {
	if t.h.Len() < t.k {
		heap.Push(&t.h, fi)

		return
	}

	if fi.Size > t.h[0].Size {
		t.h[0] = fi
		heap.Fix(&t.h, 0)
	}
}

// list returns the tracked files sorted largest first.
func (t *topK) list() []FileInfo {
	out := make([]FileInfo, len(t.h))
	copy(out, t.h)

	sort.Slice(out, func(i, j int) bool {
		return out[i].Size > out[j].Size
	})

	return out
}
