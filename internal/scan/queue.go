package scan

import "sync"

// workItem is one not-yet-walked directory together with the scan root
// it was discovered under.
type workItem struct {
	path string
	root string
}

// dirQueue is the shared FIFO of pending directories. Workers pop one
// item, walk its immediate children, and push any subdirectories back.
//
// Termination is detected under the queue lock: when the queue is empty
// and no worker holds an in-flight item, the queue closes and every
// blocked pop returns false. FIFO order guarantees no branch starves:
// a pushed directory is processed after at most the items ahead of it.
type dirQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []workItem
	active int
	closed bool
}

func newDirQueue() *dirQueue {
	q := &dirQueue{}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// push appends an item. Pushes after close are dropped.
func (q *dirQueue) push(item workItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.items = append(q.items, item)
	q.cond.Signal()
}

// pop blocks until an item is available or the queue is drained or
// closed. A true return transfers ownership of the item to the caller,
// who must call done once the item's immediate children are walked.
func (q *dirQueue) pop() (workItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed && q.active > 0 {
		q.cond.Wait()
	}

	if q.closed || len(q.items) == 0 {
		return workItem{}, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.active++

	return item, true
}

// done releases an in-flight item. The last done on an empty queue
// closes it, waking all blocked workers.
func (q *dirQueue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.active--
	if q.active == 0 && len(q.items) == 0 {
		q.closed = true
	}

	q.cond.Broadcast()
}

// close drains the queue immediately. Used for cancellation; idempotent.
func (q *dirQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}
