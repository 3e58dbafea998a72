package clock

import "sync"

// FrameID identifies a requested frame callback
type FrameID uint64

// FrameQueue schedules callbacks for the next vsync, the way a browser's
// animation-frame queue does. Hosts call Run once per displayed frame.
type FrameQueue struct {
	next    FrameID
	pending []frameRequest

	mu     sync.Mutex
	posted []func()
}

type frameRequest struct {
	id FrameID
	fn func()
}

// NewFrameQueue creates an empty queue
func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

// Request schedules fn for the next Run.
func (q *FrameQueue) Request(fn func()) FrameID {
	q.next++
	q.pending = append(q.pending, frameRequest{id: q.next, fn: fn})
	return q.next
}

// Cancel drops a pending request. Unknown or already-run ids are ignored.
func (q *FrameQueue) Cancel(id FrameID) {
	for i, r := range q.pending {
		if r.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// Post hands fn to the frame goroutine. Safe for concurrent use.
func (q *FrameQueue) Post(fn func()) {
	q.mu.Lock()
	q.posted = append(q.posted, fn)
	q.mu.Unlock()
}

// Pending returns the number of requested frame callbacks
func (q *FrameQueue) Pending() int {
	return len(q.pending)
}

// Run executes posted callbacks, then the frame callbacks that were pending
// when Run started. Callbacks requested while running wait for the next Run.
func (q *FrameQueue) Run() {
	q.mu.Lock()
	posted := q.posted
	q.posted = nil
	q.mu.Unlock()
	for _, fn := range posted {
		fn()
	}

	due := q.pending
	q.pending = nil
	for _, r := range due {
		r.fn()
	}
}
