package mac

import (
	"container/heap"
	"time"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Discrete event loop over simulated time.
 *
 * Description:	Everything in here runs on one goroutine.  An event
 *		is a function to call at a certain simulated time.
 *		Events run one at a time, each to completion, in
 *		order of time, then priority, then the order in
 *		which they were scheduled.  Nothing can call back
 *		into a station while it is still busy with the
 *		previous event because all interaction between
 *		stations goes through here.
 *
 *		Time is a time.Duration since the start of the run.
 *
 *------------------------------------------------------------------*/

// Priority orders events which fall on the same instant.
type Priority int

const (
	// A change of channel state at time T is seen before a timer
	// which also expires at T.
	PriorityChannel Priority = iota
	PriorityTimer
)

// Scheduler is what a station needs from the clock.
type Scheduler interface {
	Now() time.Duration
	At(at time.Duration, prio Priority, fn func()) *Timer
	Cancel(t *Timer)
}

// Timer is a handle for a scheduled event.  A nil *Timer is valid and
// is never scheduled.
type Timer struct {
	at      time.Duration
	started time.Duration
	prio    Priority
	seq     uint64
	index   int /* Position in heap, -1 when not scheduled. */
	fn      func()
}

func (t *Timer) Scheduled() bool {
	return t != nil && t.index >= 0
}

// When returns the expiry time.
func (t *Timer) When() time.Duration {
	return t.at
}

// Started returns the time at which the timer was set.
func (t *Timer) Started() time.Duration {
	return t.started
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}

	if h[i].prio != h[j].prio {
		return h[i].prio < h[j].prio
	}

	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	var t = x.(*Timer) //nolint:forcetypeassert
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	var old = *h
	var n = len(old)
	var t = old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]

	return t
}

type EventLoop struct {
	now     time.Duration
	pending timerHeap
	seq     uint64
	stopped bool
}

func NewEventLoop() *EventLoop {
	return &EventLoop{}
}

func (l *EventLoop) Now() time.Duration {
	return l.now
}

// At schedules fn.  A time in the past is treated as now.
func (l *EventLoop) At(at time.Duration, prio Priority, fn func()) *Timer {
	if at < l.now {
		at = l.now
	}

	l.seq++

	var t = &Timer{
		at:      at,
		started: l.now,
		prio:    prio,
		seq:     l.seq,
		fn:      fn,
	}
	heap.Push(&l.pending, t)

	return t
}

func (l *EventLoop) After(d time.Duration, prio Priority, fn func()) *Timer {
	return l.At(l.now+d, prio, fn)
}

// Cancel is a no-op for a nil timer or one which is not scheduled.
func (l *EventLoop) Cancel(t *Timer) {
	if !t.Scheduled() {
		return
	}

	heap.Remove(&l.pending, t.index)
}

// Pending returns the number of scheduled events.
func (l *EventLoop) Pending() int {
	return len(l.pending)
}

// Step runs the next event.  Returns false if there was none.
func (l *EventLoop) Step() bool {
	if len(l.pending) == 0 {
		return false
	}

	var t = heap.Pop(&l.pending).(*Timer) //nolint:forcetypeassert
	l.now = t.at
	t.fn()

	return true
}

// RunUntil runs every event due at or before end, then leaves the
// clock at end.
func (l *EventLoop) RunUntil(end time.Duration) {
	l.stopped = false

	for !l.stopped && len(l.pending) > 0 && l.pending[0].at <= end {
		l.Step()
	}

	if !l.stopped && l.now < end {
		l.now = end
	}
}

// Run until nothing is left to do or Stop is called.
func (l *EventLoop) Run() {
	l.stopped = false

	for !l.stopped && l.Step() {
	}
}

// Stop makes Run or RunUntil return after the current event.
func (l *EventLoop) Stop() {
	l.stopped = true
}
