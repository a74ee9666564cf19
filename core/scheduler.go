package core

import (
	"sync/atomic"

	"rvboard/regs"
)

// Waker resumes a suspended task. Wake runs from the timer interrupt with
// interrupts masked, so it must return quickly and must not block.
type Waker interface {
	Wake()
}

// WakerFunc adapts a function to Waker.
type WakerFunc func()

func (f WakerFunc) Wake() { f() }

// FlagWaker latches a wake for a task that polls for it. Wake only stores a
// flag, so it is safe from interrupt context.
type FlagWaker struct {
	woken atomic.Bool
}

func (f *FlagWaker) Wake() {
	f.woken.Store(true)
}

// Take reports whether a wake arrived since the last Take and clears it.
func (f *FlagWaker) Take() bool {
	return f.woken.Swap(false)
}

// wake is one queued (deadline, waker) pair
type wake struct {
	deadline uint64
	waker    Waker
	next     *wake
}

// WakeQueue keeps pending wakes ordered by deadline. Equal deadlines keep
// their insertion order. A WakeQueue is not safe for concurrent use; the
// TimeDriver only touches it inside critical sections.
type WakeQueue struct {
	head *wake
	n    int
}

// Schedule inserts (deadline, w) and reports whether it became the earliest
// entry, i.e. whether the hardware alarm has to be re-armed.
func (q *WakeQueue) Schedule(deadline uint64, w Waker) bool {
	e := &wake{deadline: deadline, waker: w}
	q.n++

	if q.head == nil || deadline < q.head.deadline {
		e.next = q.head
		q.head = e
		return true
	}

	current := q.head
	for current.next != nil && current.next.deadline <= deadline {
		current = current.next
	}

	e.next = current.next
	current.next = e
	return false
}

// NextExpiration removes and wakes every entry with deadline <= now, then
// returns the earliest remaining deadline, or regs.FarFuture if none is left.
func (q *WakeQueue) NextExpiration(now uint64) uint64 {
	for q.head != nil && q.head.deadline <= now {
		e := q.head
		q.head = e.next
		e.next = nil // Clear Next pointer to avoid holding the rest of the list
		q.n--

		RecordTiming(EvtWakeFire, now, e.deadline)
		e.waker.Wake()
	}

	if q.head == nil {
		return regs.FarFuture
	}
	return q.head.deadline
}

// Peek returns the earliest deadline without removing it.
func (q *WakeQueue) Peek() (uint64, bool) {
	if q.head == nil {
		return 0, false
	}
	return q.head.deadline, true
}

// Len returns the number of pending wakes.
func (q *WakeQueue) Len() int {
	return q.n
}
