// Package sim provides simulated register blocks for running the drivers on
// a regular Go host. The simulations follow the hardware contracts in package
// regs closely enough to exercise FIFO backpressure, overruns and timer
// interrupts, and add hooks to drive them from tests.
package sim

import (
	"sync"

	"rvboard/regs"
)

// Timer simulates the machine timer. The counter only moves when Advance is
// called, or by Step on every counter read to model time passing between
// register accesses.
type Timer struct {
	mu      sync.Mutex
	counter uint64
	compare uint64
	step    uint64

	// counter value observed right after the last compare write
	armedAt uint64
	arms    int

	handler func()
}

// NewTimer returns a timer at zero with the alarm disarmed.
func NewTimer() *Timer {
	return &Timer{compare: regs.FarFuture}
}

// SetStep makes every Counter read advance the counter by step ticks.
func (t *Timer) SetStep(step uint64) {
	t.mu.Lock()
	t.step = step
	t.mu.Unlock()
}

// SetHandler installs the interrupt handler called by Advance while the
// interrupt is pending.
func (t *Timer) SetHandler(fn func()) {
	t.mu.Lock()
	t.handler = fn
	t.mu.Unlock()
}

func (t *Timer) Counter() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.counter
	t.counter += t.step
	return v
}

func (t *Timer) SetCounter(v uint64) {
	t.mu.Lock()
	t.counter = v
	t.mu.Unlock()
}

func (t *Timer) Compare() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.compare
}

func (t *Timer) SetCompare(v uint64) {
	t.mu.Lock()
	t.compare = v
	t.armedAt = t.counter
	t.arms++
	t.mu.Unlock()
}

// LastArm returns the last compare value written and the counter value at
// the moment it was written.
func (t *Timer) LastArm() (compare, counter uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.compare, t.armedAt
}

// Arms returns how many times the compare register was written.
func (t *Timer) Arms() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.arms
}

// Pending reports whether the timer interrupt is asserted.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingLocked()
}

func (t *Timer) pendingLocked() bool {
	return t.compare != regs.FarFuture && t.counter >= t.compare
}

// maxInterrupts bounds back-to-back handler calls in one Advance, so a handler
// that fails to re-arm shows up as a test failure instead of a hang.
const maxInterrupts = 1000

// Advance moves the counter forward by d ticks and calls the handler for as
// long as the interrupt stays pending. It returns the number of handler calls.
func (t *Timer) Advance(d uint64) int {
	t.mu.Lock()
	t.counter += d
	t.mu.Unlock()
	return t.Fire()
}

// Fire calls the handler while the interrupt is pending.
func (t *Timer) Fire() int {
	calls := 0
	for calls < maxInterrupts {
		t.mu.Lock()
		pending, handler := t.pendingLocked(), t.handler
		t.mu.Unlock()
		if !pending || handler == nil {
			break
		}
		handler()
		calls++
	}
	return calls
}
