//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// On regular Go, simulated interrupt handlers run on other goroutines, so the
// interrupt mask is modelled as a process-wide lock. It is not re-entrant.
var interruptMask sync.Mutex

// disableInterrupts blocks until no other critical section is active
func disableInterrupts() State {
	interruptMask.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	interruptMask.Unlock()
}
