package core

// CriticalSection is proof that interrupts are masked. Only WithCriticalSection
// hands one out and it must not outlive the callback it was passed to.
type CriticalSection struct{ _ [0]func() }

// WithCriticalSection runs fn with interrupts masked. The previous mask is
// restored on every exit path, including a panic in fn.
//
// Keep fn short: no I/O, no blocking. Critical sections do not nest.
func WithCriticalSection(fn func(cs CriticalSection)) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn(CriticalSection{})
}

// Guarded holds state shared between mainline code and interrupt handlers.
// The value is only reachable through a CriticalSection.
type Guarded[T any] struct {
	v T
}

// NewGuarded wraps v.
func NewGuarded[T any](v T) *Guarded[T] {
	return &Guarded[T]{v: v}
}

// Borrow returns the guarded value. The pointer is only valid inside the
// critical section that produced cs.
func (g *Guarded[T]) Borrow(cs CriticalSection) *T {
	return &g.v
}

// Lock runs fn on the guarded value inside its own critical section.
func (g *Guarded[T]) Lock(fn func(v *T)) {
	WithCriticalSection(func(cs CriticalSection) {
		fn(g.Borrow(cs))
	})
}
