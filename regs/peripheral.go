package regs

import "sync/atomic"

// Peripheral hands out a device exactly once. A register block is real
// hardware, so two live drivers over the same base address would corrupt each
// other's view of the FIFOs.
type Peripheral[T any] struct {
	name  string
	open  func() T
	taken atomic.Bool
}

// NewPeripheral returns a token for a device created lazily by open.
func NewPeripheral[T any](name string, open func() T) *Peripheral[T] {
	return &Peripheral[T]{name: name, open: open}
}

// TryTake returns the device if nobody has taken it yet.
func (p *Peripheral[T]) TryTake() (dev T, ok bool) {
	if !p.taken.CompareAndSwap(false, true) {
		return dev, false
	}
	return p.open(), true
}

// Take returns the device and panics if it was already taken.
func (p *Peripheral[T]) Take() T {
	dev, ok := p.TryTake()
	if !ok {
		panic("regs: " + p.name + " already taken")
	}
	return dev
}

// Name returns the peripheral name given at construction.
func (p *Peripheral[T]) Name() string { return p.name }
