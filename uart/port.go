// Package uart drives the polled UART blocks of the mlogv32 board.
//
// The hardware only reports boundary flags for the transmit FIFO (empty and
// full), never a byte count, so Port keeps its own estimate of how many bytes
// are queued. The estimate resets to zero every time the tx-empty flag is
// seen. It is exact as long as the port is polled faster than the FIFO
// drains; a port polled too rarely under-uses the FIFO but never overfills it.
package uart

import (
	"errors"
	"runtime"

	"tinygo.org/x/drivers"

	"rvboard/regs"
)

var (
	// ErrOverrun means the receiver dropped bytes because the FIFO was not
	// drained in time. It is sticky until ClearOverrun.
	ErrOverrun = errors.New("uart: receive overrun")

	// ErrNoData is returned by non-blocking reads when nothing is pending.
	ErrNoData = errors.New("uart: no data")

	// ErrWouldBlock is returned by non-blocking writes when the transmit FIFO
	// is full. It is advisory: the byte count is the result.
	ErrWouldBlock = errors.New("uart: transmit fifo full")
)

var _ drivers.UART = (*Port)(nil)

// Port is a polled UART. A Port is not safe for concurrent use: each physical
// UART has exactly one owner.
type Port struct {
	dev          regs.UARTDevice
	fifoCapacity int
	fifoLen      int
	overrun      bool

	// yield is called while busy-waiting
	yield func()
}

// New wraps dev. fifoCapacity is the depth of the transmit FIFO, which the
// hardware does not report; see regs.DefaultFIFOCapacity.
func New(dev regs.UARTDevice, fifoCapacity int) *Port {
	if dev == nil {
		panic("uart: nil device")
	}
	if fifoCapacity <= 0 {
		panic("uart: fifo capacity must be positive")
	}
	return &Port{
		dev:          dev,
		fifoCapacity: fifoCapacity,
		yield:        runtime.Gosched,
	}
}

// SetYield replaces the function called between polls in blocking and
// context-aware calls. The default is runtime.Gosched.
func (p *Port) SetYield(fn func()) {
	if fn == nil {
		fn = runtime.Gosched
	}
	p.yield = fn
}

// Init resets both FIFOs, leaves interrupts disabled and clears the software
// state.
func (p *Port) Init() {
	p.dev.SetControl(regs.ResetRx | regs.ResetTx)
	p.fifoLen = 0
	p.overrun = false
}

// ReadByte pops one received byte. It returns ErrNoData if the receive FIFO
// is empty. Bytes that made it into the FIFO before an overrun are still
// returned; ErrOverrun is reported once they are drained and on every read
// after that.
func (p *Port) ReadByte() (byte, error) {
	if p.overrun {
		return 0, ErrOverrun
	}
	status := p.dev.Status()
	if status.Has(regs.RxNotEmpty) {
		return p.dev.ReadRx(), nil
	}
	if status.Has(regs.OverrunError) {
		p.overrun = true
		return 0, ErrOverrun
	}
	return 0, ErrNoData
}

// Read fills buf with whatever is already received and never blocks. It
// returns 0, nil when nothing is pending. If the FIFO runs dry with the
// overrun flag set, the bytes read so far are returned along with ErrOverrun.
func (p *Port) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		b, err := p.ReadByte()
		if err == ErrNoData {
			break
		}
		if err != nil {
			return n, err
		}
		buf[n] = b
		n++
	}
	return n, nil
}

// HasData reports whether a read would return something other than
// ErrNoData. A latched overrun counts, so waiters see the error.
func (p *Port) HasData() bool {
	if p.overrun {
		return true
	}
	return p.dev.Status()&(regs.RxNotEmpty|regs.OverrunError) != 0
}

// Buffered reports 1 if data is ready and 0 otherwise. The hardware does not
// expose the receive FIFO level.
func (p *Port) Buffered() int {
	if p.HasData() {
		return 1
	}
	return 0
}

// ClearOverrun drops the receive FIFO, which may hold corrupted data, and
// clears the overrun condition.
func (p *Port) ClearOverrun() {
	p.dev.SetControl(regs.ResetRx)
	p.overrun = false
}

// syncFifo resets the occupancy estimate when the hardware reports an empty
// transmit FIFO.
func (p *Port) syncFifo() {
	if p.dev.Status().Has(regs.TxEmpty) {
		p.fifoLen = 0
	}
}

// TryWriteByte queues b if the transmit FIFO has room and reports whether it
// did.
func (p *Port) TryWriteByte(b byte) bool {
	p.syncFifo()
	if p.fifoLen >= p.fifoCapacity {
		return false
	}
	p.dev.WriteTx(b)
	p.fifoLen++
	return true
}

// CanWrite reports whether the next TryWriteByte would succeed.
func (p *Port) CanWrite() bool {
	return p.dev.Status().Has(regs.TxEmpty) || p.fifoLen < p.fifoCapacity
}

// WriteByte queues b, busy-waiting while the FIFO is full. It never fails.
func (p *Port) WriteByte(b byte) error {
	for !p.TryWriteByte(b) {
		p.yield()
	}
	return nil
}

// BlockingWrite queues every byte of buf in order.
func (p *Port) BlockingWrite(buf []byte) {
	for _, b := range buf {
		p.WriteByte(b)
	}
}

// Write queues as much of buf as fits without waiting. n is always the
// number of bytes queued; ErrWouldBlock only marks a short write for io.Writer
// callers and never means a byte was lost.
func (p *Port) Write(buf []byte) (int, error) {
	for n, b := range buf {
		if !p.TryWriteByte(b) {
			return n, ErrWouldBlock
		}
	}
	return len(buf), nil
}

// Flush waits until the transmit FIFO has drained onto the line.
func (p *Port) Flush() {
	for !p.dev.Status().Has(regs.TxEmpty) {
		p.yield()
	}
	p.fifoLen = 0
}

// FifoLen returns the estimated transmit FIFO occupancy.
func (p *Port) FifoLen() int {
	return p.fifoLen
}

// FifoCapacity returns the configured transmit FIFO depth.
func (p *Port) FifoCapacity() int {
	return p.fifoCapacity
}
