package sim

import (
	"sync"

	"rvboard/regs"
)

// UART simulates one UART block with a bounded receive FIFO and a bounded
// transmit FIFO. Bytes only leave the transmit FIFO when Drain is called.
type UART struct {
	mu sync.Mutex

	rx      []byte
	rxDepth int
	tx      []byte
	txDepth int
	sent    []byte

	overrun    bool
	frameErr   bool
	parityErr  bool
	interrupts bool

	dropped  int // tx bytes written while the FIFO was full
	controls []regs.UARTControl
}

// NewUART returns a UART whose FIFOs hold txDepth and rxDepth bytes.
func NewUART(txDepth, rxDepth int) *UART {
	return &UART{txDepth: txDepth, rxDepth: rxDepth}
}

// ReadRx pops the oldest received byte. Like the hardware, reading an empty
// FIFO returns garbage (zero here) rather than failing.
func (u *UART) ReadRx() byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.rx) == 0 {
		return 0
	}
	b := u.rx[0]
	u.rx = u.rx[1:]
	return b
}

// WriteTx pushes b into the transmit FIFO, or drops it if the FIFO is full.
func (u *UART) WriteTx(b byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.tx) >= u.txDepth {
		u.dropped++
		return
	}
	u.tx = append(u.tx, b)
}

func (u *UART) Status() regs.UARTStatus {
	u.mu.Lock()
	defer u.mu.Unlock()

	var s regs.UARTStatus
	if len(u.rx) > 0 {
		s |= regs.RxNotEmpty
	}
	if len(u.rx) >= u.rxDepth {
		s |= regs.RxFull
	}
	if len(u.tx) == 0 {
		s |= regs.TxEmpty
	}
	if len(u.tx) >= u.txDepth {
		s |= regs.TxFull
	}
	if u.interrupts {
		s |= regs.Interrupts
	}
	if u.overrun {
		s |= regs.OverrunError
	}
	if u.frameErr {
		s |= regs.FrameError
	}
	if u.parityErr {
		s |= regs.ParityError
	}
	return s
}

// SetControl applies reset pulses and latches the interrupt enable bit.
func (u *UART) SetControl(c regs.UARTControl) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.controls = append(u.controls, c)
	if c&regs.ResetRx != 0 {
		u.rx = nil
		u.overrun = false
		u.frameErr = false
		u.parityErr = false
	}
	if c&regs.ResetTx != 0 {
		u.tx = nil
	}
	u.interrupts = c&regs.EnableInterrupts != 0
}

// Receive delivers bytes from the line into the receive FIFO. Bytes that do
// not fit are lost and latch the overrun flag. It returns how many were kept.
func (u *UART) Receive(p ...byte) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, b := range p {
		if len(u.rx) >= u.rxDepth {
			u.overrun = true
			continue
		}
		u.rx = append(u.rx, b)
		n++
	}
	return n
}

// Drain moves up to n bytes from the transmit FIFO onto the line.
func (u *UART) Drain(n int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n = min(n, len(u.tx))
	u.sent = append(u.sent, u.tx[:n]...)
	u.tx = u.tx[n:]
	return n
}

// DrainAll empties the transmit FIFO onto the line.
func (u *UART) DrainAll() int {
	return u.Drain(u.txDepth)
}

// Sent returns a copy of everything transmitted so far.
func (u *UART) Sent() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.sent...)
}

// TxLen returns the number of bytes waiting in the transmit FIFO.
func (u *UART) TxLen() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.tx)
}

// RxLen returns the number of bytes waiting in the receive FIFO.
func (u *UART) RxLen() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rx)
}

// Dropped returns how many transmitted bytes were lost to a full FIFO.
func (u *UART) Dropped() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.dropped
}

// SetLineErrors latches frame and parity errors as if a corrupted byte arrived.
func (u *UART) SetLineErrors(frame, parity bool) {
	u.mu.Lock()
	u.frameErr = frame
	u.parityErr = parity
	u.mu.Unlock()
}

// Controls returns every value written to the control register, in order.
func (u *UART) Controls() []regs.UARTControl {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]regs.UARTControl(nil), u.controls...)
}
