// Package regs describes the memory-mapped peripherals of the mlogv32 board:
// the machine timer and the UART blocks. It only knows how registers are laid
// out and what their bits mean; drivers live in the core and uart packages.
package regs

// Physical layout. The timer block holds two consecutive 64-bit words, counter
// then compare. Each UART occupies 16 bytes with a 4-byte register stride.
const (
	TimerBase uintptr = 0xf000_0000

	UART0Base  uintptr = 0xf000_0010
	UART1Base  uintptr = 0xf000_0020
	UARTStride uintptr = 0x10

	UARTRxOffset      = 0x0
	UARTTxOffset      = 0x4
	UARTStatusOffset  = 0x8
	UARTControlOffset = 0xc
)

// DefaultFIFOCapacity is the transmit FIFO depth of the stock UARTs. The
// hardware does not report it, so it is carried in board configuration.
const DefaultFIFOCapacity = 253

// FarFuture is written to the compare register when nothing is pending.
const FarFuture = ^uint64(0)

// TimerDevice is the machine timer. Counter increases monotonically; the timer
// interrupt is pending while Counter() >= Compare().
type TimerDevice interface {
	Counter() uint64
	SetCounter(v uint64)
	Compare() uint64
	SetCompare(v uint64)
}

// UARTDevice is one UART register block. ReadRx pops a byte from the receive
// FIFO and WriteTx pushes one into the transmit FIFO; neither checks status.
type UARTDevice interface {
	ReadRx() byte
	WriteTx(b byte)
	Status() UARTStatus
	SetControl(c UARTControl)
}
