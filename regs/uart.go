package regs

// UARTStatus is the read-only status byte of a UART.
type UARTStatus uint8

const (
	RxNotEmpty   UARTStatus = 1 << iota // at least one byte can be read from rx
	RxFull                              // receive FIFO full, next byte is dropped
	TxEmpty                             // transmit FIFO drained completely
	TxFull                              // transmit FIFO full
	Interrupts                          // interrupts enabled
	OverrunError                        // a received byte was dropped
	FrameError
	ParityError
)

// UARTControl is the write-only control byte of a UART. Reset bits are pulses:
// writing them clears the corresponding FIFO, they never read back.
type UARTControl uint8

const (
	ResetTx UARTControl = 1 << iota
	ResetRx
	_
	_
	EnableInterrupts
)

func (s UARTStatus) Has(flags UARTStatus) bool {
	return s&flags == flags
}

var statusNames = [8]string{
	"rx-not-empty", "rx-full", "tx-empty", "tx-full",
	"interrupts", "overrun", "frame-error", "parity-error",
}

// String lists the set flags, e.g. "tx-empty|rx-not-empty".
func (s UARTStatus) String() string {
	if s == 0 {
		return "0"
	}
	out := ""
	for i := len(statusNames) - 1; i >= 0; i-- {
		if s&(1<<i) == 0 {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += statusNames[i]
	}
	return out
}
