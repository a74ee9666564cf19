//go:build tinygo

package regs

import (
	"runtime/volatile"
	"unsafe"
)

// The core is RV32, so 64-bit timer registers are accessed as two halves.
// Little endian: the low word sits at the lower address.
type timerRegisters struct {
	counterLo volatile.Register32
	counterHi volatile.Register32
	compareLo volatile.Register32
	compareHi volatile.Register32
}

// Counter reads high, low, high and retries if the low word carried in between.
func (t *timerRegisters) Counter() uint64 {
	for {
		hi := t.counterHi.Get()
		lo := t.counterLo.Get()
		if t.counterHi.Get() == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}

func (t *timerRegisters) SetCounter(v uint64) {
	t.counterLo.Set(0)
	t.counterHi.Set(uint32(v >> 32))
	t.counterLo.Set(uint32(v))
}

func (t *timerRegisters) Compare() uint64 {
	return uint64(t.compareHi.Get())<<32 | uint64(t.compareLo.Get())
}

// SetCompare parks the low word at its maximum first so that no intermediate
// value is ever smaller than both the old and the new compare.
func (t *timerRegisters) SetCompare(v uint64) {
	t.compareLo.Set(0xffff_ffff)
	t.compareHi.Set(uint32(v >> 32))
	t.compareLo.Set(uint32(v))
}

// Each UART register is one byte wide on a 4-byte stride.
type uartRegisters struct {
	rx      volatile.Register8
	_       [3]byte
	tx      volatile.Register8
	_       [3]byte
	status  volatile.Register8
	_       [3]byte
	control volatile.Register8
	_       [3]byte
}

func (u *uartRegisters) ReadRx() byte { return u.rx.Get() }
func (u *uartRegisters) WriteTx(b byte) { u.tx.Set(b) }
func (u *uartRegisters) Status() UARTStatus { return UARTStatus(u.status.Get()) }
func (u *uartRegisters) SetControl(c UARTControl) { u.control.Set(uint8(c)) }

var uarts = map[uintptr]*Peripheral[UARTDevice]{}

// UART returns the take-once token for the UART block at base. Repeated calls
// with the same base return the same token.
func UART(base uintptr) *Peripheral[UARTDevice] {
	if p, ok := uarts[base]; ok {
		return p
	}
	p := NewPeripheral("uart@"+hex(base), func() UARTDevice {
		return (*uartRegisters)(unsafe.Pointer(base))
	})
	uarts[base] = p
	return p
}

var (
	Timer = NewPeripheral("timer", func() TimerDevice {
		return (*timerRegisters)(unsafe.Pointer(TimerBase))
	})
	UART0 = UART(UART0Base)
	UART1 = UART(UART1Base)
)
