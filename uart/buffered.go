package uart

import (
	"context"

	"tinygo.org/x/drivers"
)

var _ drivers.UART = (*BufferedPort)(nil)

// BufferedPort puts a RingBuffer in front of a Port for parsers that peek at
// incoming bytes and consume only what they could decode:
//
//	for {
//		data, err := bp.Fill(ctx)
//		if err != nil {
//			return err
//		}
//		bp.Consume(parse(data))
//	}
//
// The ring holds every unread byte. The port is only read when the ring is
// empty, and then straight into the ring's free space.
type BufferedPort struct {
	port *Port
	ring *RingBuffer

	// length of the run returned by the last fill
	last int
}

// NewBuffered wraps port with a ring buffer backed by buf.
func NewBuffered(port *Port, buf []byte) *BufferedPort {
	if port == nil {
		panic("uart: nil port")
	}
	return &BufferedPort{
		port: port,
		ring: NewRingBuffer(buf),
	}
}

// Port returns the underlying port.
func (b *BufferedPort) Port() *Port {
	return b.port
}

// Init resets the port and drops anything buffered.
func (b *BufferedPort) Init() {
	b.port.Init()
	b.ring.Reset()
	b.last = 0
}

// TryFill is the non-blocking Fill. It returns ErrNoData if nothing is
// buffered or received. Bytes received before an overrun are returned first;
// the port keeps the overrun latched, so the fill after they are consumed
// reports it.
func (b *BufferedPort) TryFill() ([]byte, error) {
	if b.ring.IsEmpty() {
		n, err := b.port.Read(b.ring.PushSlice())
		b.ring.Push(n)
		if n == 0 {
			b.last = 0
			if err == nil {
				err = ErrNoData
			}
			return nil, err
		}
	}
	run := b.ring.PopSlice()
	b.last = len(run)
	return run, nil
}

// Fill returns the next contiguous run of unread bytes, waiting for the port
// if nothing is buffered. The run is valid until the next call that changes
// the buffer. Overruns from the port are returned unchanged.
func (b *BufferedPort) Fill(ctx context.Context) ([]byte, error) {
	for {
		run, err := b.TryFill()
		if err != ErrNoData {
			return run, err
		}
		if err := b.port.WaitReadable(ctx); err != nil {
			return nil, err
		}
	}
}

// Consume marks the first n bytes of the last filled run as read. n is
// clamped to the length of that run.
func (b *BufferedPort) Consume(n int) {
	n = min(max(n, 0), b.last)
	b.ring.Pop(n)
	b.last -= n
}

// Read copies buffered bytes into p, refilling once from the port if the
// ring is empty. It never blocks and returns 0, nil when nothing is pending.
func (b *BufferedPort) Read(p []byte) (int, error) {
	if b.ring.IsEmpty() {
		if _, err := b.TryFill(); err != nil && err != ErrNoData {
			return 0, err
		}
	}
	n := b.ring.Read(p)
	b.last = 0
	return n, nil
}

// Write queues all of p on the port, waiting for FIFO space as needed.
func (b *BufferedPort) Write(p []byte) (int, error) {
	b.port.BlockingWrite(p)
	return len(p), nil
}

// Buffered returns the number of unread bytes in the ring, or 1 if the ring
// is empty but the port has data.
func (b *BufferedPort) Buffered() int {
	if n := b.ring.Available(); n > 0 {
		return n
	}
	return b.port.Buffered()
}

// ReadReady reports whether Fill would return without waiting.
func (b *BufferedPort) ReadReady() bool {
	return !b.ring.IsEmpty() || b.port.HasData()
}

// Clear drops buffered bytes and the port's receive FIFO, including a pending
// overrun. A peer that is still sending refills it; callers loop on
// ReadReady until the line is quiet.
func (b *BufferedPort) Clear() {
	b.ring.Reset()
	b.last = 0
	b.port.ClearOverrun()
}
