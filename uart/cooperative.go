package uart

import "context"

// The context-aware calls never block the core: while the device is not ready
// they hand control back to the scheduler through the port's yield function
// and try again on the next pass. No wake is registered with the timer.

// WaitReadable yields until HasData is true or ctx is done.
func (p *Port) WaitReadable(ctx context.Context) error {
	for !p.HasData() {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.yield()
	}
	return nil
}

// WaitWritable yields until CanWrite is true or ctx is done.
func (p *Port) WaitWritable(ctx context.Context) error {
	for !p.CanWrite() {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.yield()
	}
	return nil
}

// ReadContext waits for at least one byte and reads what is available into
// buf.
func (p *Port) ReadContext(ctx context.Context, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	for {
		n, err := p.Read(buf)
		if n > 0 || err != nil {
			return n, err
		}
		if err := p.WaitReadable(ctx); err != nil {
			return 0, err
		}
	}
}

// WriteContext queues all of buf, yielding whenever the FIFO is full. On
// cancellation it returns the number of bytes already queued.
func (p *Port) WriteContext(ctx context.Context, buf []byte) (int, error) {
	written := 0
	for written < len(buf) {
		n, _ := p.Write(buf[written:])
		written += n
		if written == len(buf) {
			break
		}
		if err := p.WaitWritable(ctx); err != nil {
			return written, err
		}
	}
	return written, nil
}
