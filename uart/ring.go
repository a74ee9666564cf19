package uart

// RingBuffer is a fixed-size byte FIFO for one producer and one consumer. All
// of the buffer is usable. Producers and consumers work on contiguous runs:
// PushSlice/Push on the write side and PopSlice/Pop on the read side, so a
// wrapped region takes two calls. Both cursors go back to zero whenever the
// buffer drains, which keeps the next run as long as possible.
type RingBuffer struct {
	buf   []byte
	read  int // total bytes popped, modulo len(buf)
	write int // read + bytes buffered
}

// NewRingBuffer uses buf as backing storage.
func NewRingBuffer(buf []byte) *RingBuffer {
	if len(buf) == 0 {
		panic("uart: ring buffer needs storage")
	}
	return &RingBuffer{buf: buf}
}

// Cap returns the buffer size.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// Available returns the number of bytes available for reading
func (r *RingBuffer) Available() int {
	return r.write - r.read
}

// Free returns the number of bytes available for writing
func (r *RingBuffer) Free() int {
	return len(r.buf) - r.Available()
}

// IsEmpty returns true if the buffer is empty
func (r *RingBuffer) IsEmpty() bool {
	return r.read == r.write
}

// IsFull returns true if nothing more can be pushed
func (r *RingBuffer) IsFull() bool {
	return r.Available() == len(r.buf)
}

// PopSlice returns the next contiguous run of unread bytes, or nil if the
// buffer is empty. The run stays valid until the matching Pop.
func (r *RingBuffer) PopSlice() []byte {
	avail := r.Available()
	if avail == 0 {
		return nil
	}
	start := r.read % len(r.buf)
	end := min(start+avail, len(r.buf))
	return r.buf[start:end]
}

// Pop removes n bytes from the front
func (r *RingBuffer) Pop(n int) {
	n = min(max(n, 0), r.Available())
	r.read += n
	if r.read == r.write {
		r.read, r.write = 0, 0
		return
	}
	if r.read >= len(r.buf) {
		r.read -= len(r.buf)
		r.write -= len(r.buf)
	}
}

// PushSlice returns the next contiguous run of free space, or nil if the
// buffer is full. Bytes written into it become readable after Push.
func (r *RingBuffer) PushSlice() []byte {
	free := r.Free()
	if free == 0 {
		return nil
	}
	start := r.write % len(r.buf)
	end := min(start+free, len(r.buf))
	return r.buf[start:end]
}

// Push commits n bytes written into the last PushSlice.
func (r *RingBuffer) Push(n int) {
	r.write += min(max(n, 0), r.Free())
}

// Write copies as much of data as fits and returns the count
func (r *RingBuffer) Write(data []byte) int {
	written := 0
	for written < len(data) {
		space := r.PushSlice()
		if space == nil {
			break
		}
		n := copy(space, data[written:])
		r.Push(n)
		written += n
	}
	return written
}

// Read copies up to len(data) bytes out of the buffer and returns the count
func (r *RingBuffer) Read(data []byte) int {
	read := 0
	for read < len(data) {
		run := r.PopSlice()
		if run == nil {
			break
		}
		n := copy(data[read:], run)
		r.Pop(n)
		read += n
	}
	return read
}

// Reset clears the buffer
func (r *RingBuffer) Reset() {
	r.read = 0
	r.write = 0
}
