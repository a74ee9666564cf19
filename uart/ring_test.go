package uart

import (
	"bytes"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	r := NewRingBuffer(make([]byte, 8))

	if !r.IsEmpty() {
		t.Error("New ring should be empty")
	}
	if len(r.PushSlice()) != 8 {
		t.Errorf("Empty ring should offer all 8 bytes, got %d", len(r.PushSlice()))
	}
	if r.PopSlice() != nil {
		t.Error("Empty ring should have nothing to pop")
	}

	if n := r.Write([]byte{0, 1, 2, 3, 4, 5}); n != 6 {
		t.Errorf("Expected 6 written, got %d", n)
	}
	out := make([]byte, 4)
	if n := r.Read(out); n != 4 || !bytes.Equal(out, []byte{0, 1, 2, 3}) {
		t.Errorf("Expected 0..3, got %v", out[:n])
	}

	// Free space is split: 2 bytes at the end, 4 at the start.
	if space := r.PushSlice(); len(space) != 2 {
		t.Errorf("Expected a 2 byte run before the wrap, got %d", len(space))
	}
	if n := r.Write([]byte{6, 7, 8, 9, 10, 11}); n != 6 {
		t.Errorf("Expected 6 written across the wrap, got %d", n)
	}
	if !r.IsFull() || r.Free() != 0 {
		t.Error("Ring should be full")
	}
	if r.PushSlice() != nil {
		t.Error("Full ring should have no push space")
	}
	if n := r.Write([]byte{99}); n != 0 {
		t.Errorf("Write to full ring should return 0, got %d", n)
	}

	run := r.PopSlice()
	if !bytes.Equal(run, []byte{4, 5, 6, 7}) {
		t.Errorf("Expected first run 4..7, got %v", run)
	}
	r.Pop(len(run))

	run = r.PopSlice()
	if !bytes.Equal(run, []byte{8, 9, 10, 11}) {
		t.Errorf("Expected second run 8..11, got %v", run)
	}
	r.Pop(100)

	if !r.IsEmpty() || r.Available() != 0 {
		t.Error("Ring should be empty after popping everything")
	}
	if len(r.PushSlice()) != 8 {
		t.Error("Drained ring should offer the whole buffer again")
	}
}

func TestRingBufferCommitClamps(t *testing.T) {
	r := NewRingBuffer(make([]byte, 4))

	copy(r.PushSlice(), "abcd")
	r.Push(10)
	if r.Available() != 4 {
		t.Errorf("Push should clamp to capacity, got %d", r.Available())
	}

	r.Pop(-1)
	if r.Available() != 4 {
		t.Errorf("Negative pop should be ignored, got %d", r.Available())
	}

	r.Reset()
	if !r.IsEmpty() || r.Cap() != 4 {
		t.Error("Reset should empty the ring and keep its capacity")
	}
}

func TestRingBufferStream(t *testing.T) {
	r := NewRingBuffer(make([]byte, 5))

	var in, out []byte
	for i := 0; i < 300; i++ {
		in = append(in, byte(i))
	}

	pos := 0
	for len(out) < len(in) {
		// Uneven chunk sizes keep the cursors moving around the ring.
		chunk := in[pos:min(pos+3, len(in))]
		pos += r.Write(chunk)

		buf := make([]byte, 2)
		n := r.Read(buf)
		out = append(out, buf[:n]...)
	}

	if !bytes.Equal(in, out) {
		t.Error("Stream through the ring was reordered or corrupted")
	}
}
