package uart

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"rvboard/sim"
)

func newBuffered(ringSize, rxDepth int) (*BufferedPort, *sim.UART) {
	dev := sim.NewUART(16, rxDepth)
	bp := NewBuffered(New(dev, 16), make([]byte, ringSize))
	bp.Init()
	return bp, dev
}

func TestBufferedRoundTrip(t *testing.T) {
	const rxDepth = 5
	bp, dev := newBuffered(8, rxDepth)
	rng := rand.New(rand.NewSource(4))

	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i*7 + 3)
	}

	var got []byte
	fed := 0
	for len(got) < len(payload) {
		// Only deliver what the receive FIFO can hold, so nothing overruns.
		room := rxDepth - dev.RxLen()
		if k := min(room, rng.Intn(4)+1, len(payload)-fed); k > 0 {
			fed += dev.Receive(payload[fed : fed+k]...)
		}

		run, err := bp.TryFill()
		if err == ErrNoData {
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Consume only part of the run; the rest must come back next time.
		n := rng.Intn(len(run)) + 1
		got = append(got, run[:n]...)
		bp.Consume(n)
	}

	if !bytes.Equal(got, payload) {
		t.Errorf("Bytes reordered or corrupted:\n got %v\nwant %v", got, payload)
	}
}

func TestFillOnlyReadsWhenEmpty(t *testing.T) {
	bp, dev := newBuffered(8, 8)

	dev.Receive('a', 'b', 'c')
	run, err := bp.TryFill()
	if err != nil || string(run) != "abc" {
		t.Fatalf("Expected abc, got %q %v", run, err)
	}
	bp.Consume(1)

	dev.Receive('d')
	run, err = bp.TryFill()
	if err != nil || string(run) != "bc" {
		t.Errorf("Expected buffered bc without touching the port, got %q %v", run, err)
	}
	if dev.RxLen() != 1 {
		t.Errorf("Port should still hold 1 byte, got %d", dev.RxLen())
	}
	if bp.Buffered() != 2 {
		t.Errorf("Expected 2 buffered bytes, got %d", bp.Buffered())
	}

	// Consume is clamped to the last run.
	bp.Consume(10)
	run, err = bp.TryFill()
	if err != nil || string(run) != "d" {
		t.Errorf("Expected d, got %q %v", run, err)
	}
}

func TestFillOverrun(t *testing.T) {
	bp, dev := newBuffered(8, 3)

	dev.Receive(1, 2)
	run, err := bp.TryFill()
	if err != nil || !bytes.Equal(run, []byte{1, 2}) {
		t.Fatalf("Expected [1 2], got %v %v", run, err)
	}
	bp.Consume(1)

	// The FIFO holds 3 bytes; the 4th is lost.
	dev.Receive(3, 4, 5, 6)

	run, err = bp.TryFill()
	if err != nil || !bytes.Equal(run, []byte{2}) {
		t.Errorf("Buffered bytes should still be readable, got %v %v", run, err)
	}
	bp.Consume(1)

	// The bytes the FIFO kept come through before the error.
	run, err = bp.TryFill()
	if err != nil || !bytes.Equal(run, []byte{3, 4, 5}) {
		t.Fatalf("Expected [3 4 5], got %v %v", run, err)
	}
	bp.Consume(len(run))

	for i := 0; i < 3; i++ {
		if _, err := bp.TryFill(); err != ErrOverrun {
			t.Errorf("fill %d: expected ErrOverrun, got %v", i, err)
		}
	}
	if !bp.ReadReady() {
		t.Error("ReadReady should report the overrun")
	}

	bp.Clear()
	if bp.ReadReady() {
		t.Error("ReadReady should be false after Clear")
	}
	if _, err := bp.TryFill(); err != ErrNoData {
		t.Errorf("Expected ErrNoData after Clear, got %v", err)
	}
}

func TestFillWaits(t *testing.T) {
	bp, dev := newBuffered(8, 8)

	polls := 0
	bp.Port().SetYield(func() {
		polls++
		if polls == 2 {
			dev.Receive('o', 'k')
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	run, err := bp.Fill(ctx)
	if err != nil || string(run) != "ok" {
		t.Errorf("Expected ok, got %q %v", run, err)
	}

	bp.Consume(len(run))
	bp.Port().SetYield(cancel)
	if _, err := bp.Fill(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestBufferedReadWrite(t *testing.T) {
	bp, dev := newBuffered(4, 8)

	dev.Receive([]byte("hello")...)
	buf := make([]byte, 8)

	n, err := bp.Read(buf)
	if n != 4 || err != nil || string(buf[:n]) != "hell" {
		t.Errorf("Expected hell, got %q %v", buf[:n], err)
	}
	n, err = bp.Read(buf)
	if n != 1 || err != nil || buf[0] != 'o' {
		t.Errorf("Expected o, got %q %v", buf[:n], err)
	}
	n, err = bp.Read(buf)
	if n != 0 || err != nil {
		t.Errorf("Expected 0, nil, got %d %v", n, err)
	}

	n, err = bp.Write([]byte("pong"))
	if n != 4 || err != nil {
		t.Errorf("Expected 4, nil, got %d %v", n, err)
	}
	dev.DrainAll()
	if string(dev.Sent()) != "pong" {
		t.Errorf("Expected pong on the line, got %q", dev.Sent())
	}
}
