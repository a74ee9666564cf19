package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

type harness struct {
	bridge *Bridge
	board  net.Conn // the board's end of the device link
	out    *syncBuffer
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, input io.Reader) *harness {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	dev, board := net.Pipe()
	out := &syncBuffer{}
	b := New(dev, ln, out)
	if input != nil {
		b.SetInput(input)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		bridge: b,
		board:  board,
		out:    out,
		addr:   ln.Addr().String(),
		cancel: cancel,
		done:   make(chan error, 1),
	}
	go func() { h.done <- b.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		board.Close()
	})
	return h
}

func (h *harness) connect(t *testing.T, want int) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", h.addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.bridge.Clients() < want {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for the bridge to register the client")
		}
		time.Sleep(time.Millisecond)
	}
	return conn
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for Run to return")
		return nil
	}
}

func readN(t *testing.T, r net.Conn, n int) string {
	t.Helper()
	r.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(buf)
}

func TestFanOut(t *testing.T) {
	h := start(t, nil)
	c1 := h.connect(t, 1)
	c2 := h.connect(t, 2)

	if _, err := h.board.Write([]byte("hello")); err != nil {
		t.Fatalf("board write: %v", err)
	}

	if got := readN(t, c1, 5); got != "hello" {
		t.Errorf("client 1: expected hello, got %q", got)
	}
	if got := readN(t, c2, 5); got != "hello" {
		t.Errorf("client 2: expected hello, got %q", got)
	}
	if !strings.Contains(h.out.String(), "hello") {
		t.Errorf("Board output not mirrored: %q", h.out.String())
	}
}

func TestClientToDevice(t *testing.T) {
	h := start(t, nil)
	c := h.connect(t, 1)

	if _, err := c.Write([]byte("ping")); err != nil {
		t.Fatalf("client write: %v", err)
	}
	if got := readN(t, h.board, 4); got != "ping" {
		t.Errorf("Expected ping at the board, got %q", got)
	}
	if !strings.Contains(h.out.String(), "ping") {
		t.Errorf("Client input not mirrored: %q", h.out.String())
	}

	// A client leaving does not stop the bridge.
	c.Close()
	deadline := time.Now().Add(2 * time.Second)
	for h.bridge.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not dropped")
		}
		time.Sleep(time.Millisecond)
	}

	select {
	case err := <-h.done:
		t.Fatalf("Run returned after a client left: %v", err)
	default:
	}
}

func TestInputLines(t *testing.T) {
	h := start(t, strings.NewReader("ls\nhelp\n"))

	if got := readN(t, h.board, 8); got != "ls\rhelp\r" {
		t.Errorf("Expected CR-terminated lines, got %q", got)
	}
}

func TestCancelShutsDown(t *testing.T) {
	h := start(t, nil)
	c := h.connect(t, 1)

	h.cancel()
	if err := h.wait(t); err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}

	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.Read(make([]byte, 1)); err == nil {
		t.Error("Client connection should be closed")
	}
	if _, err := net.Dial("tcp", h.addr); err == nil {
		t.Error("Listener should be closed")
	}
}

func TestDeviceClosed(t *testing.T) {
	h := start(t, nil)
	h.connect(t, 1)

	h.board.Close()
	if err := h.wait(t); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Expected ErrDeviceClosed, got %v", err)
	}
}

func TestAttachedEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	dev, board := net.Pipe()
	local, peer := net.Pipe()
	defer board.Close()
	defer peer.Close()

	b := New(dev, ln, io.Discard)
	b.Attach(local)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	if _, err := board.Write([]byte("ppp")); err != nil {
		t.Fatalf("board write: %v", err)
	}
	if got := readN(t, peer, 3); got != "ppp" {
		t.Errorf("Expected ppp at the attached endpoint, got %q", got)
	}

	if _, err := peer.Write([]byte("lcp")); err != nil {
		t.Fatalf("peer write: %v", err)
	}
	if got := readN(t, board, 3); got != "lcp" {
		t.Errorf("Expected lcp at the board, got %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for Run to return")
	}
}

// pollingDevice behaves like a tty opened with a read timeout: Read waits out
// the timeout and returns 0, nil, and Close does not interrupt it.
type pollingDevice struct {
	mu     sync.Mutex
	closed bool
}

func (d *pollingDevice) Read(p []byte) (int, error) {
	time.Sleep(5 * time.Millisecond)
	return 0, nil
}

func (d *pollingDevice) Write(p []byte) (int, error) {
	return len(p), nil
}

func (d *pollingDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func TestCancelWithPollingDevice(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	dev := &pollingDevice{}
	b := New(dev, ln, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if !dev.closed {
		t.Error("Device should be closed")
	}
}
