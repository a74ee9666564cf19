// Package bridge connects a board UART to TCP clients and the local terminal.
// Everything the board sends is printed and fanned out to every client;
// everything clients send is printed and forwarded to the board. Terminal
// input is forwarded line by line with a carriage return, which is what the
// board's console expects.
package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDeviceClosed is returned by Run when the board side hangs up.
var ErrDeviceClosed = errors.New("bridge: device closed")

// clientWriteTimeout bounds how long a slow client can stall the fan-out
// before it is dropped.
const clientWriteTimeout = 2 * time.Second

// Bridge fans one device out to many clients. Create it with New and start it
// with Run; a Bridge runs once.
type Bridge struct {
	dev io.ReadWriteCloser
	ln  net.Listener

	// Mirror of all traffic, usually stdout
	outMu sync.Mutex
	out   io.Writer

	// Optional line input, usually stdin
	in io.Reader

	// Local endpoints served like clients
	attached []io.ReadWriteCloser

	devMu sync.Mutex // serializes writes to dev

	mu      sync.Mutex
	clients map[io.ReadWriteCloser]struct{}
	closed  bool
}

// New creates a bridge between dev and the clients accepted on ln. Traffic in
// both directions is copied to out; pass io.Discard to silence it.
func New(dev io.ReadWriteCloser, ln net.Listener, out io.Writer) *Bridge {
	return &Bridge{
		dev:     dev,
		ln:      ln,
		out:     out,
		clients: make(map[io.ReadWriteCloser]struct{}),
	}
}

// SetInput forwards lines read from r to the device. Must be called before
// Run.
func (b *Bridge) SetInput(r io.Reader) {
	b.in = r
}

// Attach serves rw like a TCP client, e.g. a pseudo-terminal for programs
// that need a device path. Must be called before Run.
func (b *Bridge) Attach(rw io.ReadWriteCloser) {
	b.attached = append(b.attached, rw)
}

// Clients returns the number of connected clients.
func (b *Bridge) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Run serves until ctx is done or the device closes. It closes the device,
// the listener and all clients before returning. A cancelled ctx is a clean
// shutdown and returns nil.
func (b *Bridge) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	b.mu.Lock()
	for _, rw := range b.attached {
		rw := rw
		b.clients[rw] = struct{}{}
		g.Go(func() error {
			return b.clientLoop(gctx, rw)
		})
	}
	b.mu.Unlock()

	g.Go(func() error {
		return b.deviceLoop(gctx)
	})
	g.Go(func() error {
		return b.acceptLoop(gctx, g)
	})
	g.Go(func() error {
		<-gctx.Done()
		b.ln.Close()
		b.dev.Close()
		b.closeClients()
		return nil
	})

	// Reads from a terminal cannot be interrupted, so the input loop is not
	// part of the group and may outlive Run.
	if b.in != nil {
		go b.inputLoop(gctx)
	}

	return g.Wait()
}

// deviceLoop copies board output to the mirror and every client. Devices with
// a read timeout return 0, nil when idle, which is when ctx is checked; a
// blocked read on a tty is not interrupted by Close.
func (b *Bridge) deviceLoop(ctx context.Context) error {
	buf := make([]byte, 1024)
	for {
		n, err := b.dev.Read(buf)
		if n > 0 {
			b.mirror(buf[:n])
			b.broadcast(buf[:n])
		}
		if err == nil && n == 0 && ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
				return ErrDeviceClosed
			}
			return fmt.Errorf("bridge: device read: %w", err)
		}
	}
}

func (b *Bridge) acceptLoop(ctx context.Context, g *errgroup.Group) error {
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bridge: accept: %w", err)
		}

		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			conn.Close()
			return nil
		}
		b.clients[conn] = struct{}{}
		b.mu.Unlock()

		g.Go(func() error {
			return b.clientLoop(ctx, conn)
		})
	}
}

// clientLoop forwards one client's input to the device. A client going away
// only ends its own loop.
func (b *Bridge) clientLoop(ctx context.Context, conn io.ReadWriteCloser) error {
	defer b.dropClient(conn)

	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			b.mirror(buf[:n])
			if werr := b.writeDevice(buf[:n]); werr != nil {
				if ctx.Err() != nil {
					return nil
				}
				return werr
			}
		}
		if err != nil {
			return nil
		}
	}
}

func (b *Bridge) inputLoop(ctx context.Context) {
	scanner := bufio.NewScanner(b.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if err := b.writeDevice([]byte(scanner.Text() + "\r")); err != nil {
			return
		}
	}
}

func (b *Bridge) writeDevice(p []byte) error {
	b.devMu.Lock()
	defer b.devMu.Unlock()
	if _, err := b.dev.Write(p); err != nil {
		return fmt.Errorf("bridge: device write: %w", err)
	}
	return nil
}

func (b *Bridge) mirror(p []byte) {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	b.out.Write(p)
}

// broadcast sends p to every client, dropping the ones that fail or stall.
func (b *Bridge) broadcast(p []byte) {
	b.mu.Lock()
	conns := make([]io.ReadWriteCloser, 0, len(b.clients))
	for conn := range b.clients {
		conns = append(conns, conn)
	}
	b.mu.Unlock()

	for _, conn := range conns {
		if d, ok := conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
			d.SetWriteDeadline(time.Now().Add(clientWriteTimeout))
		}
		if _, err := conn.Write(p); err != nil {
			b.dropClient(conn)
		}
	}
}

func (b *Bridge) dropClient(conn io.ReadWriteCloser) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

func (b *Bridge) closeClients() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for conn := range b.clients {
		conn.Close()
		delete(b.clients, conn)
	}
}
