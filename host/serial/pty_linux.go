//go:build linux

package serial

import (
	"fmt"
	"os"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// PTY is a pseudo-terminal whose other end can be opened by programs that
// expect a real serial device, such as pppd.
type PTY struct {
	master *os.File
	tty    *os.File // kept open so master reads do not fail while no peer is attached
}

// OpenPTY creates a pseudo-terminal in raw mode.
func OpenPTY() (*PTY, error) {
	master, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open pty: %w", err)
	}
	if err := makeRaw(tty); err != nil {
		master.Close()
		tty.Close()
		return nil, err
	}
	return &PTY{master: master, tty: tty}, nil
}

// makeRaw disables line editing, echo and character translation, like
// cfmakeraw(3).
func makeRaw(tty *os.File) error {
	fd := int(tty.Fd())
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get pty attributes: %w", err)
	}

	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set pty attributes: %w", err)
	}
	return nil
}

// Name returns the device path other programs should open.
func (p *PTY) Name() string {
	return p.tty.Name()
}

func (p *PTY) Read(b []byte) (int, error) {
	return p.master.Read(b)
}

func (p *PTY) Write(b []byte) (int, error) {
	return p.master.Write(b)
}

// Close closes both ends.
func (p *PTY) Close() error {
	err := p.master.Close()
	p.tty.Close()
	return err
}

// Flush is a no-op: Write hands bytes straight to the line discipline.
func (p *PTY) Flush() error {
	return nil
}
