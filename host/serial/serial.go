package serial

import (
	"fmt"
	"io"
	"net"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - A UART socket exposed by the emulator
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate (the emulator ignores this)
	Baud int

	// Read timeout in milliseconds (0 = blocking). A read that times out
	// returns 0, nil.
	ReadTimeout int
}

// DefaultConfig returns a default configuration for the board console. The
// read timeout bounds how long a reader can sit in the driver, since closing
// a tty does not interrupt a blocked read.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// netPort adapts a stream socket to Port
type netPort struct {
	net.Conn
}

func (p netPort) Flush() error {
	return nil
}

// Dial connects to a UART exposed over TCP, e.g. by the emulator.
func Dial(addr string) (Port, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return netPort{conn}, nil
}
