//go:build !linux

package serial

import "errors"

// PTY is only available on Linux.
type PTY struct {
	Port
}

// OpenPTY always fails on this platform.
func OpenPTY() (*PTY, error) {
	return nil, errors.New("pty bridging is only supported on linux")
}

func (p *PTY) Name() string {
	return ""
}
