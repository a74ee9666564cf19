package serial

import (
	"net"
	"testing"
)

func TestDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	port, err := Dial(ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer port.Close()

	peer := <-accepted
	defer peer.Close()

	if _, err := port.Write([]byte("hi")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := port.Flush(); err != nil {
		t.Errorf("Flush should not fail: %v", err)
	}

	buf := make([]byte, 2)
	if _, err := peer.Read(buf); err != nil || string(buf) != "hi" {
		t.Errorf("Expected hi, got %q %v", buf, err)
	}
}

func TestDialFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Dial(addr); err == nil {
		t.Error("Expected error dialing a closed port")
	}
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}
