package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"rvboard/host/bridge"
	"rvboard/host/serial"
)

var (
	device  = flag.String("device", "", "Serial device path (e.g. /dev/ttyUSB0)")
	connect = flag.String("connect", "", "UART socket of the emulator (host:port), instead of -device")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored by the emulator)")
	listen  = flag.String("listen", "0.0.0.0:5001", "Address to accept terminal clients on")
	quiet   = flag.Bool("quiet", false, "Do not echo traffic to stdout")
	noInput = flag.Bool("no-input", false, "Do not forward stdin to the board")
	withPTY = flag.Bool("pty", false, "Also expose the board on a raw pseudo-terminal (linux)")
)

func main() {
	flag.Parse()

	port, err := openPort()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		port.Close()
		fmt.Fprintf(os.Stderr, "Error: failed to listen on %s: %v\n", *listen, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Serving terminal clients on %s\n", ln.Addr())

	var out io.Writer = os.Stdout
	if *quiet {
		out = io.Discard
	}
	b := bridge.New(port, ln, out)
	if !*noInput {
		b.SetInput(os.Stdin)
	}
	if *withPTY {
		p, err := serial.OpenPTY()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Board available on %s\n", p.Name())
		b.Attach(p)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = b.Run(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(os.Stderr, "Shutting down")
	case errors.Is(err, bridge.ErrDeviceClosed):
		fmt.Fprintln(os.Stderr, "Board disconnected")
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openPort() (serial.Port, error) {
	switch {
	case *connect != "" && *device != "":
		return nil, fmt.Errorf("-device and -connect are mutually exclusive")
	case *connect != "":
		fmt.Fprintf(os.Stderr, "Connecting to %s...\n", *connect)
		return serial.Dial(*connect)
	case *device != "":
		fmt.Fprintf(os.Stderr, "Opening %s at %d baud...\n", *device, *baud)
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		return serial.Open(cfg)
	default:
		return nil, fmt.Errorf("one of -device or -connect is required")
	}
}
