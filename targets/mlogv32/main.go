//go:build mlogv32

package main

import (
	"context"
	_ "embed"
	"runtime"
	"strconv"

	"tinygo.org/x/drivers"

	"rvboard/config"
	"rvboard/core"
	"rvboard/regs"
	"rvboard/uart"
)

//go:embed board.json
var boardJSON []byte

func main() {
	cfg, err := config.LoadConfig(boardJSON)
	if err != nil {
		panic(err.Error())
	}
	core.SetTimerFreq(cfg.TimerFreq)

	// Timer first: the compare register must be parked before the
	// interrupt is unmasked.
	td := core.NewTimeDriver(regs.Timer.Take())
	td.Init()
	core.SetTimeDriver(td)
	enableTimerInterrupt()

	// The debug writer owns the log port; heartbeat and echo both log
	// through it.
	if cfg.LogUART != "" {
		logPort := openPort(cfg, cfg.LogUART)
		core.SetDebugWriter(uart.NewDebugWriter(logPort, "INFO"))
		core.SetDebugEnabled(true)
	}

	data := uart.NewBuffered(openPort(cfg, cfg.DataUART), make([]byte, cfg.RingSize))
	data.Init()

	// The host side may still be sending from a previous session; keep
	// clearing until the line goes quiet.
	for data.ReadReady() {
		data.Clear()
		runtime.Gosched()
	}

	announce(data)
	core.DebugPrintln("rvboard ready")

	ctx := context.Background()
	go heartbeat(ctx, td)
	echo(ctx, data)
}

// openPort takes the named UART and returns an initialized port over it.
func openPort(cfg *config.BoardConfig, name string) *uart.Port {
	u, err := cfg.UART(name)
	if err != nil {
		panic(err.Error())
	}
	base, err := u.Address()
	if err != nil {
		panic(name + ": " + err.Error())
	}
	p := uart.New(regs.UART(base).Take(), u.Capacity(cfg.FIFOCapacity))
	p.Init()
	return p
}

// announce writes the boot banner through the generic UART interface.
func announce(w drivers.UART) {
	w.Write([]byte("rvboard ready\r\n"))
}

// echo sends every received byte back. It consumes one run per fill, so at
// most one ring run is buffered in flight.
func echo(ctx context.Context, data *uart.BufferedPort) {
	for {
		run, err := data.Fill(ctx)
		if err == uart.ErrOverrun {
			core.DebugPrintln("data uart overrun, clearing")
			data.Clear()
			continue
		}
		if err != nil {
			core.DebugPrintln("data uart: " + err.Error())
			core.DumpTimingRing()
			return
		}
		data.Write(run)
		data.Consume(len(run))
	}
}

// heartbeat logs the uptime once a second.
func heartbeat(ctx context.Context, ts core.TimeSource) {
	period := core.TimerFromUS(1_000_000)
	next := ts.Now() + period
	for {
		if err := core.SleepUntil(ctx, ts, next); err != nil {
			return
		}
		core.DebugPrintln("uptime " + strconv.FormatUint(core.TimerToUS(ts.Now())/1000, 10) + "ms")
		next += period
	}
}
