//go:build mlogv32

package main

import (
	"device/riscv"

	"rvboard/core"
)

const (
	mcauseInterrupt    = 1 << 31
	mcauseMachineTimer = 7

	mieMTIE    = 1 << 7 // machine timer interrupt enable
	mstatusMIE = 1 << 3 // global machine interrupt enable
)

// enableTimerInterrupt unmasks the machine timer. The compare register must
// already be parked at regs.FarFuture.
func enableTimerInterrupt() {
	riscv.MIE.SetBits(mieMTIE)
	riscv.MSTATUS.SetBits(mstatusMIE)
}

// handleInterrupt is called from the trap vector in device/riscv. The board
// only routes the machine timer; anything else is a fault. The debug writer
// cannot be used here, so the fault goes out through the runtime's panic.
//
//export handleInterrupt
func handleInterrupt() {
	cause := riscv.MCAUSE.Get()
	if cause&mcauseInterrupt == 0 || cause&^mcauseInterrupt != mcauseMachineTimer {
		panic("unexpected trap")
	}
	core.HandleTimerInterrupt()
}
