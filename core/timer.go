package core

import (
	"context"
	"runtime"
)

// TimerFreq is the machine timer rate in Hz. Boards override it from
// configuration before any conversion is used.
var TimerFreq uint64 = 1_000_000

// SetTimerFreq sets the machine timer rate; zero is ignored.
func SetTimerFreq(hz uint64) {
	if hz != 0 {
		TimerFreq = hz
	}
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint64) uint64 {
	return us * TimerFreq / 1000000
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint64) uint64 {
	return ticks * 1000000 / TimerFreq
}

// GetUptime returns the counter of the registered time driver.
func GetUptime() uint64 {
	return MustTimeDriver().Now()
}

// SleepUntil blocks the calling goroutine until ts.Now() >= deadline or ctx
// is done, yielding to other goroutines while it waits. If ctx ends first,
// the queued wake still fires later and is ignored.
func SleepUntil(ctx context.Context, ts TimeSource, deadline uint64) error {
	w := new(FlagWaker)
	for ts.Now() < deadline {
		ts.ScheduleWake(deadline, w)
		for !w.Take() {
			if err := ctx.Err(); err != nil {
				return err
			}
			runtime.Gosched()
		}
	}
	return nil
}

// Sleep blocks for at least ticks timer ticks.
func Sleep(ctx context.Context, ts TimeSource, ticks uint64) error {
	return SleepUntil(ctx, ts, ts.Now()+ticks)
}
