package core

import "rvboard/regs"

// TimeSource is what a cooperative executor needs from the board to
// implement timers: a monotonic tick count and a way to be woken at a
// deadline. Wakes cannot be cancelled; spurious or late wakes have to be
// filtered by the caller.
type TimeSource interface {
	Now() uint64
	ScheduleWake(deadline uint64, w Waker)
}

// TimeDriver owns the machine timer. It keeps the compare register armed at
// the earliest pending deadline, or at regs.FarFuture when nothing is queued,
// and never leaves it armed at or before the current counter value.
type TimeDriver struct {
	state Guarded[timerState]
}

type timerState struct {
	dev   regs.TimerDevice
	queue WakeQueue
	armed uint64
}

// NewTimeDriver takes ownership of dev. The driver does not touch the
// hardware until Init or the first ScheduleWake.
func NewTimeDriver(dev regs.TimerDevice) *TimeDriver {
	if dev == nil {
		panic("core: nil timer device")
	}
	return &TimeDriver{
		state: Guarded[timerState]{v: timerState{dev: dev, armed: regs.FarFuture}},
	}
}

// Init restarts the counter at zero. The alarm is disarmed if nothing is
// queued, otherwise re-armed at the earliest deadline, which is now measured
// from the new zero.
func (d *TimeDriver) Init() {
	WithCriticalSection(func(cs CriticalSection) {
		s := d.state.Borrow(cs)
		s.dev.SetCounter(0)
		s.dispatch()
	})
}

// Now returns the current counter value.
func (d *TimeDriver) Now() (now uint64) {
	WithCriticalSection(func(cs CriticalSection) {
		now = d.state.Borrow(cs).dev.Counter()
	})
	return now
}

// ScheduleWake queues w to be woken once the counter reaches deadline. A
// deadline that has already passed is woken before ScheduleWake returns if it
// is the earliest entry, otherwise on the next interrupt, which is already
// pending in that case.
func (d *TimeDriver) ScheduleWake(deadline uint64, w Waker) {
	WithCriticalSection(func(cs CriticalSection) {
		s := d.state.Borrow(cs)
		RecordTiming(EvtWakeSchedule, s.armed, deadline)
		if s.queue.Schedule(deadline, w) {
			s.dispatch()
		}
	})
}

// HandleInterrupt services a machine-timer interrupt: it wakes everything
// that is due and re-arms for the next deadline.
func (d *TimeDriver) HandleInterrupt() {
	WithCriticalSection(func(cs CriticalSection) {
		d.state.Borrow(cs).dispatch()
	})
}

// Armed returns the deadline the compare register is currently armed at.
func (d *TimeDriver) Armed() (at uint64) {
	WithCriticalSection(func(cs CriticalSection) {
		at = d.state.Borrow(cs).armed
	})
	return at
}

// Pending returns the number of queued wakes.
func (d *TimeDriver) Pending() (n int) {
	WithCriticalSection(func(cs CriticalSection) {
		n = d.state.Borrow(cs).queue.Len()
	})
	return n
}

// dispatch wakes expired entries and arms the alarm for the next one. The
// counter keeps running while this executes, so arming is retried with a
// fresh counter value until it sticks.
func (s *timerState) dispatch() {
	now := s.dev.Counter()
	next := s.queue.NextExpiration(now)
	for !s.setAlarm(now, next) {
		now = s.dev.Counter()
		next = s.queue.NextExpiration(now)
	}
}

// setAlarm arms the compare register at at. It fails if at is not strictly in
// the future, either before the write or right after it.
func (s *timerState) setAlarm(now, at uint64) bool {
	if at == regs.FarFuture {
		s.dev.SetCompare(at)
		s.armed = at
		return true
	}
	if at <= now {
		RecordTiming(EvtWakePast, now, at)
		return false
	}

	s.dev.SetCompare(at)
	if now = s.dev.Counter(); now >= at {
		RecordTiming(EvtAlarmRetry, now, at)
		return false
	}

	s.armed = at
	RecordTiming(EvtAlarmArm, now, at)
	return true
}
