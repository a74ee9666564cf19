package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a timer event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Clock     uint64 // Counter value when the event was recorded
	Value     uint64 // Deadline involved
}

// Event type codes
const (
	EvtWakeSchedule = 1 // ScheduleWake called (Clock holds the armed deadline)
	EvtAlarmArm     = 2 // compare register armed
	EvtAlarmRetry   = 3 // deadline elapsed while arming
	EvtWakePast     = 4 // next deadline already elapsed before arming
	EvtWakeFire     = 5 // waker called
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer. Only written inside critical sections.
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// It must not be called from interrupt context.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures a timing event in the ring buffer. Callers hold a
// critical section; the timer interrupt records through here as well.
func RecordTiming(eventType uint8, clock, value uint64) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Clock:     clock,
		Value:     value,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingEvents returns the recorded events, oldest first.
func TimingEvents() []TimingEvent {
	var events []TimingEvent
	WithCriticalSection(func(cs CriticalSection) {
		start := timingRingHead
		for i := uint8(0); i < TimingRingSize; i++ {
			evt := timingRing[(start+i)%TimingRingSize]
			if evt.EventType == 0 {
				continue // Empty slot
			}
			events = append(events, evt)
		}
	})
	return events
}

// DumpTimingRing outputs the timing ring buffer (call on shutdown/error)
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	// Snapshot first: the writer may block on a UART.
	events := TimingEvents()

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range events {
		var name string
		switch evt.EventType {
		case EvtWakeSchedule:
			name = "WAKE_SCHED"
		case EvtAlarmArm:
			name = "ALARM_ARM"
		case EvtAlarmRetry:
			name = "ALARM_RETRY"
		case EvtWakePast:
			name = "WAKE_PAST!"
		case EvtWakeFire:
			name = "WAKE_FIRE"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TIMING] " + name +
			" clock=" + utoa(evt.Clock) +
			" value=" + utoa(evt.Value))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	WithCriticalSection(func(cs CriticalSection) {
		for i := range timingRing {
			timingRing[i] = TimingEvent{}
		}
		timingRingHead = 0
	})
}
