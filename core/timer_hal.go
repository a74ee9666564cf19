package core

// Global singleton used by the interrupt entry point.
var timeDriver *TimeDriver

// SetTimeDriver is called by target-specific code to register its driver.
func SetTimeDriver(d *TimeDriver) {
	timeDriver = d
}

// MustTimeDriver returns the configured driver or panics if missing.
func MustTimeDriver() *TimeDriver {
	if timeDriver == nil {
		panic("time driver not configured")
	}
	return timeDriver
}

// HandleTimerInterrupt is the machine-timer interrupt entry point. It does no
// I/O; everything happens inside the driver's critical section.
func HandleTimerInterrupt() {
	if timeDriver == nil {
		return
	}
	timeDriver.HandleInterrupt()
}
