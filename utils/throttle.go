package utils

import "time"

// Throttle inserts a constant pause after each outbound request. It is a
// politeness delay, not a rate limiter: there is no backoff and no burst.
type Throttle struct {
	delay time.Duration
	sleep func(time.Duration)
}

// NewThrottle creates a Throttle pausing for delayMs milliseconds.
func NewThrottle(delayMs int) *Throttle {
	if delayMs < 0 {
		delayMs = 0
	}
	return &Throttle{
		delay: time.Duration(delayMs) * time.Millisecond,
		sleep: time.Sleep,
	}
}

// Delay returns the configured pause.
func (t *Throttle) Delay() time.Duration {
	return t.delay
}

// Pause blocks for the configured delay.
func (t *Throttle) Pause() {
	if t.delay <= 0 {
		return
	}
	t.sleep(t.delay)
}
