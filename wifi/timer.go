package wifi

import "time"

// oneShot is a deadline polled by the tick. It fires once per arm.
type oneShot struct {
	deadline time.Time
	armed    bool
}

func (t *oneShot) arm(now time.Time, d time.Duration) {
	t.deadline = now.Add(d)
	t.armed = true
}

func (t *oneShot) stop() {
	t.armed = false
}

func (t *oneShot) active() bool {
	return t.armed
}

// expired reports true exactly once after the deadline passes.
func (t *oneShot) expired(now time.Time) bool {
	if !t.armed || now.Before(t.deadline) {
		return false
	}

	t.armed = false

	return true
}

// remaining is zero when the timer is not armed.
func (t *oneShot) remaining(now time.Time) time.Duration {
	if !t.armed {
		return 0
	}

	if d := t.deadline.Sub(now); d > 0 {
		return d
	}

	return 0
}
