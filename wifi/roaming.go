package wifi

import "time"

// Roaming samples signal strength while connected and asks for a better
// access point after enough consecutive weak samples.
type Roaming struct {
	threshold int
	checks    int
	interval  time.Duration

	remaining int
	sample    oneShot
	running   bool
}

func NewRoaming(settings Settings) *Roaming {
	r := &Roaming{}
	r.configure(settings)
	return r
}

func (r *Roaming) configure(settings Settings) {
	r.threshold = settings.RSSIThreshold
	r.checks = settings.RSSIChecks
	r.interval = settings.RSSICheckInterval
	r.remaining = r.checks
}

// Enabled is false when no sample count is configured.
func (r *Roaming) Enabled() bool {
	return r.checks > 0 && r.interval > 0
}

func (r *Roaming) Running() bool {
	return r.running
}

// Remaining is the countdown of weak samples left before roaming.
func (r *Roaming) Remaining() int {
	return r.remaining
}

func (r *Roaming) Start(now time.Time) {
	if !r.Enabled() {
		return
	}

	r.running = true
	r.remaining = r.checks
	r.sample.arm(now, r.interval)
}

func (r *Roaming) Stop() {
	r.running = false
	r.remaining = r.checks
	r.sample.stop()
}

// Poll takes a sample when one is due. It returns true when the countdown
// reached zero on this sample.
func (r *Roaming) Poll(now time.Time, rssi func() int) bool {
	if !r.running || !r.sample.expired(now) {
		return false
	}

	r.sample.arm(now, r.interval)

	return r.Observe(rssi())
}

// Observe feeds one sample into the countdown.
func (r *Roaming) Observe(rssi int) bool {
	if rssi >= r.threshold {
		r.remaining = r.checks
		return false
	}

	r.remaining--

	if r.remaining > 0 {
		return false
	}

	r.remaining = r.checks

	return true
}
