package wifi

import "time"

// Fallback supervises the configuration access point. It only ever tears down
// an access point it started itself.
type Fallback struct {
	radio    Radio
	log      Logger
	mode     FallbackMode
	ap       AccessPointConfig
	interval time.Duration

	deadline oneShot
	owned    bool
}

func NewFallback(radio Radio, logger Logger, settings Settings) *Fallback {
	if logger == nil {
		logger = noopLogger{}
	}

	f := &Fallback{
		radio: radio,
		log:   logger,
	}

	f.configure(settings)

	return f
}

func (f *Fallback) configure(settings Settings) {
	f.mode = settings.Fallback
	f.ap = settings.AccessPoint
	f.interval = settings.FallbackTimeout
}

func (f *Fallback) Mode() FallbackMode {
	return f.mode
}

// Running reports whether the access point is up.
func (f *Fallback) Running() bool {
	return f.radio.AccessPointEnabled()
}

// Start brings the access point up because the station could not connect.
// It returns true when the access point was started by this call.
func (f *Fallback) Start(now time.Time) bool {
	if f.mode == FallbackDisabled {
		return false
	}

	started := false

	if !f.radio.AccessPointEnabled() {
		if err := f.radio.StartAccessPoint(f.ap); err != nil {
			f.log.Errorf("Could not start fallback access point %s: %v", f.ap.SSID, err)
			return false
		}

		f.log.Infof("Started fallback access point %s", f.ap.SSID)

		f.owned = true
		started = true
	}

	f.deadline.arm(now, f.interval)

	return started
}

// StartManual brings the access point up on request. It is left alone by Check.
func (f *Fallback) StartManual() bool {
	if f.radio.AccessPointEnabled() {
		return false
	}

	if err := f.radio.StartAccessPoint(f.ap); err != nil {
		f.log.Errorf("Could not start access point %s: %v", f.ap.SSID, err)
		return false
	}

	f.log.Infof("Started access point %s", f.ap.SSID)

	f.owned = false
	f.deadline.stop()

	return true
}

func (f *Fallback) Stop() bool {
	f.deadline.stop()
	f.owned = false

	if !f.radio.AccessPointEnabled() {
		return false
	}

	if err := f.radio.StopAccessPoint(); err != nil {
		f.log.Errorf("Could not stop access point: %v", err)
		return false
	}

	f.log.Infof("Stopped access point %s", f.ap.SSID)

	return true
}

// Arm schedules a check if a fallback access point is up.
func (f *Fallback) Arm(now time.Time) {
	if f.owned && f.radio.AccessPointEnabled() {
		f.deadline.arm(now, f.interval)
	}
}

// Expired reports once when the check deadline passes.
func (f *Fallback) Expired(now time.Time) bool {
	return f.deadline.expired(now)
}

// Check stops the fallback access point once the station is connected and no
// client uses it. Otherwise the deadline is armed again. It returns true when
// the access point was stopped.
func (f *Fallback) Check(now time.Time, stationConnected bool) bool {
	if !f.radio.AccessPointEnabled() {
		f.deadline.stop()
		f.owned = false
		return false
	}

	if !f.owned || f.mode != FallbackOnDemand {
		return false
	}

	clients := f.radio.AccessPointClients()

	if stationConnected && clients == 0 {
		f.log.Infof("Station is connected and no clients are attached, stopping fallback access point")
		return f.Stop()
	}

	f.log.Debugf("Keeping fallback access point, station connected: %v, clients: %d", stationConnected, clients)

	f.deadline.arm(now, f.interval)

	return false
}

// Reset forgets the deadline, used when the radio powers off.
func (f *Fallback) Reset() {
	f.deadline.stop()
	f.owned = false
}
