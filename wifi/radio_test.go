package wifi

import (
	"net/netip"
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
)

type fakeRadio struct {
	powered   bool
	station   bool
	ap        bool
	apClients int
	apStarts  int

	link LinkStatus
	info StationInfo

	connects    []ConnectRequest
	reject      map[string]bool
	disconnects int

	scans      int
	scanErr    error
	scanFound  func([]ScanResult)
	scanFailed func(error)
}

var _ Radio = (*fakeRadio)(nil)

func newFakeRadio() *fakeRadio {
	return &fakeRadio{
		powered: true,
		reject:  make(map[string]bool),
	}
}

func (r *fakeRadio) SetPower(on bool) error {
	r.powered = on
	if !on {
		r.link = LinkIdle
		r.ap = false
	}
	return nil
}

func (r *fakeRadio) EnableStation(enabled bool) error {
	r.station = enabled
	return nil
}

func (r *fakeRadio) StationEnabled() bool {
	return r.station
}

func (r *fakeRadio) Connect(req ConnectRequest) error {
	if r.reject[req.SSID] {
		return errors.New("rejected")
	}

	r.connects = append(r.connects, req)
	r.link = LinkConnecting
	r.info = StationInfo{SSID: req.SSID, BSSID: req.BSSID, Channel: req.Channel}

	return nil
}

func (r *fakeRadio) Disconnect() error {
	r.disconnects++
	r.link = LinkIdle
	return nil
}

func (r *fakeRadio) LinkStatus() LinkStatus {
	return r.link
}

func (r *fakeRadio) Station() StationInfo {
	return r.info
}

func (r *fakeRadio) StartScan(found func([]ScanResult), failed func(error)) error {
	if r.scanErr != nil {
		return r.scanErr
	}

	r.scans++
	r.scanFound = found
	r.scanFailed = failed

	return nil
}

func (r *fakeRadio) StartAccessPoint(cfg AccessPointConfig) error {
	r.ap = true
	r.apStarts++
	return nil
}

func (r *fakeRadio) StopAccessPoint() error {
	r.ap = false
	return nil
}

func (r *fakeRadio) AccessPointEnabled() bool {
	return r.ap
}

func (r *fakeRadio) AccessPointClients() int {
	return r.apClients
}

// establish completes the pending connection attempt.
func (r *fakeRadio) establish(bssid BSSID, rssi int) {
	r.link = LinkConnected
	r.info.BSSID = bssid
	r.info.RSSI = rssi
	r.info.Address = netip.MustParseAddr("192.168.1.20")
}

func (r *fakeRadio) ssids() []string {
	var out []string
	for _, req := range r.connects {
		out = append(out, req.SSID)
	}
	return out
}

type harness struct {
	radio   *fakeRadio
	clock   *testclock.Clock
	manager *Manager
	events  []Event
}

func testSettings() Settings {
	settings := DefaultSettings()
	settings.ScanBeforeConnect = false
	settings.RetryBudget = 0
	settings.RetryInterval = time.Second
	settings.ConnectTimeout = 10 * time.Second
	settings.ReconnectInterval = time.Minute
	settings.FallbackTimeout = 30 * time.Second
	return settings
}

func newHarness(t *testing.T, settings Settings, networks ...Network) *harness {
	h := &harness{
		radio: newFakeRadio(),
		clock: testclock.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	m, err := New(&Config{
		Radio:    h.radio,
		Settings: settings,
		Catalog:  Catalog(networks),
		Clock:    h.clock,
	})
	require.NoError(t, err)

	m.Subscribe(func(e Event) {
		h.events = append(h.events, e)
	})

	h.manager = m

	return h
}

// pump ticks without moving the clock until the machine settles.
func (h *harness) pump() {
	for i := 0; i < 32; i++ {
		h.manager.Tick()
	}
}

func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.pump()
}

func (h *harness) kinds() []EventKind {
	var out []EventKind
	for _, e := range h.events {
		out = append(out, e.Kind)
	}
	return out
}

func (h *harness) count(kind EventKind) int {
	n := 0
	for _, e := range h.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
