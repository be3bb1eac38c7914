package network

import (
	"net/netip"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/the-lightning-land/wifid/wifi"
)

// check MockRadio compliance to its interface during compile time
var _ Radio = (*MockRadio)(nil)

// MockAccessPoint is a network the mock radio can see and join.
type MockAccessPoint struct {
	SSID       string
	Passphrase string
	BSSID      wifi.BSSID
	RSSI       int
	Channel    int
}

func (ap MockAccessPoint) security() wifi.Security {
	if ap.Passphrase == "" {
		return wifi.SecurityOpen
	}

	return wifi.SecurityWPA2
}

type MockConfig struct {
	AccessPoints []MockAccessPoint
	Clock        clock.Clock
	ScanDelay    time.Duration
	ConnectDelay time.Duration
	Logger       Logger
}

// DefaultMockAccessPoints is the neighbourhood simulated by --net=mock.
func DefaultMockAccessPoints() []MockAccessPoint {
	return []MockAccessPoint{
		{SSID: "Office", Passphrase: "correct horse", BSSID: wifi.BSSID{0x02, 0, 0, 0, 0, 0x01}, RSSI: -55, Channel: 1},
		{SSID: "Office", Passphrase: "correct horse", BSSID: wifi.BSSID{0x02, 0, 0, 0, 0, 0x02}, RSSI: -78, Channel: 11},
		{SSID: "Home", Passphrase: "battery staple", BSSID: wifi.BSSID{0x02, 0, 0, 0, 0, 0x03}, RSSI: -62, Channel: 6},
		{SSID: "Cafe", BSSID: wifi.BSSID{0x02, 0, 0, 0, 0, 0x04}, RSSI: -70, Channel: 6},
	}
}

// MockRadio simulates a radio in a fixed neighbourhood of access points.
type MockRadio struct {
	log          Logger
	clock        clock.Clock
	scanDelay    time.Duration
	connectDelay time.Duration

	mu        sync.Mutex
	aps       []MockAccessPoint
	powered   bool
	station   bool
	link      wifi.LinkStatus
	info      wifi.StationInfo
	attempt   uint64
	ap        bool
	apClients int
	connects  []wifi.ConnectRequest
}

func NewMockRadio(config *MockConfig) *MockRadio {
	radio := &MockRadio{
		clock:        config.Clock,
		scanDelay:    config.ScanDelay,
		connectDelay: config.ConnectDelay,
		aps:          append([]MockAccessPoint(nil), config.AccessPoints...),
		powered:      true,
	}

	if radio.clock == nil {
		radio.clock = clock.WallClock
	}

	if config.Logger != nil {
		radio.log = config.Logger
	} else {
		radio.log = noopLogger{}
	}

	return radio
}

func (r *MockRadio) Start() error {
	r.log.Infof("Started mock radio with %d access points", len(r.aps))
	return nil
}

func (r *MockRadio) Stop() error {
	return nil
}

func (r *MockRadio) SetPower(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.powered = on

	if !on {
		r.attempt++
		r.link = wifi.LinkIdle
		r.info = wifi.StationInfo{}
		r.ap = false
	}

	return nil
}

func (r *MockRadio) EnableStation(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.station = enabled

	return nil
}

func (r *MockRadio) StationEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.station
}

func (r *MockRadio) Connect(req wifi.ConnectRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempt++
	attempt := r.attempt

	r.connects = append(r.connects, req)
	r.link = wifi.LinkConnecting
	r.info = wifi.StationInfo{}

	r.clock.AfterFunc(r.connectDelay, func() {
		r.complete(attempt, req)
	})

	return nil
}

func (r *MockRadio) complete(attempt uint64, req wifi.ConnectRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if attempt != r.attempt {
		return
	}

	var best *MockAccessPoint

	for i := range r.aps {
		ap := &r.aps[i]
		if ap.SSID != req.SSID {
			continue
		}

		if !req.BSSID.IsZero() && ap.BSSID != req.BSSID {
			continue
		}

		if best == nil || ap.RSSI > best.RSSI {
			best = ap
		}
	}

	switch {
	case best == nil:
		r.link = wifi.LinkNoNetwork
	case best.Passphrase != req.Passphrase:
		r.link = wifi.LinkWrongPassword
	default:
		address := netip.MustParseAddr("192.168.1.100")
		if req.Static != nil {
			address = req.Static.Address
		}

		r.link = wifi.LinkConnected
		r.info = wifi.StationInfo{
			SSID:    best.SSID,
			BSSID:   best.BSSID,
			RSSI:    best.RSSI,
			Channel: best.Channel,
			Address: address,
		}
	}

	r.log.Debugf("Mock connection to %v: %v", req.SSID, r.link)
}

func (r *MockRadio) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempt++
	r.link = wifi.LinkIdle
	r.info = wifi.StationInfo{}

	return nil
}

func (r *MockRadio) LinkStatus() wifi.LinkStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.link
}

func (r *MockRadio) Station() wifi.StationInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.info
}

func (r *MockRadio) StartScan(found func([]wifi.ScanResult), failed func(error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]wifi.ScanResult, 0, len(r.aps))
	for _, ap := range r.aps {
		results = append(results, wifi.ScanResult{
			SSID:     ap.SSID,
			BSSID:    ap.BSSID,
			RSSI:     ap.RSSI,
			Channel:  ap.Channel,
			Security: ap.security(),
		})
	}

	r.clock.AfterFunc(r.scanDelay, func() {
		found(results)
	})

	return nil
}

func (r *MockRadio) StartAccessPoint(cfg wifi.AccessPointConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ap = true
	r.log.Infof("Mock access point %v up on channel %d", cfg.SSID, cfg.Channel)

	return nil
}

func (r *MockRadio) StopAccessPoint() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ap = false
	r.apClients = 0

	return nil
}

func (r *MockRadio) AccessPointEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ap
}

func (r *MockRadio) AccessPointClients() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.apClients
}

// SetAccessPointClients simulates clients joining the access point.
func (r *MockRadio) SetAccessPointClients(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.apClients = n
}

// SetRSSI changes the signal of one access point, including the current
// association.
func (r *MockRadio) SetRSSI(bssid wifi.BSSID, rssi int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.aps {
		if r.aps[i].BSSID == bssid {
			r.aps[i].RSSI = rssi
		}
	}

	if r.info.BSSID == bssid {
		r.info.RSSI = rssi
	}
}

// Drop simulates the access point going away.
func (r *MockRadio) Drop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempt++
	r.link = wifi.LinkIdle
	r.info = wifi.StationInfo{}
}

// Connects returns every connection request in order.
func (r *MockRadio) Connects() []wifi.ConnectRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]wifi.ConnectRequest(nil), r.connects...)
}
