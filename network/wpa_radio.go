package network

import (
	"strconv"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/network/wpa"
	"github.com/the-lightning-land/wifid/wifi"
)

// check WpaRadio compliance to its interface during compile time
var _ Radio = (*WpaRadio)(nil)

type Config struct {
	// Interface is the station interface.
	Interface string
	// APInterface is the interface the access point runs on.
	APInterface string
	// ResolvConf receives the resolver of networks with a static address.
	ResolvConf string
	Logger     Logger
}

type pendingScan struct {
	found  func([]wifi.ScanResult)
	failed func(error)
}

// WpaRadio drives wpa_supplicant over D-Bus. The station and the access point
// use separate interfaces managed by the same wpa_supplicant.
type WpaRadio struct {
	log        Logger
	wpa        *wpa.Wpa
	staName    string
	apName     string
	resolvConf string

	sta *wpa.Interface
	ap  *wpa.Interface
	sub *wpa.Subscription
	wg  sync.WaitGroup

	// guarded by mu, written by the signal goroutine
	mu         sync.Mutex
	state      string
	failure    wifi.LinkStatus
	connecting bool
	scan       *pendingScan

	stationEnabled bool
	apEnabled      bool
}

func NewWpaRadio(config *Config) *WpaRadio {
	radio := &WpaRadio{
		wpa:        wpa.New(),
		staName:    config.Interface,
		apName:     config.APInterface,
		resolvConf: config.ResolvConf,
	}

	if config.Logger != nil {
		radio.log = config.Logger
	} else {
		radio.log = noopLogger{}
	}

	return radio
}

func (r *WpaRadio) Start() error {
	err := r.wpa.Start()
	if err != nil {
		return errors.Errorf("could not start wpa: %v", err)
	}

	r.sta, err = r.wpa.Interface(r.staName)
	if err != nil {
		_ = r.wpa.Stop()
		return errors.Errorf("could not find interface %v: %v", r.staName, err)
	}

	if r.apName != "" && r.apName != r.staName {
		r.ap, err = r.wpa.Interface(r.apName)
		if err != nil {
			_ = r.wpa.Stop()
			return errors.Errorf("could not find access point interface %v: %v", r.apName, err)
		}
	}

	state, err := r.sta.State()
	if err != nil {
		_ = r.wpa.Stop()
		return errors.Errorf("could not read state of %v: %v", r.staName, err)
	}

	r.state = state
	r.stationEnabled = state != "inactive" && state != "interface_disabled"

	r.sub, err = r.sta.Subscribe()
	if err != nil {
		_ = r.wpa.Stop()
		return errors.Errorf("could not subscribe to %v: %v", r.staName, err)
	}

	r.wg.Add(1)
	go r.handleEvents()

	r.log.Infof("Started wpa radio on %v", r.sta)

	return nil
}

func (r *WpaRadio) Stop() error {
	if r.sub != nil {
		r.sub.Cancel()
		r.wg.Wait()
	}

	err := r.wpa.Stop()
	if err != nil {
		return errors.Errorf("could not stop wpa: %v", err)
	}

	return nil
}

func (r *WpaRadio) handleEvents() {
	defer r.wg.Done()

	for event := range r.sub.Events {
		switch event.Kind {
		case wpa.StateChanged:
			r.stateChanged(event.State)
		case wpa.ScanDone:
			r.scanDone(event.Success)
		}
	}
}

func (r *WpaRadio) stateChanged(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.state
	r.state = state

	r.log.Debugf("Station state %v -> %v", previous, state)

	if !r.connecting || state != "disconnected" {
		return
	}

	switch previous {
	case "4way_handshake", "group_handshake":
		r.failure = wifi.LinkWrongPassword
	case "associating", "associated", "authenticating":
		r.failure = wifi.LinkFailed
	}
}

func (r *WpaRadio) scanDone(success bool) {
	r.mu.Lock()
	scan := r.scan
	r.scan = nil
	r.mu.Unlock()

	if scan == nil {
		return
	}

	if !success {
		scan.failed(errors.New("wpa_supplicant reported a failed scan"))
		return
	}

	bsss, err := r.sta.BSSs()
	if err != nil {
		scan.failed(err)
		return
	}

	results := make([]wifi.ScanResult, 0, len(bsss))

	for _, bss := range bsss {
		props, err := bss.GetAll()
		if err != nil {
			r.log.Debugf("Skipping %v: %v", bss, err)
			continue
		}

		results = append(results, scanResultOf(props))
	}

	scan.found(results)
}

func (r *WpaRadio) SetPower(on bool) error {
	for _, name := range []string{r.staName, r.apName} {
		if name == "" {
			continue
		}

		if err := setLinkUp(name, on); err != nil {
			return err
		}
	}

	if !on {
		r.mu.Lock()
		r.connecting = false
		r.mu.Unlock()

		r.apEnabled = false
	}

	return nil
}

func (r *WpaRadio) EnableStation(enabled bool) error {
	if !enabled {
		if err := r.sta.RemoveAllNetworks(); err != nil {
			return err
		}

		r.mu.Lock()
		r.connecting = false
		r.mu.Unlock()
	}

	r.stationEnabled = enabled

	return nil
}

func (r *WpaRadio) StationEnabled() bool {
	return r.stationEnabled
}

func (r *WpaRadio) Connect(req wifi.ConnectRequest) error {
	if err := r.sta.RemoveAllNetworks(); err != nil {
		return err
	}

	args := map[string]interface{}{
		"ssid": req.SSID,
	}

	if req.Passphrase != "" {
		args["psk"] = req.Passphrase
	} else {
		args["key_mgmt"] = "NONE"
	}

	if !req.BSSID.IsZero() {
		args["bssid"] = req.BSSID.String()
	}

	if freq := FrequencyFromChannel(req.Channel); freq != 0 {
		args["scan_freq"] = strconv.Itoa(freq)
	}

	net, err := r.sta.AddNetwork(args)
	if err != nil {
		return err
	}

	if req.Static != nil {
		if err := applyStatic(r.staName, req.Static, r.resolvConf); err != nil {
			return errors.Errorf("could not apply static address: %v", err)
		}
	}

	r.mu.Lock()
	r.connecting = true
	r.failure = wifi.LinkConnecting
	r.mu.Unlock()

	if err := r.sta.SelectNetwork(net); err != nil {
		return err
	}

	return nil
}

func (r *WpaRadio) Disconnect() error {
	r.mu.Lock()
	r.connecting = false
	associated := r.state == "completed" || r.state == "associated"
	r.mu.Unlock()

	if !associated {
		return nil
	}

	return r.sta.Disconnect()
}

func (r *WpaRadio) LinkStatus() wifi.LinkStatus {
	r.mu.Lock()
	state := r.state
	failure := r.failure
	connecting := r.connecting
	r.mu.Unlock()

	if state == "completed" {
		if interfaceAddress(r.staName).IsValid() {
			return wifi.LinkConnected
		}

		return wifi.LinkConnecting
	}

	if !connecting {
		return wifi.LinkIdle
	}

	return failure
}

func (r *WpaRadio) Station() wifi.StationInfo {
	info := wifi.StationInfo{
		Address: interfaceAddress(r.staName),
	}

	bss, err := r.sta.CurrentBSS()
	if err != nil || bss == nil {
		return info
	}

	props, err := bss.GetAll()
	if err != nil {
		return info
	}

	info.SSID = props.Ssid
	info.BSSID = wifi.BSSID(props.Bssid)
	info.RSSI = props.Signal
	info.Channel = ChannelFromFrequency(props.Frequency)

	if signal, err := r.sta.SignalPoll(); err == nil {
		info.RSSI = signal.RSSI
		if channel := ChannelFromFrequency(signal.Frequency); channel != 0 {
			info.Channel = channel
		}
	}

	return info
}

func (r *WpaRadio) StartScan(found func([]wifi.ScanResult), failed func(error)) error {
	r.mu.Lock()
	r.scan = &pendingScan{found: found, failed: failed}
	r.mu.Unlock()

	if err := r.sta.Scan(); err != nil {
		r.mu.Lock()
		r.scan = nil
		r.mu.Unlock()

		return err
	}

	return nil
}

func (r *WpaRadio) apInterface() (*wpa.Interface, error) {
	if r.ap == nil {
		return nil, errors.Errorf("no access point interface configured")
	}

	return r.ap, nil
}

func (r *WpaRadio) StartAccessPoint(cfg wifi.AccessPointConfig) error {
	ap, err := r.apInterface()
	if err != nil {
		return err
	}

	if err := ap.RemoveAllNetworks(); err != nil {
		return err
	}

	args := map[string]interface{}{
		"ssid":      cfg.SSID,
		"mode":      uint32(2),
		"frequency": int32(FrequencyFromChannel(cfg.Channel)),
	}

	if cfg.Passphrase != "" {
		args["key_mgmt"] = "WPA-PSK"
		args["proto"] = "RSN"
		args["pairwise"] = "CCMP"
		args["psk"] = cfg.Passphrase
	} else {
		args["key_mgmt"] = "NONE"
	}

	net, err := ap.AddNetwork(args)
	if err != nil {
		return err
	}

	if err := ap.SelectNetwork(net); err != nil {
		return err
	}

	r.apEnabled = true

	return nil
}

func (r *WpaRadio) StopAccessPoint() error {
	ap, err := r.apInterface()
	if err != nil {
		return err
	}

	if err := ap.RemoveAllNetworks(); err != nil {
		return err
	}

	r.apEnabled = false

	return nil
}

func (r *WpaRadio) AccessPointEnabled() bool {
	return r.apEnabled
}

func (r *WpaRadio) AccessPointClients() int {
	if r.ap == nil || !r.apEnabled {
		return 0
	}

	stations, err := r.ap.Stations()
	if err != nil {
		r.log.Debugf("Could not count access point clients: %v", err)
		return 0
	}

	return stations
}
