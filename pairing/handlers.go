package pairing

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/wifi"
)

// handlers back the characteristics of the pairing service. A phone writes
// the SSID, then the passphrase, then the connect signal.
type handlers struct {
	device      Device
	log         Logger
	scanTimeout time.Duration

	mu         sync.Mutex
	ssid       string
	passphrase string
}

func newHandlers(config *Config) *handlers {
	h := &handlers{
		device:      config.Device,
		log:         config.Logger,
		scanTimeout: config.ScanTimeout,
	}

	if h.log == nil {
		h.log = noopLogger{}
	}

	if h.scanTimeout <= 0 {
		h.scanTimeout = defaultScanTimeout
	}

	return h
}

func (h *handlers) readNetworkAvailability() ([]byte, error) {
	h.log.Infof("Reading network availability...")

	status, err := h.device.Status()
	if err != nil {
		return nil, errors.Errorf("could not get wifi status: %v", err)
	}

	if status.Station != nil {
		return []byte{1}, nil
	}

	return []byte{0}, nil
}

func (h *handlers) readIPAddress() ([]byte, error) {
	h.log.Infof("Reading ip address...")

	status, err := h.device.Status()
	if err != nil {
		return nil, errors.Errorf("could not get wifi status: %v", err)
	}

	if status.Station == nil || !status.Station.Address.IsValid() {
		return []byte{}, nil
	}

	return []byte(status.Station.Address.String()), nil
}

type scanListItem struct {
	SSID    string `json:"ssid"`
	RSSI    int    `json:"rssi"`
	Secured bool   `json:"secured"`
}

func (h *handlers) readScanList() ([]byte, error) {
	h.log.Infof("Reading wifi scan list...")

	ctx, cancel := context.WithTimeout(context.Background(), h.scanTimeout)
	defer cancel()

	results, err := h.device.Scan(ctx)
	if err != nil && err != wifi.ErrNoNetworks {
		return nil, errors.Errorf("could not get wifi scan list: %v", err)
	}

	// literal so an empty list serializes into an empty json array
	list := []scanListItem{}
	for _, result := range wifi.Rank(results) {
		list = append(list, scanListItem{
			SSID:    result.SSID,
			RSSI:    result.RSSI,
			Secured: !result.Open(),
		})
	}

	payload, err := json.Marshal(list)
	if err != nil {
		return nil, errors.Errorf("could not serialize wifi scan list: %v", err)
	}

	return payload, nil
}

func (h *handlers) readSSID() ([]byte, error) {
	h.log.Infof("Reading wifi ssid...")

	status, err := h.device.Status()
	if err != nil {
		return nil, errors.Errorf("could not get wifi status: %v", err)
	}

	if status.Station != nil {
		return []byte(status.Station.SSID), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return []byte(h.ssid), nil
}

func (h *handlers) writeSSID(value []byte) error {
	ssid := string(value)

	if len(ssid) > wifi.MaxSSIDLength {
		return wifi.ErrSSIDLength
	}

	h.log.Infof("Writing wifi ssid to %v", ssid)

	h.mu.Lock()
	h.ssid = ssid
	h.mu.Unlock()

	return nil
}

func (h *handlers) writePassphrase(value []byte) error {
	passphrase := string(value)

	if len(passphrase) > wifi.MaxPassphraseLength {
		return wifi.ErrPassphraseLength
	}

	h.log.Infof("Writing wifi passphrase to %v", strings.Repeat("*", len(passphrase)))

	h.mu.Lock()
	h.passphrase = passphrase
	h.mu.Unlock()

	return nil
}

func (h *handlers) writeConnectSignal(value []byte) error {
	h.log.Infof("Writing wifi connect signal to %v", value)

	if !bytes.Equal(value, []byte{1}) {
		return nil
	}

	h.mu.Lock()
	network := wifi.NewNetwork(h.ssid, h.passphrase)
	h.mu.Unlock()

	if _, err := h.device.Provision(network); err != nil {
		return errors.Errorf("could not provision %v: %v", network.SSID, err)
	}

	h.mu.Lock()
	h.passphrase = ""
	h.mu.Unlock()

	return nil
}
