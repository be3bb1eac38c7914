package wifi

import "net/netip"

// LinkStatus is the station link as last reported by the radio.
type LinkStatus uint8

const (
	LinkIdle LinkStatus = iota
	LinkConnecting
	LinkConnected
	LinkNoNetwork
	LinkWrongPassword
	LinkFailed
)

func (s LinkStatus) String() string {
	switch s {
	case LinkIdle:
		return "Idle"
	case LinkConnecting:
		return "Connecting"
	case LinkConnected:
		return "Connected"
	case LinkNoNetwork:
		return "NoNetwork"
	case LinkWrongPassword:
		return "WrongPassword"
	case LinkFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether a connection attempt in this status has failed for good.
func (s LinkStatus) Terminal() bool {
	return s == LinkNoNetwork || s == LinkWrongPassword || s == LinkFailed
}

// ConnectRequest is what the radio needs to associate with one network.
type ConnectRequest struct {
	SSID       string
	Passphrase string

	// BSSID and Channel are zero unless learned from a scan.
	BSSID   BSSID
	Channel int

	// Static is nil for dynamic address assignment.
	Static *IPConfig
}

// StationInfo describes the current association.
type StationInfo struct {
	SSID    string     `json:"ssid"`
	BSSID   BSSID      `json:"bssid"`
	RSSI    int        `json:"rssi"`
	Channel int        `json:"channel"`
	Address netip.Addr `json:"ip"`
}

type AccessPointConfig struct {
	SSID       string `json:"ssid"`
	Passphrase string `json:"pass"`
	Channel    int    `json:"channel"`
}

// Radio is the driver capability the manager drives. Scan callbacks may be
// invoked from any goroutine; every other method is only called from the tick.
type Radio interface {
	SetPower(on bool) error

	EnableStation(enabled bool) error
	StationEnabled() bool
	Connect(req ConnectRequest) error
	Disconnect() error
	LinkStatus() LinkStatus
	Station() StationInfo

	StartScan(found func([]ScanResult), failed func(error)) error

	StartAccessPoint(cfg AccessPointConfig) error
	StopAccessPoint() error
	AccessPointEnabled() bool
	AccessPointClients() int
}
