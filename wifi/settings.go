package wifi

import (
	"time"

	"github.com/go-errors/errors"
)

// FallbackMode decides when the configuration access point runs.
type FallbackMode uint8

const (
	FallbackDisabled FallbackMode = iota
	FallbackAlwaysOn
	FallbackOnDemand
)

func (m FallbackMode) String() string {
	switch m {
	case FallbackDisabled:
		return "disabled"
	case FallbackAlwaysOn:
		return "always-on"
	case FallbackOnDemand:
		return "on-demand"
	default:
		return "unknown"
	}
}

func ParseFallbackMode(s string) (FallbackMode, error) {
	switch s {
	case "disabled", "off":
		return FallbackDisabled, nil
	case "always-on", "on":
		return FallbackAlwaysOn, nil
	case "on-demand", "fallback", "":
		return FallbackOnDemand, nil
	default:
		return FallbackDisabled, errors.Errorf("unknown fallback mode %q", s)
	}
}

func (m FallbackMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *FallbackMode) UnmarshalText(text []byte) error {
	mode, err := ParseFallbackMode(string(text))
	if err != nil {
		return err
	}

	*m = mode

	return nil
}

// Settings are the tunables of the connection manager.
type Settings struct {
	ScanBeforeConnect bool          `json:"scanBeforeConnect"`
	ScanPeriodic      bool          `json:"scanPeriodic"`
	ScanTimeout       time.Duration `json:"scanTimeout"`

	ConnectTimeout time.Duration `json:"connectTimeout"`

	// RetryBudget is the number of additional attempts on one candidate
	// before moving to the next.
	RetryBudget   int           `json:"retryBudget"`
	RetryInterval time.Duration `json:"retryInterval"`

	// ReconnectInterval is the backoff after the whole list failed. Zero
	// means RetryInterval times the retry budget.
	ReconnectInterval time.Duration `json:"reconnectInterval"`

	// MaxRounds stops re-arming the reconnect backoff after that many
	// consecutive failed rounds. Zero retries forever.
	MaxRounds int `json:"maxRounds"`

	RSSIThreshold     int           `json:"rssiThreshold"`
	RSSIChecks        int           `json:"rssiChecks"`
	RSSICheckInterval time.Duration `json:"rssiCheckInterval"`

	Fallback        FallbackMode      `json:"fallback"`
	FallbackTimeout time.Duration     `json:"fallbackTimeout"`
	AccessPoint     AccessPointConfig `json:"ap"`
}

func DefaultSettings() Settings {
	return Settings{
		ScanBeforeConnect: true,
		ScanPeriodic:      false,
		ScanTimeout:       10 * time.Second,
		ConnectTimeout:    60 * time.Second,
		RetryBudget:       2,
		RetryInterval:     5 * time.Second,
		ReconnectInterval: 180 * time.Second,
		MaxRounds:         0,
		RSSIThreshold:     -73,
		RSSIChecks:        3,
		RSSICheckInterval: 5 * time.Second,
		Fallback:          FallbackOnDemand,
		FallbackTimeout:   60 * time.Second,
		AccessPoint: AccessPointConfig{
			SSID:    "wifid",
			Channel: 6,
		},
	}
}

// reconnectInterval is the exhausted-list backoff.
func (s Settings) reconnectInterval() time.Duration {
	if s.ReconnectInterval > 0 {
		return s.ReconnectInterval
	}

	budget := s.RetryBudget
	if budget < 1 {
		budget = 1
	}

	return s.RetryInterval * time.Duration(budget)
}

func (s Settings) Validate() error {
	if s.RetryBudget < 0 {
		return errors.Errorf("retry budget must not be negative, got %d", s.RetryBudget)
	}

	if s.MaxRounds < 0 {
		return errors.Errorf("max rounds must not be negative, got %d", s.MaxRounds)
	}

	if s.ConnectTimeout <= 0 {
		return errors.New("connect timeout must be positive")
	}

	if s.ScanTimeout <= 0 {
		return errors.New("scan timeout must be positive")
	}

	if s.RSSIChecks < 0 {
		return errors.Errorf("rssi checks must not be negative, got %d", s.RSSIChecks)
	}

	if s.Fallback != FallbackDisabled {
		ap := Network{SSID: s.AccessPoint.SSID, Passphrase: s.AccessPoint.Passphrase}
		if err := ap.Validate(); err != nil {
			return errors.Errorf("invalid access point: %v", err)
		}
	}

	return nil
}
