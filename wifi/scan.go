package wifi

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-errors/errors"
)

type Security uint8

const (
	SecurityOpen Security = iota
	SecurityWEP
	SecurityWPA
	SecurityWPA2
	SecurityWPA3
)

func (s Security) String() string {
	switch s {
	case SecurityOpen:
		return "OPEN"
	case SecurityWEP:
		return "WEP"
	case SecurityWPA:
		return "WPA"
	case SecurityWPA2:
		return "WPA2"
	case SecurityWPA3:
		return "WPA3"
	default:
		return "INVALID SECURITY"
	}
}

// ScanResult is one access point seen during a scan.
type ScanResult struct {
	SSID     string   `json:"ssid"`
	BSSID    BSSID    `json:"bssid"`
	RSSI     int      `json:"rssi"`
	Channel  int      `json:"channel"`
	Security Security `json:"security"`
}

func (s Security) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Security) UnmarshalText(text []byte) error {
	for candidate := SecurityOpen; candidate <= SecurityWPA3; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}

	return errors.Errorf("unknown security %q", text)
}

func (r ScanResult) Open() bool {
	return r.Security == SecurityOpen
}

func (r ScanResult) String() string {
	sec := "NO "
	if !r.Open() {
		sec = "YES"
	}

	return fmt.Sprintf("BSSID: %s SEC: %s RSSI: %3d CH: %2d SSID: %s",
		r.BSSID, sec, r.RSSI, r.Channel, r.SSID)
}

// ScanError is reported to the caller of Scanner.Start.
type ScanError uint8

const (
	ErrAlreadyScanning ScanError = iota + 1
	ErrScanSystem
	ErrNoNetworks
)

func (e ScanError) Error() string {
	switch e {
	case ErrAlreadyScanning:
		return "scan already in progress"
	case ErrScanSystem:
		return "scan failed"
	case ErrNoNetworks:
		return "no networks found"
	default:
		return "unknown scan error"
	}
}

type scanOutcome struct {
	id      uint32
	results []ScanResult
	err     error
}

// Scanner allows at most one outstanding scan. The radio delivers results from
// its own context; they are recorded and handed to the caller from Poll, which
// runs inside the tick.
type Scanner struct {
	radio   Radio
	log     Logger
	timeout time.Duration

	id       atomic.Uint32
	pending  bool
	deadline oneShot
	outcome  chan scanOutcome
	found    func([]ScanResult)
	failed   func(ScanError)
}

func NewScanner(radio Radio, logger Logger, timeout time.Duration) *Scanner {
	if logger == nil {
		logger = noopLogger{}
	}

	return &Scanner{
		radio:   radio,
		log:     logger,
		timeout: timeout,
		outcome: make(chan scanOutcome, 1),
	}
}

func (s *Scanner) Scanning() bool {
	return s.pending
}

// Start begins a scan. A second call while one is pending fails with
// ErrAlreadyScanning and leaves the first one running.
func (s *Scanner) Start(now time.Time, found func([]ScanResult), failed func(ScanError)) error {
	if s.pending {
		return ErrAlreadyScanning
	}

	// drop whatever a superseded scan left behind
	select {
	case <-s.outcome:
	default:
	}

	id := s.id.Add(1)

	err := s.radio.StartScan(func(results []ScanResult) {
		s.record(scanOutcome{id: id, results: results})
	}, func(err error) {
		s.record(scanOutcome{id: id, err: err})
	})
	if err != nil {
		s.log.Warnf("Could not start scan: %v", err)
		return ErrScanSystem
	}

	s.pending = true
	s.found = found
	s.failed = failed
	s.deadline.arm(now, s.timeout)

	s.log.Debugf("Started scan %d", id)

	return nil
}

// record is called by the radio, possibly from another goroutine.
func (s *Scanner) record(outcome scanOutcome) {
	if outcome.id != s.id.Load() {
		return
	}

	select {
	case s.outcome <- outcome:
	default:
	}
}

// Poll completes a pending scan. It returns true when the scan finished during
// this call, whatever its result.
func (s *Scanner) Poll(now time.Time) bool {
	if !s.pending {
		return false
	}

	select {
	case outcome := <-s.outcome:
		if outcome.id != s.id.Load() {
			s.log.Debugf("Discarding results of superseded scan %d", outcome.id)
			return false
		}

		s.finish()

		switch {
		case outcome.err != nil:
			s.log.Warnf("Scan failed: %v", outcome.err)
			s.fail(ErrScanSystem)
		case len(outcome.results) == 0:
			s.log.Infof("No networks found")
			s.fail(ErrNoNetworks)
		default:
			s.log.Debugf("Scan found %d networks", len(outcome.results))
			if s.found != nil {
				s.found(outcome.results)
			}
		}

		return true
	default:
	}

	if s.deadline.expired(now) {
		s.log.Warnf("Scan %d timed out", s.id.Load())
		s.finish()
		s.fail(ErrScanSystem)
		return true
	}

	return false
}

func (s *Scanner) fail(err ScanError) {
	if s.failed != nil {
		s.failed(err)
	}
}

func (s *Scanner) finish() {
	s.pending = false
	s.deadline.stop()
}
