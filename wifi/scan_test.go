package wifi

import (
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanProbe struct {
	found  [][]ScanResult
	failed []ScanError
}

func (p *scanProbe) start(s *Scanner, now time.Time) error {
	return s.Start(now, func(results []ScanResult) {
		p.found = append(p.found, results)
	}, func(err ScanError) {
		p.failed = append(p.failed, err)
	})
}

func TestScannerAllowsOneScan(t *testing.T) {
	radio := newFakeRadio()
	scanner := NewScanner(radio, nil, time.Second)
	now := time.Now()

	first := &scanProbe{}
	second := &scanProbe{}

	require.NoError(t, first.start(scanner, now))
	require.Equal(t, ErrAlreadyScanning, second.start(scanner, now))
	require.True(t, scanner.Scanning())
	require.Equal(t, 1, radio.scans)

	radio.scanFound([]ScanResult{{SSID: "Office", RSSI: -40}})
	require.True(t, scanner.Poll(now))

	assert.Len(t, first.found, 1)
	assert.Empty(t, second.found)
	assert.False(t, scanner.Scanning())
}

func TestScannerDistinguishesFailures(t *testing.T) {
	radio := newFakeRadio()
	scanner := NewScanner(radio, nil, time.Second)
	now := time.Now()
	probe := &scanProbe{}

	require.NoError(t, probe.start(scanner, now))
	radio.scanFound(nil)
	require.True(t, scanner.Poll(now))

	require.NoError(t, probe.start(scanner, now))
	radio.scanFailed(errors.New("driver"))
	require.True(t, scanner.Poll(now))

	assert.Equal(t, []ScanError{ErrNoNetworks, ErrScanSystem}, probe.failed)
	assert.Empty(t, probe.found)
}

func TestScannerTimesOut(t *testing.T) {
	radio := newFakeRadio()
	scanner := NewScanner(radio, nil, time.Second)
	now := time.Now()
	probe := &scanProbe{}

	require.NoError(t, probe.start(scanner, now))
	require.False(t, scanner.Poll(now.Add(500*time.Millisecond)))
	require.True(t, scanner.Poll(now.Add(time.Second)))
	require.Equal(t, []ScanError{ErrScanSystem}, probe.failed)

	late := radio.scanFound

	require.NoError(t, probe.start(scanner, now.Add(2*time.Second)))
	late([]ScanResult{{SSID: "Stale", RSSI: -40}})
	require.False(t, scanner.Poll(now.Add(2*time.Second)))

	radio.scanFound([]ScanResult{{SSID: "Fresh", RSSI: -40}})
	require.True(t, scanner.Poll(now.Add(2*time.Second)))

	require.Len(t, probe.found, 1)
	assert.Equal(t, "Fresh", probe.found[0][0].SSID)
}

func TestScannerStartError(t *testing.T) {
	radio := newFakeRadio()
	radio.scanErr = errors.New("busy")
	scanner := NewScanner(radio, nil, time.Second)

	err := scanner.Start(time.Now(), nil, nil)
	assert.Equal(t, ErrScanSystem, err)
	assert.False(t, scanner.Scanning())
}
