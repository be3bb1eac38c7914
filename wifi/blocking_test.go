package wifi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// asyncRadio completes scans from another goroutine.
type asyncRadio struct {
	*fakeRadio
	results []ScanResult
}

func (r *asyncRadio) StartScan(found func([]ScanResult), failed func(error)) error {
	go func() {
		time.Sleep(5 * time.Millisecond)
		found(r.results)
	}()
	return nil
}

func TestScanAndWait(t *testing.T) {
	radio := &asyncRadio{
		fakeRadio: newFakeRadio(),
		results: []ScanResult{
			{SSID: "Weak", RSSI: -80},
			{SSID: "Strong", RSSI: -40},
			{SSID: "Weak", RSSI: -60},
		},
	}

	results, err := ScanAndWait(context.Background(), radio, time.Second, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Strong", results[0].SSID)
	assert.Equal(t, -60, results[1].RSSI)
}

func TestScanAndWaitCancelled(t *testing.T) {
	radio := newFakeRadio()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ScanAndWait(ctx, radio, time.Minute, time.Millisecond)
	assert.Error(t, err)
}

func TestDisconnectAndWait(t *testing.T) {
	radio := newFakeRadio()
	radio.link = LinkConnected

	require.NoError(t, DisconnectAndWait(context.Background(), radio, time.Millisecond))
	assert.Equal(t, LinkIdle, radio.link)
	assert.Equal(t, 1, radio.disconnects)
}
