package wifi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankerKeepsStrongestPerName(t *testing.T) {
	r := NewRanker()
	r.AddAll([]ScanResult{
		{SSID: "Office", BSSID: bssidA, RSSI: -70},
		{SSID: "Office", BSSID: bssidB, RSSI: -50},
		{SSID: "Home", RSSI: -60},
		{SSID: "Office", RSSI: -80},
		{SSID: "", RSSI: -10},
	})

	results := r.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "Office", results[0].SSID)
	assert.Equal(t, bssidB, results[0].BSSID)
	assert.Equal(t, "Home", results[1].SSID)
}

func TestRankerTieKeepsFirstSeen(t *testing.T) {
	results := Rank([]ScanResult{
		{SSID: "Office", BSSID: bssidA, RSSI: -50},
		{SSID: "Office", BSSID: bssidB, RSSI: -50},
	})

	require.Len(t, results, 1)
	assert.Equal(t, bssidA, results[0].BSSID)
}

func TestRankerStableDescending(t *testing.T) {
	results := Rank([]ScanResult{
		{SSID: "a", RSSI: -60},
		{SSID: "b", RSSI: -40},
		{SSID: "c", RSSI: -60},
		{SSID: "d", RSSI: -90},
	})

	assert.Equal(t, []string{"b", "a", "c", "d"}, []string{
		results[0].SSID, results[1].SSID, results[2].SSID, results[3].SSID,
	})
}

func TestScanResultString(t *testing.T) {
	result := ScanResult{
		SSID:     "Office",
		BSSID:    BSSID{0xaa, 0xbb, 0xcc, 0x00, 0x11, 0x22},
		RSSI:     -42,
		Channel:  6,
		Security: SecurityWPA2,
	}

	assert.Equal(t, "BSSID: aa:bb:cc:00:11:22 SEC: YES RSSI: -42 CH:  6 SSID: Office", result.String())
}
