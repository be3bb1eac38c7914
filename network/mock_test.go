package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/wifi"
)

func newMock() *MockRadio {
	return NewMockRadio(&MockConfig{
		AccessPoints: DefaultMockAccessPoints(),
	})
}

func TestMockConnect(t *testing.T) {
	radio := newMock()

	require.NoError(t, radio.Connect(wifi.ConnectRequest{SSID: "Home", Passphrase: "battery staple"}))

	require.Eventually(t, func() bool {
		return radio.LinkStatus() == wifi.LinkConnected
	}, time.Second, time.Millisecond)

	info := radio.Station()
	assert.Equal(t, "Home", info.SSID)
	assert.Equal(t, 6, info.Channel)
	assert.True(t, info.Address.IsValid())
}

func TestMockConnectFailures(t *testing.T) {
	radio := newMock()

	require.NoError(t, radio.Connect(wifi.ConnectRequest{SSID: "Office", Passphrase: "wrong password"}))
	require.Eventually(t, func() bool {
		return radio.LinkStatus() == wifi.LinkWrongPassword
	}, time.Second, time.Millisecond)

	require.NoError(t, radio.Connect(wifi.ConnectRequest{SSID: "Nowhere"}))
	require.Eventually(t, func() bool {
		return radio.LinkStatus() == wifi.LinkNoNetwork
	}, time.Second, time.Millisecond)
}

func TestMockConnectPinnedBSSID(t *testing.T) {
	radio := newMock()
	weak := wifi.BSSID{0x02, 0, 0, 0, 0, 0x02}

	require.NoError(t, radio.Connect(wifi.ConnectRequest{SSID: "Office", Passphrase: "correct horse", BSSID: weak}))
	require.Eventually(t, func() bool {
		return radio.LinkStatus() == wifi.LinkConnected
	}, time.Second, time.Millisecond)

	assert.Equal(t, weak, radio.Station().BSSID)
	assert.Equal(t, -78, radio.Station().RSSI)
}

func TestMockScan(t *testing.T) {
	radio := newMock()
	found := make(chan []wifi.ScanResult, 1)

	require.NoError(t, radio.StartScan(func(results []wifi.ScanResult) {
		found <- results
	}, nil))

	select {
	case results := <-found:
		assert.Len(t, results, 4)
	case <-time.After(time.Second):
		t.Fatal("scan did not complete")
	}
}

func TestMockWithManager(t *testing.T) {
	radio := newMock()

	settings := wifi.DefaultSettings()
	settings.RetryInterval = 5 * time.Millisecond

	m, err := wifi.New(&wifi.Config{
		Radio:    radio,
		Settings: settings,
		Catalog: wifi.Catalog{
			wifi.NewNetwork("Office", "wrong password"),
			wifi.NewNetwork("Home", "battery staple"),
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		m.Tick()
		return m.Connected()
	}, 5*time.Second, time.Millisecond)

	assert.Equal(t, "Home", radio.Station().SSID)

	var ssids []string
	for _, req := range radio.Connects() {
		ssids = append(ssids, req.SSID)
	}
	assert.Equal(t, []string{"Office", "Office", "Office", "Home"}, ssids)

	radio.Drop()
	require.Eventually(t, func() bool {
		m.Tick()
		return !m.Connected()
	}, time.Second, time.Millisecond)
}
