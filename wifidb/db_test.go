package wifidb

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/wifi"
)

func openTestDB(t *testing.T) *DB {
	db, err := Open(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestEmptyDatabase(t *testing.T) {
	db := openTestDB(t)

	networks, err := db.GetNetworks()
	require.NoError(t, err)
	require.True(t, networks.Empty())

	settings, err := db.GetSettings()
	require.NoError(t, err)
	require.Equal(t, wifi.DefaultSettings(), settings)
}

func TestNetworksRoundTrip(t *testing.T) {
	db := openTestDB(t)

	catalog := wifi.Catalog{
		wifi.NewNetwork("Office", "correct horse"),
		{
			SSID: "Lab",
			Static: &wifi.StaticAddress{
				Address: "192.168.1.20",
				Gateway: "192.168.1.1",
				Netmask: "255.255.255.0",
			},
		},
	}

	require.NoError(t, db.SetNetworks(catalog))

	stored, err := db.GetNetworks()
	require.NoError(t, err)
	require.Equal(t, catalog, stored)
}

func TestSetNetworksRejectsInvalid(t *testing.T) {
	db := openTestDB(t)

	err := db.SetNetworks(wifi.Catalog{wifi.NewNetwork("Office", "short")})
	require.Error(t, err)

	stored, err := db.GetNetworks()
	require.NoError(t, err)
	require.True(t, stored.Empty())
}

func TestUpsertNetwork(t *testing.T) {
	db := openTestDB(t)

	catalog, err := db.UpsertNetwork(wifi.NewNetwork("Office", "correct horse"))
	require.NoError(t, err)
	require.Len(t, catalog, 1)

	catalog, err = db.UpsertNetwork(wifi.NewNetwork("Office", "battery staple"))
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	require.Equal(t, "battery staple", catalog[0].Passphrase)

	for _, ssid := range []string{"A", "B", "C", "D"} {
		_, err = db.UpsertNetwork(wifi.NewNetwork(ssid, ""))
		require.NoError(t, err)
	}

	catalog, err = db.UpsertNetwork(wifi.NewNetwork("E", ""))
	require.NoError(t, err)
	require.Len(t, catalog, wifi.MaxNetworks)
	require.Equal(t, "E", catalog[0].SSID)

	stored, err := db.GetNetworks()
	require.NoError(t, err)
	require.Equal(t, catalog, stored)
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	settings := wifi.DefaultSettings()
	settings.RetryBudget = 4
	settings.ConnectTimeout = 20 * time.Second
	settings.Fallback = wifi.FallbackAlwaysOn

	require.NoError(t, db.SetSettings(settings))

	stored, err := db.GetSettings()
	require.NoError(t, err)
	require.Equal(t, settings, stored)
}

func TestSetSettingsRejectsInvalid(t *testing.T) {
	db := openTestDB(t)

	settings := wifi.DefaultSettings()
	settings.RetryBudget = -1

	require.Error(t, db.SetSettings(settings))
}

func TestOnionKey(t *testing.T) {
	db := openTestDB(t)

	key, err := db.GetOnionKey()
	require.NoError(t, err)
	assert.Nil(t, key)

	_, generated, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	require.NoError(t, db.SetOnionKey(generated))

	key, err = db.GetOnionKey()
	require.NoError(t, err)
	assert.Equal(t, generated, key)
}
