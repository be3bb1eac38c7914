package wifidb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/wifi"
)

const seedFile = `
[wifi]
retry_budget = 1
connect_timeout = 30s
fallback = always-on

[ap]
ssid = setup
pass = setup-pass

[network1]
ssid = Office
pass = correct horse

[network2]
ssid = Lab
ip = 192.168.1.20
gw = 192.168.1.1
mask = 255.255.255.0
dns = 1.1.1.1

[network4]
ssid = Unreachable
`

func TestParseIni(t *testing.T) {
	seed, err := ParseIni([]byte(seedFile), wifi.DefaultSettings())
	require.NoError(t, err)

	require.Equal(t, 1, seed.Settings.RetryBudget)
	require.Equal(t, 30*time.Second, seed.Settings.ConnectTimeout)
	require.Equal(t, wifi.FallbackAlwaysOn, seed.Settings.Fallback)
	require.Equal(t, "setup", seed.Settings.AccessPoint.SSID)
	require.Equal(t, "setup-pass", seed.Settings.AccessPoint.Passphrase)
	require.Equal(t, 6, seed.Settings.AccessPoint.Channel)
	require.Equal(t, wifi.DefaultSettings().RetryInterval, seed.Settings.RetryInterval)

	// network3 is missing, so network4 is never read
	require.Len(t, seed.Networks, 2)
	require.Equal(t, "Office", seed.Networks[0].SSID)
	require.Equal(t, "correct horse", seed.Networks[0].Passphrase)
	require.Nil(t, seed.Networks[0].Static)
	require.Equal(t, "Lab", seed.Networks[1].SSID)
	require.Equal(t, "192.168.1.20", seed.Networks[1].Static.Address)
	require.Equal(t, "1.1.1.1", seed.Networks[1].Static.DNS)
}

func TestParseIniRejectsInvalidNetwork(t *testing.T) {
	_, err := ParseIni([]byte("[network1]\nssid = Office\npass = short\n"), wifi.DefaultSettings())
	require.Error(t, err)
}

func TestParseIniRejectsUnknownFallback(t *testing.T) {
	_, err := ParseIni([]byte("[wifi]\nfallback = sometimes\n"), wifi.DefaultSettings())
	require.Error(t, err)
}

func TestLoadIniAndImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wifi.ini")
	require.NoError(t, os.WriteFile(path, []byte(seedFile), 0600))

	seed, err := LoadIni(path, wifi.DefaultSettings())
	require.NoError(t, err)

	db := openTestDB(t)
	require.NoError(t, db.Import(seed))

	networks, err := db.GetNetworks()
	require.NoError(t, err)
	require.Len(t, networks, 2)

	settings, err := db.GetSettings()
	require.NoError(t, err)
	require.Equal(t, seed.Settings, settings)
}

func TestLoadIniMissingFile(t *testing.T) {
	_, err := LoadIni(filepath.Join(t.TempDir(), "missing.ini"), wifi.DefaultSettings())
	require.Error(t, err)
}
