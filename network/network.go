package network

import (
	"github.com/the-lightning-land/wifid/network/wpa"
	"github.com/the-lightning-land/wifid/wifi"
)

// Radio is a wifi.Radio with a lifecycle.
type Radio interface {
	wifi.Radio
	Start() error
	Stop() error
}

// ChannelFromFrequency maps a center frequency in MHz to its channel number.
// It returns 0 for frequencies outside the 2.4 and 5 GHz bands.
func ChannelFromFrequency(freq int) int {
	switch {
	case freq == 2484:
		return 14
	case freq >= 2412 && freq < 2484:
		return (freq - 2407) / 5
	case freq >= 5160 && freq <= 5885:
		return (freq - 5000) / 5
	default:
		return 0
	}
}

// FrequencyFromChannel is the inverse of ChannelFromFrequency.
func FrequencyFromChannel(channel int) int {
	switch {
	case channel == 14:
		return 2484
	case channel >= 1 && channel <= 13:
		return 2407 + channel*5
	case channel >= 32 && channel <= 177:
		return 5000 + channel*5
	default:
		return 0
	}
}

func securityOf(bss *wpa.Bss) wifi.Security {
	for _, suite := range bss.RsnKeyMgmt {
		if suite == "sae" || suite == "ft-sae" {
			return wifi.SecurityWPA3
		}
	}

	switch {
	case len(bss.RsnKeyMgmt) > 0:
		return wifi.SecurityWPA2
	case len(bss.WpaKeyMgmt) > 0:
		return wifi.SecurityWPA
	case bss.Privacy:
		return wifi.SecurityWEP
	default:
		return wifi.SecurityOpen
	}
}

func scanResultOf(bss *wpa.Bss) wifi.ScanResult {
	return wifi.ScanResult{
		SSID:     bss.Ssid,
		BSSID:    wifi.BSSID(bss.Bssid),
		RSSI:     bss.Signal,
		Channel:  ChannelFromFrequency(bss.Frequency),
		Security: securityOf(bss),
	}
}
