package wifidb

import (
	"fmt"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/wifi"
	"gopkg.in/ini.v1"
)

// Seed is the content of a provisioning file.
type Seed struct {
	Settings wifi.Settings
	Networks []wifi.Network
}

// LoadIni reads a provisioning file. Values missing from the file keep the
// given defaults.
func LoadIni(filename string, defaults wifi.Settings) (*Seed, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		return nil, errors.Errorf("could not load %v: %v", filename, err)
	}

	return parseIni(cfg, defaults)
}

// ParseIni is LoadIni for in-memory content.
func ParseIni(data []byte, defaults wifi.Settings) (*Seed, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, data)
	if err != nil {
		return nil, errors.Errorf("could not parse provisioning data: %v", err)
	}

	return parseIni(cfg, defaults)
}

func parseIni(cfg *ini.File, defaults wifi.Settings) (*Seed, error) {
	s := defaults

	section := cfg.Section("wifi")
	s.ScanBeforeConnect = section.Key("scan_before_connect").MustBool(s.ScanBeforeConnect)
	s.ScanPeriodic = section.Key("scan_periodic").MustBool(s.ScanPeriodic)
	s.ScanTimeout = section.Key("scan_timeout").MustDuration(s.ScanTimeout)
	s.ConnectTimeout = section.Key("connect_timeout").MustDuration(s.ConnectTimeout)
	s.RetryBudget = section.Key("retry_budget").MustInt(s.RetryBudget)
	s.RetryInterval = section.Key("retry_interval").MustDuration(s.RetryInterval)
	s.ReconnectInterval = section.Key("reconnect_interval").MustDuration(s.ReconnectInterval)
	s.MaxRounds = section.Key("max_rounds").MustInt(s.MaxRounds)
	s.RSSIThreshold = section.Key("rssi_threshold").MustInt(s.RSSIThreshold)
	s.RSSIChecks = section.Key("rssi_checks").MustInt(s.RSSIChecks)
	s.RSSICheckInterval = section.Key("rssi_check_interval").MustDuration(s.RSSICheckInterval)
	s.FallbackTimeout = section.Key("fallback_timeout").MustDuration(s.FallbackTimeout)

	if section.HasKey("fallback") {
		mode, err := wifi.ParseFallbackMode(section.Key("fallback").String())
		if err != nil {
			return nil, err
		}
		s.Fallback = mode
	}

	ap := cfg.Section("ap")
	s.AccessPoint.SSID = ap.Key("ssid").MustString(s.AccessPoint.SSID)
	s.AccessPoint.Passphrase = ap.Key("pass").MustString(s.AccessPoint.Passphrase)
	s.AccessPoint.Channel = ap.Key("channel").MustInt(s.AccessPoint.Channel)

	if err := s.Validate(); err != nil {
		return nil, errors.Errorf("invalid settings: %v", err)
	}

	seed := &Seed{Settings: s}

	for i := 1; i <= wifi.MaxNetworks; i++ {
		section, err := cfg.GetSection(fmt.Sprintf("network%d", i))
		if err != nil {
			break
		}

		network := wifi.NewNetwork(section.Key("ssid").String(), section.Key("pass").String())
		if network.SSID == "" {
			break
		}

		if section.HasKey("ip") {
			network.Static = &wifi.StaticAddress{
				Address: section.Key("ip").String(),
				Gateway: section.Key("gw").String(),
				Netmask: section.Key("mask").String(),
				DNS:     section.Key("dns").String(),
			}
		}

		if err := network.Validate(); err != nil {
			return nil, errors.Errorf("invalid network%d: %v", i, err)
		}

		seed.Networks = append(seed.Networks, network)
	}

	return seed, nil
}
