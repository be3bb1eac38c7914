package main

import (
	"time"

	"github.com/jessevdk/go-flags"
)

type wpaConfig struct {
	Interface   string `long:"interface" description:"Station interface managed by wpa_supplicant" default:"wlan0"`
	APInterface string `long:"apinterface" description:"Interface the fallback access point runs on" default:"uap0"`
	ResolvConf  string `long:"resolvconf" description:"Resolver file written for networks with a static address" default:"/etc/resolv.conf"`
}

type apiConfig struct {
	Listen         string `long:"listen" description:"Address of the admin api" default:":9000"`
	MaxConnections int    `long:"maxconnections" description:"Concurrent api connections" default:"16"`
	CaptiveHost    string `long:"captivehost" description:"Host clients of the access point are redirected to"`
}

type captiveConfig struct {
	Listen  string `long:"listen" description:"Udp address of the captive portal dns server, empty disables it" default:":53"`
	Address string `long:"address" description:"Address every query resolves to while the access point is up" default:"192.168.4.1"`
	TTL     uint32 `long:"ttl" description:"Ttl of captive answers in seconds" default:"60"`
}

type garpConfig struct {
	Interval time.Duration `long:"interval" description:"Gratuitous arp interval while connected, 0 disables it" default:"0s"`
}

type mqttConfig struct {
	Broker   string        `long:"broker" description:"host:port of the MQTT broker receiving wifi events, empty disables telemetry"`
	Topic    string        `long:"topic" description:"Topic wifi events are published to" default:"wifid/events"`
	ClientID string        `long:"clientid" description:"MQTT client id" default:"wifid"`
	Timeout  time.Duration `long:"timeout" description:"Broker connect and publish timeout" default:"10s"`
}

type ledConfig struct {
	Pin string `long:"pin" description:"Gpio of the status led, e.g. GPIO17, empty disables it"`
}

type pairingConfig struct {
	Adapter   string `long:"adapter" description:"Bluetooth adapter used for pairing, empty disables it"`
	LocalName string `long:"name" description:"Name advertised to phones" default:"wifid"`
}

type torConfig struct {
	Enabled bool   `long:"enabled" description:"Publish the admin api as an onion service"`
	Path    string `long:"path" description:"Path to the tor executable" default:"tor"`
}

type profilingConfig struct {
	Listen string `long:"listen" description:"Address of the profiling server, empty disables it"`
}

type config struct {
	ShowVersion bool          `short:"v" long:"version" description:"Display version information and exit"`
	Debug       bool          `long:"debug" description:"Start in debug mode"`
	DataDir     string        `long:"datadir" description:"Directory of wifi.db" default:"/var/lib/wifid"`
	SeedFile    string        `long:"seed" description:"Ini file with settings and networks, imported on start and whenever it changes"`
	Net         string        `long:"net" description:"Radio driving the connection" choice:"wpa" choice:"mock" default:"wpa"`
	Tick        time.Duration `long:"tick" description:"Interval of the connection manager loop" default:"50ms"`
	Scan        bool          `long:"scan" description:"Print one scan report and exit"`

	Wpa       wpaConfig       `group:"wpa_supplicant" namespace:"wpa"`
	Api       apiConfig       `group:"Admin api" namespace:"api"`
	Captive   captiveConfig   `group:"Captive portal" namespace:"captive"`
	Garp      garpConfig      `group:"Gratuitous arp" namespace:"garp"`
	Mqtt      mqttConfig      `group:"Telemetry" namespace:"mqtt"`
	Led       ledConfig       `group:"Status led" namespace:"led"`
	Pairing   pairingConfig   `group:"Bluetooth pairing" namespace:"pairing"`
	Tor       torConfig       `group:"Tor" namespace:"tor"`
	Profiling profilingConfig `group:"Profiling" namespace:"profiling"`
}

// loadConfig parses the command line on top of the defaults.
func loadConfig() (*config, error) {
	cfg := &config{}

	if _, err := flags.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
