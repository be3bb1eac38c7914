package garp

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/go-errors/errors"
	"github.com/juju/clock"
	"github.com/the-lightning-land/wifid/wifi"
)

type Config struct {
	Interface string
	// Interval between announcements. Zero disables the announcer.
	Interval time.Duration
	Clock    clock.Clock
	Logger   Logger
}

// Announcer repeats a gratuitous ARP for the station address while the
// station is connected, so access points and peers keep their caches fresh.
type Announcer struct {
	ifname   string
	interval time.Duration
	clock    clock.Clock
	log      Logger

	hardwareAddr func(ifname string) (net.HardwareAddr, error)
	send         func(ifname string, frame []byte) error

	frame []byte
}

func New(config *Config) *Announcer {
	a := &Announcer{
		ifname:       config.Interface,
		interval:     config.Interval,
		clock:        config.Clock,
		log:          config.Logger,
		hardwareAddr: interfaceHardwareAddr,
		send:         sendFrame,
	}

	if a.log == nil {
		a.log = noopLogger{}
	}

	if a.clock == nil {
		a.clock = clock.WallClock
	}

	return a
}

func interfaceHardwareAddr(ifname string) (net.HardwareAddr, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, err
	}

	return iface.HardwareAddr, nil
}

// Active reports whether an address is being announced.
func (a *Announcer) Active() bool {
	return a.frame != nil
}

// Observe starts announcing on connect and stops on disconnect.
func (a *Announcer) Observe(event wifi.Event) {
	switch event.Kind {
	case wifi.EventStationConnected:
		if event.Station == nil {
			return
		}

		if err := a.start(event.Station.Address); err != nil {
			a.log.Warnf("Could not announce %v: %v", event.Station.Address, err)
		}
	case wifi.EventInitial, wifi.EventStationDisconnected:
		a.frame = nil
	}
}

func (a *Announcer) start(address netip.Addr) error {
	hw, err := a.hardwareAddr(a.ifname)
	if err != nil {
		return errors.Errorf("could not read hardware address of %v: %v", a.ifname, err)
	}

	frame, err := Frame(hw, address)
	if err != nil {
		return err
	}

	a.frame = frame
	a.log.Infof("Announcing %v at %v every %v", address, hw, a.interval)

	a.announce()

	return nil
}

func (a *Announcer) announce() {
	if a.frame == nil {
		return
	}

	if err := a.send(a.ifname, a.frame); err != nil {
		a.log.Warnf("Could not send gratuitous arp: %v", err)
	}
}

// Run feeds events to Observe and announces on every interval until ctx is
// done.
func (a *Announcer) Run(ctx context.Context, events <-chan wifi.Event) error {
	if a.interval <= 0 {
		a.log.Infof("Gratuitous arp disabled")
	}

	for {
		var tick <-chan time.Time
		if a.interval > 0 && a.frame != nil {
			tick = a.clock.After(a.interval)
		}

		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}

			if a.interval > 0 {
				a.Observe(event)
			}

		case <-tick:
			a.announce()
		}
	}
}
