package indicator

import (
	"context"
	"time"

	"github.com/go-errors/errors"
	"github.com/juju/clock"
	"github.com/the-lightning-land/wifid/wifi"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

type Pattern uint8

const (
	PatternOff Pattern = iota
	// PatternConnecting blinks fast while a connection round runs.
	PatternConnecting
	// PatternAccessPoint blinks slowly while only the access point is up.
	PatternAccessPoint
	PatternConnected
)

func (p Pattern) String() string {
	switch p {
	case PatternOff:
		return "off"
	case PatternConnecting:
		return "connecting"
	case PatternAccessPoint:
		return "access point"
	case PatternConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// timing returns how long the led stays on and off. A zero off time means
// solid, a zero on time means dark.
func (p Pattern) timing() (time.Duration, time.Duration) {
	switch p {
	case PatternConnecting:
		return 100 * time.Millisecond, 100 * time.Millisecond
	case PatternAccessPoint:
		return 500 * time.Millisecond, 1500 * time.Millisecond
	case PatternConnected:
		return time.Second, 0
	default:
		return 0, time.Second
	}
}

type output interface {
	Out(l gpio.Level) error
}

type Config struct {
	// Pin is the gpio name as known to periph, e.g. GPIO17.
	Pin    string
	Clock  clock.Clock
	Logger Logger
}

// Indicator shows the connection state on a single led.
type Indicator struct {
	pin   output
	clock clock.Clock
	log   Logger

	pattern    Pattern
	lit        bool
	connected  bool
	connecting bool
	mode       wifi.Mode
}

// NewGpio drives a gpio pin through periph.
func NewGpio(config *Config) (*Indicator, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Errorf("could not initialize periph: %v", err)
	}

	pin := gpioreg.ByName(config.Pin)
	if pin == nil {
		return nil, errors.Errorf("could not find pin %v", config.Pin)
	}

	return newIndicator(pin, config), nil
}

// NewMock only logs pattern changes.
func NewMock(config *Config) *Indicator {
	return newIndicator(nopOutput{}, config)
}

type nopOutput struct{}

func (nopOutput) Out(gpio.Level) error {
	return nil
}

func newIndicator(pin output, config *Config) *Indicator {
	i := &Indicator{
		pin:   pin,
		clock: config.Clock,
		log:   config.Logger,
	}

	if i.log == nil {
		i.log = noopLogger{}
	}

	if i.clock == nil {
		i.clock = clock.WallClock
	}

	return i
}

func (i *Indicator) Pattern() Pattern {
	return i.pattern
}

// Observe updates the pattern from a manager event.
func (i *Indicator) Observe(event wifi.Event) {
	switch event.Kind {
	case wifi.EventMode:
		i.mode = event.Mode
	case wifi.EventStationInit, wifi.EventStationScan, wifi.EventStationConnecting:
		i.connecting = true
	case wifi.EventStationConnected:
		i.connected = true
		i.connecting = false
	case wifi.EventStationTimeout:
		i.connecting = false
	case wifi.EventInitial, wifi.EventStationDisconnected, wifi.EventStationReconnect:
		i.connected = false
		i.connecting = false
	}

	pattern := i.derive()
	if pattern != i.pattern {
		i.log.Debugf("Led %v -> %v", i.pattern, pattern)
		i.pattern = pattern
	}
}

func (i *Indicator) derive() Pattern {
	switch {
	case i.connected:
		return PatternConnected
	case i.connecting:
		return PatternConnecting
	case i.mode.AccessPoint():
		return PatternAccessPoint
	default:
		return PatternOff
	}
}

func (i *Indicator) set(lit bool) {
	if err := i.pin.Out(gpio.Level(lit)); err != nil {
		i.log.Warnf("Could not set led: %v", err)
		return
	}

	i.lit = lit
}

// step sets the led for the current pattern and returns how long to keep it.
func (i *Indicator) step() time.Duration {
	on, off := i.pattern.timing()

	switch {
	case off == 0:
		i.set(true)
		return on
	case on == 0:
		i.set(false)
		return off
	case i.lit:
		i.set(false)
		return off
	default:
		i.set(true)
		return on
	}
}

// Run drives the led until ctx is done and switches it off on return.
func (i *Indicator) Run(ctx context.Context, events <-chan wifi.Event) error {
	defer i.set(false)

	next := i.clock.After(i.step())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}

			previous := i.pattern
			i.Observe(event)

			if i.pattern != previous {
				next = i.clock.After(i.step())
			}

		case <-next:
			next = i.clock.After(i.step())
		}
	}
}
