package wifi

import "github.com/go-errors/errors"

type EventKind uint8

const (
	EventInitial EventKind = iota
	EventMode
	EventStationInit
	EventStationScan
	EventStationConnecting
	EventStationConnected
	EventStationTimeout
	EventStationDisconnected
	EventStationReconnect
)

func (k EventKind) String() string {
	switch k {
	case EventInitial:
		return "Initial"
	case EventMode:
		return "Mode"
	case EventStationInit:
		return "StationInit"
	case EventStationScan:
		return "StationScan"
	case EventStationConnecting:
		return "StationConnecting"
	case EventStationConnected:
		return "StationConnected"
	case EventStationTimeout:
		return "StationTimeout"
	case EventStationDisconnected:
		return "StationDisconnected"
	case EventStationReconnect:
		return "StationReconnect"
	default:
		return "Unknown"
	}
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	for candidate := EventInitial; candidate <= EventStationReconnect; candidate++ {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}

	return errors.Errorf("unknown event %q", text)
}

// Mode is the bitmask of active radio roles.
type Mode uint8

const (
	ModeStation Mode = 1 << iota
	ModeAccessPoint
)

func (m Mode) Station() bool {
	return m&ModeStation != 0
}

func (m Mode) AccessPoint() bool {
	return m&ModeAccessPoint != 0
}

func (m Mode) String() string {
	switch m {
	case 0:
		return "off"
	case ModeStation:
		return "sta"
	case ModeAccessPoint:
		return "ap"
	case ModeStation | ModeAccessPoint:
		return "sta+ap"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	for _, candidate := range []Mode{0, ModeStation, ModeAccessPoint, ModeStation | ModeAccessPoint} {
		if candidate.String() == string(text) {
			*m = candidate
			return nil
		}
	}

	return errors.Errorf("unknown mode %q", text)
}

type Event struct {
	Kind EventKind `json:"kind"`

	// Network is set on StationConnecting and StationConnected.
	Network string `json:"network,omitempty"`

	// Station is set on StationConnected.
	Station *StationInfo `json:"station,omitempty"`

	// Mode is set on Mode events.
	Mode Mode `json:"mode,omitempty"`
}

func (e Event) String() string {
	switch {
	case e.Kind == EventMode:
		return e.Kind.String() + "(" + e.Mode.String() + ")"
	case e.Network != "":
		return e.Kind.String() + "(" + e.Network + ")"
	default:
		return e.Kind.String()
	}
}

// Bus delivers events synchronously to every subscriber, in subscription order.
type Bus struct {
	subscribers []func(Event)
	depth       int
}

// Subscribe adds a callback for the lifetime of the bus.
func (b *Bus) Subscribe(fn func(Event)) {
	b.subscribers = append(b.subscribers, fn)
}

func (b *Bus) Publish(event Event) {
	b.depth++
	defer func() {
		b.depth--
	}()

	for _, fn := range b.subscribers {
		fn(event)
	}
}

// Publishing reports whether a publish call is on the stack.
func (b *Bus) Publishing() bool {
	return b.depth > 0
}
