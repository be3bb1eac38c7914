package connectivity

import (
	"context"
	"sync"

	"github.com/the-lightning-land/wifid/wifi"
)

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	switch s {
	case Offline:
		return "OFFLINE"
	case Online:
		return "ONLINE"
	default:
		return "INVALID STATE"
	}
}

type Reporter interface {
	CurrentState() State
	WaitForStateChange(context.Context, State) bool
}

// check EventReporter compliance to its interface during compile time
var _ Reporter = (*EventReporter)(nil)

// EventReporter derives station connectivity from manager events.
type EventReporter struct {
	mu      sync.Mutex
	state   State
	changed chan struct{}
}

func NewReporter() *EventReporter {
	return &EventReporter{
		changed: make(chan struct{}),
	}
}

// Observe is meant to be subscribed to the manager. It never blocks.
func (r *EventReporter) Observe(event wifi.Event) {
	switch event.Kind {
	case wifi.EventStationConnected:
		r.set(Online)
	case wifi.EventInitial, wifi.EventStationDisconnected:
		r.set(Offline)
	}
}

func (r *EventReporter) set(state State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == state {
		return
	}

	r.state = state

	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *EventReporter) CurrentState() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// WaitForStateChange blocks until the state differs from state. It returns
// false when ctx is done first.
func (r *EventReporter) WaitForStateChange(ctx context.Context, state State) bool {
	for {
		r.mu.Lock()
		current := r.state
		changed := r.changed
		r.mu.Unlock()

		if current != state {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-changed:
		}
	}
}

// Run feeds events to Observe until ctx is done or events is closed.
func (r *EventReporter) Run(ctx context.Context, events <-chan wifi.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			r.Observe(event)
		}
	}
}
