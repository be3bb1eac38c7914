package wifi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	var bus Bus
	var got []string

	bus.Subscribe(func(e Event) { got = append(got, "first:"+e.Kind.String()) })
	bus.Subscribe(func(e Event) { got = append(got, "second:"+e.Kind.String()) })

	bus.Publish(Event{Kind: EventStationInit})

	assert.Equal(t, []string{"first:StationInit", "second:StationInit"}, got)
}

func TestBusPublishing(t *testing.T) {
	var bus Bus
	var during []bool

	bus.Subscribe(func(e Event) {
		during = append(during, bus.Publishing())
		if e.Kind == EventInitial {
			bus.Publish(Event{Kind: EventMode})
			during = append(during, bus.Publishing())
		}
	})

	bus.Publish(Event{Kind: EventInitial})

	assert.Equal(t, []bool{true, true, true}, during)
	assert.False(t, bus.Publishing())
}

func TestEventJSON(t *testing.T) {
	raw, err := json.Marshal(Event{Kind: EventMode, Mode: ModeStation | ModeAccessPoint})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"Mode","mode":"sta+ap"}`, string(raw))

	var event Event
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, EventMode, event.Kind)
	assert.True(t, event.Mode.AccessPoint())
	assert.True(t, event.Mode.Station())
}
