package connectivity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/wifi"
)

func TestReporterFollowsEvents(t *testing.T) {
	r := NewReporter()
	require.Equal(t, Offline, r.CurrentState())

	r.Observe(wifi.Event{Kind: wifi.EventStationConnecting})
	assert.Equal(t, Offline, r.CurrentState())

	r.Observe(wifi.Event{Kind: wifi.EventStationConnected})
	assert.Equal(t, Online, r.CurrentState())

	r.Observe(wifi.Event{Kind: wifi.EventStationDisconnected})
	assert.Equal(t, Offline, r.CurrentState())
}

func TestWaitForStateChange(t *testing.T) {
	r := NewReporter()

	go func() {
		time.Sleep(10 * time.Millisecond)
		r.Observe(wifi.Event{Kind: wifi.EventStationConnected})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.True(t, r.WaitForStateChange(ctx, Offline))
	assert.Equal(t, Online, r.CurrentState())
}

func TestWaitForStateChangeCancelled(t *testing.T) {
	r := NewReporter()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.False(t, r.WaitForStateChange(ctx, Offline))
	assert.True(t, r.WaitForStateChange(context.Background(), Online))
}

func TestRunStopsWhenEventsClose(t *testing.T) {
	r := NewReporter()
	events := make(chan wifi.Event, 1)

	events <- wifi.Event{Kind: wifi.EventStationConnected}
	close(events)

	require.NoError(t, r.Run(context.Background(), events))
	assert.Equal(t, Online, r.CurrentState())
}
