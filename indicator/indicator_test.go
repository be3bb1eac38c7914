package indicator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/wifi"
	"periph.io/x/periph/conn/gpio"
)

type recordingPin struct {
	mu     sync.Mutex
	levels []gpio.Level
}

func (p *recordingPin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.levels = append(p.levels, l)

	return nil
}

func (p *recordingPin) count(level gpio.Level) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, l := range p.levels {
		if l == level {
			n++
		}
	}

	return n
}

func TestPatterns(t *testing.T) {
	i := newIndicator(&recordingPin{}, &Config{})
	assert.Equal(t, PatternOff, i.Pattern())

	i.Observe(wifi.Event{Kind: wifi.EventMode, Mode: wifi.ModeStation})
	assert.Equal(t, PatternOff, i.Pattern())

	i.Observe(wifi.Event{Kind: wifi.EventStationInit})
	assert.Equal(t, PatternConnecting, i.Pattern())

	i.Observe(wifi.Event{Kind: wifi.EventStationTimeout})
	i.Observe(wifi.Event{Kind: wifi.EventMode, Mode: wifi.ModeStation | wifi.ModeAccessPoint})
	assert.Equal(t, PatternAccessPoint, i.Pattern())

	i.Observe(wifi.Event{Kind: wifi.EventStationConnecting, Network: "Home"})
	assert.Equal(t, PatternConnecting, i.Pattern())

	i.Observe(wifi.Event{Kind: wifi.EventStationConnected, Network: "Home"})
	assert.Equal(t, PatternConnected, i.Pattern())

	i.Observe(wifi.Event{Kind: wifi.EventStationDisconnected})
	assert.Equal(t, PatternAccessPoint, i.Pattern())
}

func TestStep(t *testing.T) {
	pin := &recordingPin{}
	i := newIndicator(pin, &Config{})

	i.Observe(wifi.Event{Kind: wifi.EventStationConnected})
	assert.Equal(t, time.Second, i.step())
	assert.True(t, i.lit)

	i.Observe(wifi.Event{Kind: wifi.EventStationDisconnected})
	i.Observe(wifi.Event{Kind: wifi.EventStationInit})

	assert.Equal(t, 100*time.Millisecond, i.step())
	assert.False(t, i.lit)
	assert.Equal(t, 100*time.Millisecond, i.step())
	assert.True(t, i.lit)
}

func TestRunBlinks(t *testing.T) {
	pin := &recordingPin{}
	i := newIndicator(pin, &Config{})

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan wifi.Event)
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = i.Run(ctx, events)
	}()

	events <- wifi.Event{Kind: wifi.EventStationInit}

	require.Eventually(t, func() bool {
		return pin.count(gpio.High) >= 2 && pin.count(gpio.Low) >= 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	pin.mu.Lock()
	defer pin.mu.Unlock()
	assert.Equal(t, gpio.Low, pin.levels[len(pin.levels)-1])
}
