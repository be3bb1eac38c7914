package wifi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	var q Queue

	q.Push(StationConnect)
	q.Push(AccessPointStart)
	q.Push(StationDisconnect)

	for _, want := range []Action{StationConnect, AccessPointStart, StationDisconnect} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueDisabledAcceptsPowerOnly(t *testing.T) {
	var q Queue
	q.Disable()

	assert.False(t, q.Push(StationConnect))
	assert.False(t, q.Push(AccessPointFallback))
	assert.True(t, q.Push(TurnOn))
	assert.True(t, q.Push(TurnOff))
	assert.Equal(t, []Action{TurnOn, TurnOff}, q.Pending())

	q.Enable()
	assert.True(t, q.Push(StationConnect))
	assert.Equal(t, 3, q.Len())
}
