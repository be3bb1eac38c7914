package onion

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDOfGeneratedKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	id := ID(key)

	assert.Len(t, id, 56)
	assert.Equal(t, strings.ToLower(id), id)
	assert.True(t, strings.HasSuffix(id, "d"))
	assert.Equal(t, id, ID(key))
}

func TestIDDiffersPerKey(t *testing.T) {
	a, err := GenerateKey()
	require.NoError(t, err)

	b, err := GenerateKey()
	require.NoError(t, err)

	assert.NotEqual(t, ID(a), ID(b))
}

type memoryKeys struct {
	key  ed25519.PrivateKey
	sets int
}

func (m *memoryKeys) GetOnionKey() (ed25519.PrivateKey, error) {
	return m.key, nil
}

func (m *memoryKeys) SetOnionKey(key ed25519.PrivateKey) error {
	m.key = key
	m.sets++
	return nil
}

func TestKeyIsGeneratedOnce(t *testing.T) {
	keys := &memoryKeys{}
	s := New(&Config{Keys: keys})

	first, err := s.key()
	require.NoError(t, err)
	assert.Equal(t, 1, keys.sets)

	second, err := s.key()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, keys.sets)
}

func TestStopWithoutStart(t *testing.T) {
	s := New(&Config{Keys: &memoryKeys{}})

	assert.Empty(t, s.ID())
	assert.NoError(t, s.Stop())
}
