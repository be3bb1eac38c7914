package pairing

import (
	"testing"

	"github.com/muka/go-bluetooth/bluez"
	"github.com/stretchr/testify/assert"
)

func TestCharacteristicFlags(t *testing.T) {
	read := func() ([]byte, error) { return nil, nil }
	write := func([]byte) error { return nil }

	assert.Equal(t, []string{bluez.FlagCharacteristicRead}, staticString(deviceNameUuid, "Device Name", "wifid").flags())
	assert.Equal(t, []string{bluez.FlagCharacteristicRead}, characteristicSpec{read: read}.flags())
	assert.Equal(t, []string{bluez.FlagCharacteristicWrite}, characteristicSpec{write: write}.flags())
	assert.Equal(t, []string{bluez.FlagCharacteristicRead, bluez.FlagCharacteristicWrite}, characteristicSpec{read: read, write: write}.flags())
	assert.Empty(t, characteristicSpec{}.flags())
}
