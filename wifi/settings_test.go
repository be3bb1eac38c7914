package wifi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsValid(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())
}

func TestReconnectIntervalFallsBackToRetryBudget(t *testing.T) {
	settings := DefaultSettings()
	settings.ReconnectInterval = 0
	settings.RetryInterval = 5 * time.Second
	settings.RetryBudget = 3

	assert.Equal(t, 15*time.Second, settings.reconnectInterval())

	settings.RetryBudget = 0
	assert.Equal(t, 5*time.Second, settings.reconnectInterval())
}

func TestSettingsRejectInvalidAccessPoint(t *testing.T) {
	settings := DefaultSettings()
	settings.AccessPoint.Passphrase = "short"

	assert.Error(t, settings.Validate())

	settings.Fallback = FallbackDisabled
	assert.NoError(t, settings.Validate())
}

func TestFallbackModeText(t *testing.T) {
	raw, err := json.Marshal(struct {
		Mode FallbackMode `json:"mode"`
	}{FallbackAlwaysOn})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"always-on"}`, string(raw))

	mode, err := ParseFallbackMode("disabled")
	require.NoError(t, err)
	assert.Equal(t, FallbackDisabled, mode)

	_, err = ParseFallbackMode("sometimes")
	assert.Error(t, err)
}
