package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/wifi"
)

func update(t *testing.T, m model, msg tea.Msg) model {
	next, _ := m.Update(msg)

	updated, ok := next.(model)
	require.True(t, ok)

	return updated
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func scannedModel(t *testing.T) model {
	m := newModel(newClient("http://127.0.0.1:0", 0), nil)

	return update(t, m, scanMsg{report: &scanReport{Networks: []wifi.ScanResult{
		{SSID: "Cafe", RSSI: -70, Security: wifi.SecurityOpen},
		{SSID: "Home", RSSI: -62, Security: wifi.SecurityWPA2},
	}}})
}

func TestModelRanksScanResults(t *testing.T) {
	m := scannedModel(t)

	items := m.networks.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Home", items[0].(network).SSID)
	assert.Equal(t, "Cafe", items[1].(network).SSID)
}

func TestModelAsksPassphraseForSecuredNetwork(t *testing.T) {
	m := scannedModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, viewPassphrase, m.state)
	assert.Equal(t, "Home", m.selected)

	// q is typed into the passphrase instead of quitting
	m = update(t, m, keyRunes("q"))
	assert.Equal(t, viewPassphrase, m.state)
	assert.Equal(t, "q", m.passphrase.Value())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, viewNetworks, m.state)
}

func TestModelProvisionsOpenNetworkDirectly(t *testing.T) {
	m := scannedModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, viewNetworks, m.state)
	assert.Equal(t, "Cafe", m.selected)
	assert.True(t, m.busy)
}

func TestModelReportsActions(t *testing.T) {
	m := newModel(newClient("http://127.0.0.1:0", 0), nil)

	m = update(t, m, actionMsg{what: "reset"})
	assert.Equal(t, "reset requested", m.message)
	assert.False(t, m.failed)

	m = update(t, m, clearStatusMsg{})
	assert.Empty(t, m.message)
}

func TestModelShowsStatusAndEvents(t *testing.T) {
	events := make(chan wifi.Event)
	m := newModel(newClient("http://127.0.0.1:0", 0), events)

	m = update(t, m, statusMsg{status: &status{Lines: []string{"STA SSID: Home"}}})
	m = update(t, m, eventMsg{event: wifi.Event{Kind: wifi.EventStationConnected, Network: "Home"}, ok: true})

	view := m.View()
	assert.Contains(t, view, "STA SSID: Home")
	assert.Contains(t, view, "last event:")
}
