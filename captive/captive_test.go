package captive

import (
	"net/netip"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/wifi"
)

var apAddress = netip.MustParseAddr("192.168.4.1")

func newTestServer(t *testing.T) *Server {
	s, err := New(&Config{
		Listen:  "127.0.0.1:0",
		Address: apAddress,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Stop()
	})

	return s
}

func TestAnswer(t *testing.T) {
	s := newTestServer(t)

	q := new(dns.Msg)
	q.SetQuestion("connectivitycheck.gstatic.com.", dns.TypeA)

	m := s.answer(q)
	require.Len(t, m.Answer, 1)
	assert.True(t, m.Authoritative)
	assert.Equal(t, q.Id, m.Id)

	a, ok := m.Answer[0].(*dns.A)
	require.True(t, ok)
	assert.Equal(t, "192.168.4.1", a.A.String())
	assert.Equal(t, "connectivitycheck.gstatic.com.", a.Hdr.Name)
	assert.EqualValues(t, defaultTTL, a.Hdr.Ttl)
}

func TestAnswerIgnoresAAAA(t *testing.T) {
	s := newTestServer(t)

	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeAAAA)

	m := s.answer(q)
	assert.Empty(t, m.Answer)
	assert.Equal(t, dns.RcodeSuccess, m.Rcode)
}

func TestNewRejectsIPv6(t *testing.T) {
	_, err := New(&Config{Address: netip.MustParseAddr("fe80::1")})
	require.Error(t, err)
}

func TestServe(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.Start())
	require.True(t, s.Running())

	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)

	client := new(dns.Client)
	m, _, err := client.Exchange(q, s.LocalAddr().String())
	require.NoError(t, err)
	require.Len(t, m.Answer, 1)
	assert.Equal(t, "192.168.4.1", m.Answer[0].(*dns.A).A.String())

	require.NoError(t, s.Stop())
	assert.False(t, s.Running())
}

func TestObserve(t *testing.T) {
	s := newTestServer(t)

	s.Observe(wifi.Event{Kind: wifi.EventMode, Mode: wifi.ModeStation | wifi.ModeAccessPoint})
	assert.True(t, s.Running())

	s.Observe(wifi.Event{Kind: wifi.EventStationConnected})
	assert.False(t, s.Running())

	s.Observe(wifi.Event{Kind: wifi.EventMode, Mode: wifi.ModeAccessPoint})
	assert.True(t, s.Running())

	s.Observe(wifi.Event{Kind: wifi.EventMode, Mode: wifi.ModeStation})
	assert.False(t, s.Running())
}

func TestObserveRestartsAfterStationDisconnect(t *testing.T) {
	s := newTestServer(t)

	s.Observe(wifi.Event{Kind: wifi.EventMode, Mode: wifi.ModeStation | wifi.ModeAccessPoint})
	s.Observe(wifi.Event{Kind: wifi.EventStationConnected})
	require.False(t, s.Running())

	// the access point stays up, so no mode event follows
	s.Observe(wifi.Event{Kind: wifi.EventStationDisconnected})
	assert.True(t, s.Running())

	s.Observe(wifi.Event{Kind: wifi.EventStationConnecting})
	assert.True(t, s.Running())
}

func TestObserveIgnoresDisconnectWithoutAccessPoint(t *testing.T) {
	s := newTestServer(t)

	s.Observe(wifi.Event{Kind: wifi.EventMode, Mode: wifi.ModeStation})
	s.Observe(wifi.Event{Kind: wifi.EventStationDisconnected})

	assert.False(t, s.Running())
}

func TestObserveKeepsConnectedStationAcrossModeChange(t *testing.T) {
	s := newTestServer(t)

	s.Observe(wifi.Event{Kind: wifi.EventMode, Mode: wifi.ModeStation})
	s.Observe(wifi.Event{Kind: wifi.EventStationConnected})

	// access point started manually next to a connected station
	s.Observe(wifi.Event{Kind: wifi.EventMode, Mode: wifi.ModeStation | wifi.ModeAccessPoint})
	assert.False(t, s.Running())
}
