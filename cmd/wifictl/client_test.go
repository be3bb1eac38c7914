package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/wifi"
)

func newFakeApi(t *testing.T, provisioned *map[string]string) *httptest.Server {
	router := mux.NewRouter()

	router.HandleFunc("/api/v1/wifi", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"state":"Connected","mode":"sta","powered":true,"locked":false,"rounds":0,"networks":1,"lines":["STA SSID: Home"]}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/wifi/scan", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"networks":[{"ssid":"Cafe","bssid":"02:00:00:00:00:03","rssi":-70,"channel":11,"security":"OPEN"},{"ssid":"Home","bssid":"02:00:00:00:00:02","rssi":-62,"channel":1,"security":"WPA2"}],"lines":[]}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/wifi/station", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"device stopped"}`))
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/v1/wifi/networks", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*provisioned = body
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[]`))
	}).Methods(http.MethodPost)

	upgrader := websocket.Upgrader{}
	router.HandleFunc("/api/v1/wifi/events", func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		_ = c.WriteJSON(wifi.Event{Kind: wifi.EventStationConnected, Network: "Home"})
		_, _, _ = c.ReadMessage()
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server
}

func TestClientStatus(t *testing.T) {
	server := newFakeApi(t, &map[string]string{})
	c := newClient(server.URL+"/", time.Second)

	s, err := c.status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, wifi.ModeStation, s.Mode)
	assert.Equal(t, wifi.StateConnected, s.State)
	assert.True(t, s.Powered)
	assert.Equal(t, []string{"STA SSID: Home"}, s.Lines)
}

func TestClientScan(t *testing.T) {
	server := newFakeApi(t, &map[string]string{})
	c := newClient(server.URL, time.Second)

	report, err := c.scan(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Networks, 2)

	assert.Equal(t, "Cafe", report.Networks[0].SSID)
	assert.True(t, report.Networks[0].Open())
	assert.Equal(t, wifi.SecurityWPA2, report.Networks[1].Security)
}

func TestClientApiError(t *testing.T) {
	server := newFakeApi(t, &map[string]string{})
	c := newClient(server.URL, time.Second)

	err := c.toggleStation(context.Background())
	require.Error(t, err)
	assert.Equal(t, "device stopped", err.Error())
}

func TestClientProvision(t *testing.T) {
	provisioned := map[string]string{}
	server := newFakeApi(t, &provisioned)
	c := newClient(server.URL, time.Second)

	require.NoError(t, c.provision(context.Background(), "Home", "battery staple"))
	assert.Equal(t, map[string]string{"ssid": "Home", "pass": "battery staple"}, provisioned)
}

func TestClientEvents(t *testing.T) {
	server := newFakeApi(t, &map[string]string{})
	c := newClient(server.URL, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.events(ctx)
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, wifi.EventStationConnected, event.Kind)
		assert.Equal(t, "Home", event.Network)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
