package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/gorilla/websocket"
	"github.com/the-lightning-land/wifid/wifi"
)

type status struct {
	wifi.Status
	Lines []string `json:"lines"`
}

type scanReport struct {
	Networks []wifi.ScanResult `json:"networks"`
	Lines    []string          `json:"lines"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// client talks to the wifid admin api.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *client) do(ctx context.Context, method string, path string, body interface{}, v interface{}) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Errorf("could not marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return errors.Errorf("could not create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Errorf("could not reach wifid: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := errorResponse{}
		if err := json.NewDecoder(res.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}

		return errors.Errorf("wifid responded with %v", res.Status)
	}

	if v == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return errors.Errorf("could not decode response: %v", err)
	}

	return nil
}

func (c *client) status(ctx context.Context) (*status, error) {
	s := &status{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/wifi", nil, s); err != nil {
		return nil, err
	}

	return s, nil
}

func (c *client) scan(ctx context.Context) (*scanReport, error) {
	r := &scanReport{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/wifi/scan", nil, r); err != nil {
		return nil, err
	}

	return r, nil
}

func (c *client) toggleStation(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/wifi/station", nil, nil)
}

func (c *client) toggleAccessPoint(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/wifi/ap", nil, nil)
}

func (c *client) reconfigure(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/wifi/reconfigure", nil, nil)
}

func (c *client) reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/wifi/reset", nil, nil)
}

func (c *client) provision(ctx context.Context, ssid string, passphrase string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/wifi/networks", map[string]string{
		"ssid": ssid,
		"pass": passphrase,
	}, nil)
}

// events streams manager events until ctx is done or the connection drops.
func (c *client) events(ctx context.Context) (<-chan wifi.Event, error) {
	u, err := url.Parse(c.base + "/api/v1/wifi/events")
	if err != nil {
		return nil, errors.Errorf("could not parse url: %v", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, errors.Errorf("could not subscribe to events: %v", err)
	}

	events := make(chan wifi.Event)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(events)

		for {
			event := wifi.Event{}
			if err := conn.ReadJSON(&event); err != nil {
				return
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}
