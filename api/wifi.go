package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/the-lightning-land/wifid/wifi"
)

const (
	scanTimeout = 20 * time.Second
)

type statusResponse struct {
	wifi.Status
	Lines []string `json:"lines"`
}

func newStatusResponse(status wifi.Status) *statusResponse {
	return &statusResponse{
		Status: status,
		Lines:  status.Lines(),
	}
}

type scanResponse struct {
	Networks []wifi.ScanResult `json:"networks"`
	Lines    []string          `json:"lines"`
}

type networkResponse struct {
	SSID    string              `json:"ssid"`
	Secured bool                `json:"secured"`
	Static  *wifi.StaticAddress `json:"static,omitempty"`
}

type postNetworkRequest struct {
	SSID       string              `json:"ssid"`
	Passphrase string              `json:"pass"`
	Static     *wifi.StaticAddress `json:"static,omitempty"`
}

type postPowerRequest struct {
	On bool `json:"on"`
}

func (a *Api) handleGetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := a.device.Status()
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		a.jsonResponse(w, newStatusResponse(status), http.StatusOK)
	}
}

func (a *Api) statusHandler(op func() (wifi.Status, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := op()
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		a.jsonResponse(w, newStatusResponse(status), http.StatusAccepted)
	}
}

func (a *Api) handlePostStation() http.HandlerFunc {
	return a.statusHandler(func() (wifi.Status, error) {
		return a.device.ToggleStation()
	})
}

func (a *Api) handlePostAccessPoint() http.HandlerFunc {
	return a.statusHandler(func() (wifi.Status, error) {
		return a.device.ToggleAccessPoint()
	})
}

func (a *Api) handlePostPower() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := postPowerRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		a.statusHandler(func() (wifi.Status, error) {
			return a.device.SetPower(req.On)
		})(w, r)
	}
}

func (a *Api) handlePostReconfigure() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := a.device.Reconfigure()
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

func (a *Api) handlePostReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := a.device.Reset()
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

func (a *Api) handleGetScan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), scanTimeout)
		defer cancel()

		results, err := a.device.Scan(ctx)
		if err == wifi.ErrNoNetworks {
			results = nil
		} else if err != nil {
			a.jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		res := &scanResponse{
			Networks: results,
			Lines:    make([]string, 0, len(results)),
		}

		for _, result := range results {
			res.Lines = append(res.Lines, result.String())
		}

		a.jsonResponse(w, res, http.StatusOK)
	}
}

func (a *Api) handleGetNetworks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog, err := a.device.Networks()
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// passphrases never leave the device
		res := make([]networkResponse, 0, len(catalog))
		for _, network := range catalog {
			res = append(res, networkResponse{
				SSID:    network.SSID,
				Secured: network.Secured(),
				Static:  network.Static,
			})
		}

		a.jsonResponse(w, res, http.StatusOK)
	}
}

func (a *Api) handlePutNetworks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := []postNetworkRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		catalog := make(wifi.Catalog, 0, len(req))
		for _, n := range req {
			catalog = append(catalog, n.network())
		}

		err = a.device.SetNetworks(catalog)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *Api) handlePostNetwork() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := postNetworkRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		catalog, err := a.device.Provision(req.network())
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		a.jsonResponse(w, map[string]int{"networks": len(catalog)}, http.StatusCreated)
	}
}

func (n postNetworkRequest) network() wifi.Network {
	network := wifi.NewNetwork(n.SSID, n.Passphrase)
	network.Static = n.Static
	return network
}
