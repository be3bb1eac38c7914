package api

import (
	"net"
	"net/http"
)

// handleNotFound sends clients of the access point that ask for a foreign
// host to the device, so operating systems detect the captive portal.
func (a *Api) handleNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.captiveHost != "" && !a.isCaptiveHost(r.Host) {
			http.Redirect(w, r, "http://"+a.captiveHost+"/", http.StatusFound)
			return
		}

		a.jsonError(w, "not found", http.StatusNotFound)
	}
}

func (a *Api) isCaptiveHost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	return host == a.captiveHost
}
