package api

import (
	"net"
	"net/http"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"
	"github.com/the-lightning-land/wifid/device"
	"golang.org/x/net/netutil"
)

const (
	defaultMaxConnections = 16
)

type Config struct {
	Device *device.Device
	// CaptiveHost is the address of the access point. Requests for any
	// other host are redirected to it while it is set.
	CaptiveHost    string
	MaxConnections int
	Log            Logger
}

type Api struct {
	device         *device.Device
	router         *mux.Router
	captiveHost    string
	maxConnections int
	log            Logger
}

func New(config *Config) *Api {
	api := &Api{
		device:         config.Device,
		router:         mux.NewRouter(),
		captiveHost:    config.CaptiveHost,
		maxConnections: config.MaxConnections,
	}

	if config.Log != nil {
		api.log = config.Log
	} else {
		api.log = noopLogger{}
	}

	if api.maxConnections <= 0 {
		api.maxConnections = defaultMaxConnections
	}

	api.router.Handle("/api/v1/wifi", api.handleGetStatus()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/wifi/station", api.handlePostStation()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/wifi/ap", api.handlePostAccessPoint()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/wifi/power", api.handlePostPower()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/wifi/reconfigure", api.handlePostReconfigure()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/wifi/reset", api.handlePostReset()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/wifi/scan", api.handleGetScan()).Methods(http.MethodGet)

	api.router.Handle("/api/v1/wifi/networks", api.handleGetNetworks()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/wifi/networks", api.handlePutNetworks()).Methods(http.MethodPut)
	api.router.Handle("/api/v1/wifi/networks", api.handlePostNetwork()).Methods(http.MethodPost)

	api.router.Handle("/api/v1/wifi/events", api.handleGetEvents()).Methods(http.MethodGet)

	api.router.NotFoundHandler = api.handleNotFound()

	return api
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Serve blocks until the listener is closed.
func (a *Api) Serve(l net.Listener) error {
	err := http.Serve(netutil.LimitListener(l, a.maxConnections), a.router)
	if err != nil {
		return errors.Errorf("unable to serve api: %v", err)
	}

	return nil
}
