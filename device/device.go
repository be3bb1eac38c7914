package device

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/juju/clock"
	"github.com/the-lightning-land/wifid/wifi"
	"github.com/the-lightning-land/wifid/wifidb"
)

const (
	eventBuffer     = 32
	shutdownTimeout = 5 * time.Second
	disconnectPoll  = 100 * time.Millisecond
)

var (
	ErrStopped = errors.New("device is stopped")
)

// Device owns the connection manager and serializes every operation on it
// into a single loop goroutine.
type Device struct {
	manager      *wifi.Manager
	radio        wifi.Radio
	db           *wifidb.DB
	clock        clock.Clock
	tickInterval time.Duration
	seedFile     string
	log          Logger

	requests chan func()
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// only touched by the loop
	holds     int
	resetting bool

	eventClients      map[uint32]*EventClient
	eventClientMtx    sync.Mutex
	nextEventClientID uint32
}

func NewDevice(config *Config) (*Device, error) {
	if config.Radio == nil {
		return nil, errors.New("radio is required")
	}

	if config.DB == nil {
		return nil, errors.New("db is required")
	}

	device := &Device{
		radio:        config.Radio,
		db:           config.DB,
		clock:        config.Clock,
		tickInterval: config.TickInterval,
		seedFile:     config.SeedFile,
		log:          config.Logger,
		requests:     make(chan func()),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		eventClients: make(map[uint32]*EventClient),
	}

	if device.log == nil {
		device.log = noopLogger{}
	}

	if device.clock == nil {
		device.clock = clock.WallClock
	}

	if device.tickInterval <= 0 {
		device.tickInterval = defaultTickInterval
	}

	if device.seedFile != "" {
		if _, err := os.Stat(device.seedFile); err == nil {
			if err := device.importSeed(); err != nil {
				device.log.Warnf("Could not import %v: %v", device.seedFile, err)
			}
		}
	}

	settings, err := device.db.GetSettings()
	if err != nil {
		return nil, errors.Errorf("could not read settings: %v", err)
	}

	catalog, err := device.db.GetNetworks()
	if err != nil {
		return nil, errors.Errorf("could not read networks: %v", err)
	}

	device.manager, err = wifi.New(&wifi.Config{
		Radio:    config.Radio,
		Settings: settings,
		Catalog:  catalog,
		Clock:    device.clock,
		Logger:   device.log,
	})
	if err != nil {
		return nil, errors.Errorf("could not create manager: %v", err)
	}

	device.manager.Subscribe(device.broadcast)

	return device, nil
}

// Run ticks the manager until Shutdown is called.
func (d *Device) Run() error {
	d.log.Infof("Starting device with %d configured networks", len(d.manager.Catalog()))

	defer close(d.stopped)

	if d.seedFile != "" {
		watcher, err := watchSeed(d.seedFile, d.log, func() {
			d.seedChanged()
		})
		if err != nil {
			d.log.Warnf("Could not watch %v: %v", d.seedFile, err)
		} else {
			defer watcher.Close()
		}
	}

	// requests must not push the next tick out
	ticker := d.clock.NewTimer(d.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			d.tick()
			ticker.Reset(d.tickInterval)

		case req := <-d.requests:
			req()

		case <-d.done:
			// finish loop when program is done
			return d.disconnect()
		}
	}
}

func (d *Device) tick() {
	d.manager.Tick()

	// the power cycle of a reset completes once the radio is off
	if d.resetting && !d.manager.Powered() {
		d.resetting = false
		d.manager.Push(wifi.TurnOn)
	}
}

func (d *Device) disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if d.radio.LinkStatus() != wifi.LinkConnected {
		return nil
	}

	d.log.Infof("Disconnecting station")

	if err := wifi.DisconnectAndWait(ctx, d.radio, disconnectPoll); err != nil {
		return errors.Errorf("could not disconnect station: %v", err)
	}

	return nil
}

// Shutdown stops Run and waits for it to return.
func (d *Device) Shutdown() {
	d.stopOnce.Do(func() {
		close(d.done)
	})

	<-d.stopped

	d.eventClientMtx.Lock()
	for _, client := range d.eventClients {
		close(client.cancelChan)
	}
	d.eventClients = make(map[uint32]*EventClient)
	d.eventClientMtx.Unlock()
}

// do runs fn on the loop goroutine and waits for it.
func (d *Device) do(fn func()) error {
	finished := make(chan struct{})

	select {
	case d.requests <- func() {
		fn()
		close(finished)
	}:
	case <-d.done:
		return ErrStopped
	}

	<-finished

	return nil
}

func (d *Device) Status() (wifi.Status, error) {
	var status wifi.Status

	err := d.do(func() {
		status = d.manager.Status()
	})

	return status, err
}

// ToggleStation disconnects a running station or starts connecting an idle one.
func (d *Device) ToggleStation() (wifi.Status, error) {
	return d.push(func() wifi.Action {
		if d.manager.Status().Mode.Station() {
			return wifi.StationDisconnect
		}

		return wifi.StationConnect
	})
}

func (d *Device) ToggleAccessPoint() (wifi.Status, error) {
	return d.push(func() wifi.Action {
		if d.manager.Status().Mode.AccessPoint() {
			return wifi.AccessPointStop
		}

		return wifi.AccessPointStart
	})
}

// SetPower turns the whole radio on or off.
func (d *Device) SetPower(on bool) (wifi.Status, error) {
	return d.push(func() wifi.Action {
		if on {
			return wifi.TurnOn
		}

		return wifi.TurnOff
	})
}

func (d *Device) push(choose func() wifi.Action) (wifi.Status, error) {
	var status wifi.Status

	err := d.do(func() {
		action := choose()

		d.log.Infof("Requested %v", action)

		d.manager.Push(action)
		status = d.manager.Status()
	})

	return status, err
}

// Reset power cycles the radio and reconnects.
func (d *Device) Reset() error {
	return d.do(func() {
		d.log.Infof("Resetting radio")

		if !d.manager.Powered() {
			d.manager.Push(wifi.TurnOn)
			return
		}

		d.resetting = true
		d.manager.Push(wifi.TurnOff)
	})
}

// Reconfigure reloads settings and networks from the store and restarts the
// station.
func (d *Device) Reconfigure() error {
	settings, err := d.db.GetSettings()
	if err != nil {
		return errors.Errorf("could not read settings: %v", err)
	}

	catalog, err := d.db.GetNetworks()
	if err != nil {
		return errors.Errorf("could not read networks: %v", err)
	}

	var setErr error

	err = d.do(func() {
		if setErr = d.manager.SetSettings(settings); setErr != nil {
			return
		}

		d.log.Infof("Reconfiguring with %d networks", len(catalog))
		d.manager.Reconfigure(catalog)
	})
	if err != nil {
		return err
	}

	if setErr != nil {
		return errors.Errorf("could not apply settings: %v", setErr)
	}

	return nil
}

type scanOutcome struct {
	results []wifi.ScanResult
	err     error
}

// Scan runs an on-demand scan and returns the results strongest first.
func (d *Device) Scan(ctx context.Context) ([]wifi.ScanResult, error) {
	outcome := make(chan scanOutcome, 1)

	var startErr error

	err := d.do(func() {
		startErr = d.manager.Scan(func(results []wifi.ScanResult) {
			outcome <- scanOutcome{results: results}
		}, func(err wifi.ScanError) {
			outcome <- scanOutcome{err: err}
		})
	})
	if err != nil {
		return nil, err
	}

	if startErr != nil {
		return nil, startErr
	}

	select {
	case o := <-outcome:
		return o.results, o.err
	case <-ctx.Done():
		return nil, errors.Errorf("could not finish scan: %v", ctx.Err())
	case <-d.done:
		return nil, ErrStopped
	}
}

func (d *Device) Networks() (wifi.Catalog, error) {
	return d.db.GetNetworks()
}

// SetNetworks replaces the stored networks and reconnects.
func (d *Device) SetNetworks(catalog wifi.Catalog) error {
	if err := d.db.SetNetworks(catalog); err != nil {
		return err
	}

	return d.Reconfigure()
}

// Provision stores a single network and reconnects.
func (d *Device) Provision(network wifi.Network) (wifi.Catalog, error) {
	d.log.Infof("Provisioning network %v", network.SSID)

	catalog, err := d.db.UpsertNetwork(network)
	if err != nil {
		return nil, err
	}

	if err := d.Reconfigure(); err != nil {
		return nil, err
	}

	return catalog, nil
}

// Hold keeps the fallback access point from being torn down by a reconnect
// round until the returned release is called.
func (d *Device) Hold() (func(), error) {
	err := d.do(func() {
		d.holds++
		if d.holds == 1 {
			d.manager.SetReconnectHold(true)
		}
	})
	if err != nil {
		return nil, err
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			_ = d.do(func() {
				d.holds--
				if d.holds == 0 {
					d.manager.SetReconnectHold(false)
				}
			})
		})
	}, nil
}

func (d *Device) importSeed() error {
	seed, err := wifidb.LoadIni(d.seedFile, wifi.DefaultSettings())
	if err != nil {
		return err
	}

	if err := d.db.Import(seed); err != nil {
		return err
	}

	d.log.Infof("Imported %d networks from %v", len(seed.Networks), d.seedFile)

	return nil
}

func (d *Device) seedChanged() {
	if err := d.importSeed(); err != nil {
		d.log.Errorf("Could not import %v: %v", d.seedFile, err)
		return
	}

	if err := d.Reconfigure(); err != nil {
		d.log.Errorf("Could not reconfigure: %v", err)
	}
}
