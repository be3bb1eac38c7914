package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/cretz/bine/tor"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/wifid/api"
	"github.com/the-lightning-land/wifid/captive"
	"github.com/the-lightning-land/wifid/connectivity"
	"github.com/the-lightning-land/wifid/device"
	"github.com/the-lightning-land/wifid/garp"
	"github.com/the-lightning-land/wifid/indicator"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/onion"
	"github.com/the-lightning-land/wifid/pairing"
	"github.com/the-lightning-land/wifid/telemetry"
	"github.com/the-lightning-land/wifid/wifi"
	"github.com/the-lightning-land/wifid/wifidb"
	// Blank import to set up profiling HTTP handlers.
	_ "net/http/pprof"
)

var (
	// commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

const (
	scanTimeout = 10 * time.Second
	scanPoll    = 50 * time.Millisecond
)

// eventConsumer is anything fed from the manager events.
type eventConsumer interface {
	Run(ctx context.Context, events <-chan wifi.Event) error
}

// wifidMain is the true entry point for wifid. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func wifidMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Load CLI configuration and defaults
	cfg, err := loadConfig()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	if cfg.Profiling.Listen != "" {
		go func() {
			log.Infof("Starting profiling server on %v", cfg.Profiling.Listen)
			// Redirect the root path
			http.Handle("/", http.RedirectHandler("/debug/pprof", http.StatusSeeOther))
			// All other handlers are registered on DefaultServeMux through the import of pprof
			err := http.ListenAndServe(cfg.Profiling.Listen, nil)
			if err != nil {
				log.Errorf("Could not run profiler: %v", err)
			}
		}()
	}

	// The radio, which the connection manager drives
	var radio network.Radio

	switch cfg.Net {
	case "wpa":
		radio = network.NewWpaRadio(&network.Config{
			Interface:   cfg.Wpa.Interface,
			APInterface: cfg.Wpa.APInterface,
			ResolvConf:  cfg.Wpa.ResolvConf,
			Logger:      log.New().WithField("system", "radio"),
		})

		log.Infof("Created wpa_supplicant radio on %v.", cfg.Wpa.Interface)
	case "mock":
		radio = network.NewMockRadio(&network.MockConfig{
			AccessPoints: network.DefaultMockAccessPoints(),
			Logger:       log.New().WithField("system", "radio"),
		})

		log.Info("Created a mock radio.")
	default:
		return errors.Errorf("Unknown networking type %v", cfg.Net)
	}

	err = radio.Start()
	if err != nil {
		return errors.Errorf("Could not start radio: %v", err)
	}

	defer func() {
		err := radio.Stop()
		if err != nil {
			log.Errorf("Could not properly shut down radio: %v", err)
		} else {
			log.Info("Stopped radio.")
		}
	}()

	// Stop here after one scan if only that was requested
	if cfg.Scan {
		return printScan(radio)
	}

	// wifi.db persistently stores the configured networks and settings
	wifiDB, err := wifidb.Open(cfg.DataDir)
	if err != nil {
		return errors.Errorf("Could not open wifi.db: %v", err)
	}

	log.Infof("Opened wifi.db")

	defer func() {
		err := wifiDB.Close()
		if err != nil {
			log.Errorf("Could not close wifi.db: %v", err)
		} else {
			log.Info("Closed wifi.db.")
		}
	}()

	// central controller for everything the connection manager does
	dev, err := device.NewDevice(&device.Config{
		Radio:        radio,
		DB:           wifiDB,
		SeedFile:     cfg.SeedFile,
		TickInterval: cfg.Tick,
		Logger:       log.New().WithField("system", "device"),
	})
	if err != nil {
		return errors.Errorf("Could not create device: %v", err)
	}

	log.Infof("Created device.")

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	defer func() {
		cancel()
		wg.Wait()
		log.Info("Stopped event consumers.")
	}()

	consume := func(name string, consumer eventConsumer) {
		client := dev.SubscribeEvents()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer client.Cancel()

			err := consumer.Run(ctx, client.Events)
			if err != nil {
				log.Errorf("Could not run %v: %v", name, err)
			}
		}()

		log.Infof("Subscribed %v to wifi events.", name)
	}

	reporter := connectivity.NewReporter()
	consume("connectivity", reporter)

	// create subsystem responsible for the admin api
	a := api.New(&api.Config{
		Device:         dev,
		CaptiveHost:    cfg.Api.CaptiveHost,
		MaxConnections: cfg.Api.MaxConnections,
		Log:            log.New().WithField("system", "api"),
	})

	log.Infof("Created API")

	lis, err := net.Listen("tcp", cfg.Api.Listen)
	if err != nil {
		return errors.Errorf("Could not listen on %v: %v", cfg.Api.Listen, err)
	}

	go func() {
		log.Infof("Serving API on %v", lis.Addr())

		err := a.Serve(lis)
		if err != nil {
			log.Debugf("Stopped serving API: %v", err)
		}
	}()

	defer func() {
		err := lis.Close()
		if err != nil {
			log.Errorf("Could not close API listener: %v", err)
		} else {
			log.Info("Closed API listener.")
		}
	}()

	if cfg.Tor.Enabled {
		// start Tor node
		t, err := tor.Start(nil, &tor.StartConf{
			ExePath:         cfg.Tor.Path,
			TempDataDirBase: os.TempDir(),
			DebugWriter:     log.New().WithField("system", "tor").WriterLevel(log.DebugLevel),
		})
		if err != nil {
			return errors.Errorf("Could not start tor: %v", err)
		}

		log.Infof("Started Tor.")

		defer func() {
			err := t.Close()
			if err != nil {
				log.Errorf("Could not properly stop Tor: %v", err)
			} else {
				log.Infof("Stopped Tor.")
			}
		}()

		service := onion.New(&onion.Config{
			Tor:    t,
			Keys:   wifiDB,
			Logger: log.New().WithField("system", "onion"),
		})

		err = service.Start(a.Serve)
		if err != nil {
			return errors.Errorf("Could not start onion service: %v", err)
		}

		defer func() {
			err := service.Stop()
			if err != nil {
				log.Errorf("Could not properly stop onion service: %v", err)
			} else {
				log.Infof("Stopped onion service.")
			}
		}()
	}

	if cfg.Captive.Listen != "" {
		address, err := netip.ParseAddr(cfg.Captive.Address)
		if err != nil {
			return errors.Errorf("Invalid captive address %v: %v", cfg.Captive.Address, err)
		}

		server, err := captive.New(&captive.Config{
			Listen:  cfg.Captive.Listen,
			Address: address,
			TTL:     cfg.Captive.TTL,
			Logger:  log.New().WithField("system", "captive"),
		})
		if err != nil {
			return errors.Errorf("Could not create captive portal: %v", err)
		}

		consume("captive portal", server)
	}

	if cfg.Garp.Interval > 0 {
		consume("gratuitous arp", garp.New(&garp.Config{
			Interface: cfg.Wpa.Interface,
			Interval:  cfg.Garp.Interval,
			Logger:    log.New().WithField("system", "garp"),
		}))
	}

	if cfg.Mqtt.Broker != "" {
		publisher, err := telemetry.New(&telemetry.Config{
			Broker:       cfg.Mqtt.Broker,
			Topic:        cfg.Mqtt.Topic,
			ClientID:     cfg.Mqtt.ClientID,
			Timeout:      cfg.Mqtt.Timeout,
			Connectivity: reporter,
			Logger:       log.New().WithField("system", "telemetry"),
		})
		if err != nil {
			return errors.Errorf("Could not create telemetry: %v", err)
		}

		consume("telemetry", publisher)
	}

	if cfg.Led.Pin != "" {
		led, err := indicator.NewGpio(&indicator.Config{
			Pin:    cfg.Led.Pin,
			Logger: log.New().WithField("system", "led"),
		})
		if err != nil {
			return errors.Errorf("Could not create status led: %v", err)
		}

		consume("status led", led)
	}

	if cfg.Pairing.Adapter != "" {
		// create subsystem responsible for pairing
		pairingController, err := pairing.NewController(&pairing.Config{
			Logger:    log.New().WithField("system", "pairing"),
			AdapterId: cfg.Pairing.Adapter,
			Device:    dev,
			LocalName: cfg.Pairing.LocalName,
		})
		if err != nil {
			return errors.Errorf("Could not create pairing controller: %v", err)
		}

		log.Infof("Created pairing controller.")

		err = pairingController.Start()
		if err != nil {
			return errors.Errorf("Could not start pairing controller: %v", err)
		}

		log.Infof("Started pairing controller.")

		defer func() {
			err := pairingController.Stop()
			if err != nil {
				log.Errorf("Could not properly shut down pairing controller: %v", err)
			}

			log.Infof("Stopped pairing controller.")
		}()
	}

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping device...")
		dev.Shutdown()
	}()

	// blocks until the device is shut down
	err = dev.Run()
	if err != nil {
		return errors.Errorf("Failed running device: %v", err)
	}

	// finish with no error
	return nil
}

func printScan(radio wifi.Radio) error {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	results, err := wifi.ScanAndWait(ctx, radio, scanTimeout, scanPoll)
	if err != nil {
		return errors.Errorf("Could not scan: %v", err)
	}

	for _, result := range wifi.Rank(results) {
		fmt.Println(result)
	}

	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := wifidMain(); err != nil {
		log.WithError(err).Println("Failed running wifid.")
		os.Exit(1)
	}
}
