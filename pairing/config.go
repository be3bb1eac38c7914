package pairing

import (
	"context"
	"time"

	"github.com/the-lightning-land/wifid/wifi"
)

const (
	defaultScanTimeout = 15 * time.Second
)

// Device is what pairing needs from the connection manager.
type Device interface {
	Status() (wifi.Status, error)
	Scan(ctx context.Context) ([]wifi.ScanResult, error)
	Provision(network wifi.Network) (wifi.Catalog, error)
}

type Config struct {
	Logger Logger
	// AdapterId is the bluetooth adapter, e.g. hci0.
	AdapterId string
	Device    Device
	// LocalName is advertised to scanning phones.
	LocalName   string
	ScanTimeout time.Duration
}
