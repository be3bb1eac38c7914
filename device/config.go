package device

import (
	"time"

	"github.com/juju/clock"
	"github.com/the-lightning-land/wifid/wifi"
	"github.com/the-lightning-land/wifid/wifidb"
)

const (
	defaultTickInterval = 50 * time.Millisecond
)

type Config struct {
	Radio wifi.Radio
	DB    *wifidb.DB
	// SeedFile is imported on start and whenever it is written.
	SeedFile     string
	TickInterval time.Duration
	Clock        clock.Clock
	Logger       Logger
}
