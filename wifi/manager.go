package wifi

import (
	"time"

	"github.com/go-errors/errors"
	"github.com/juju/clock"
	"golang.org/x/exp/slices"
)

type Config struct {
	Radio    Radio
	Settings Settings
	Catalog  Catalog
	Clock    clock.Clock
	Logger   Logger
}

type scanReport struct {
	results []ScanResult
	err     ScanError
}

// Manager is the connection state machine. It is not safe for concurrent use:
// every method must be called from the goroutine that calls Tick.
type Manager struct {
	radio    Radio
	settings Settings
	catalog  Catalog
	clock    clock.Clock
	log      Logger

	state State
	queue Queue
	bus   Bus

	scanner  *Scanner
	fallback *Fallback
	roaming  *Roaming

	task     *Task
	rejected bool
	scanned  *scanReport

	locked       bool
	retry        oneShot
	backoff      oneShot
	connectTimer oneShot

	linkUp    bool
	powered   bool
	apWasOn   bool
	mode      Mode
	rounds    int
	hold      bool
	heldRound bool
	attempts  int

	// set when the link drops while a round or roaming scan is running
	reconnectPending bool
}

func New(config *Config) (*Manager, error) {
	if config.Radio == nil {
		return nil, errors.New("radio is required")
	}

	if err := config.Settings.Validate(); err != nil {
		return nil, errors.Errorf("invalid settings: %v", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	m := &Manager{
		radio:    config.Radio,
		settings: config.Settings,
		catalog:  NewCatalog(config.Catalog),
		clock:    clk,
		log:      logger,
		state:    StateBoot,
		powered:  true,
	}

	m.scanner = NewScanner(m.radio, logger, m.settings.ScanTimeout)
	m.fallback = NewFallback(m.radio, logger, m.settings)
	m.roaming = NewRoaming(m.settings)

	return m, nil
}

func (m *Manager) State() State {
	return m.state
}

func (m *Manager) Locked() bool {
	return m.locked
}

func (m *Manager) Powered() bool {
	return m.powered
}

func (m *Manager) Connected() bool {
	return m.linkUp
}

// Attempts counts connection attempts handed to the radio.
func (m *Manager) Attempts() int {
	return m.attempts
}

func (m *Manager) Catalog() Catalog {
	return slices.Clone(m.catalog)
}

func (m *Manager) Settings() Settings {
	return m.settings
}

// Subscribe registers fn for every published event. Callbacks run inside Tick
// and must only Push further actions.
func (m *Manager) Subscribe(fn func(Event)) {
	m.bus.Subscribe(fn)
}

// Push queues an action. It reports false when the queue is disabled.
func (m *Manager) Push(action Action) bool {
	if !m.queue.Push(action) {
		m.log.Debugf("Dropped %v, radio is off", action)
		return false
	}

	return true
}

// SetCatalog replaces the configured networks. A running round keeps its copy.
func (m *Manager) SetCatalog(catalog Catalog) {
	m.catalog = NewCatalog(catalog)
	m.rounds = 0
}

// Reconfigure replaces the networks and restarts the station.
func (m *Manager) Reconfigure(catalog Catalog) {
	m.SetCatalog(catalog)

	if !m.radio.StationEnabled() && !m.linkUp {
		m.Push(StationConnect)
		return
	}

	m.Push(StationDisconnect)
	m.Push(StationConnect)
}

func (m *Manager) SetSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	m.settings = settings
	m.scanner.timeout = settings.ScanTimeout
	m.fallback.configure(settings)
	m.roaming.configure(settings)

	return nil
}

// SetReconnectHold keeps the reconnect backoff from being armed while an
// operator is attached. Releasing the hold arms a backoff that was skipped.
func (m *Manager) SetReconnectHold(hold bool) {
	m.hold = hold

	if hold {
		if m.backoff.active() {
			m.backoff.stop()
			m.heldRound = true
		}
		return
	}

	if m.heldRound {
		m.heldRound = false
		m.backoff.arm(m.clock.Now(), m.settings.reconnectInterval())
		m.log.Infof("Reconnect hold released, next round in %v", m.settings.reconnectInterval())
	}
}

// Scan starts an on-demand scan. Callbacks run inside a later Tick.
func (m *Manager) Scan(found func([]ScanResult), failed func(ScanError)) error {
	if !m.powered {
		return ErrScanSystem
	}

	return m.scanner.Start(m.clock.Now(), func(results []ScanResult) {
		sorted := slices.Clone(results)
		slices.SortStableFunc(sorted, func(a, b ScanResult) int {
			return b.RSSI - a.RSSI
		})
		if found != nil {
			found(sorted)
		}
	}, failed)
}

// Tick advances the machine by at most one transition.
func (m *Manager) Tick() {
	if m.bus.Publishing() {
		return
	}

	now := m.clock.Now()

	m.pollTimers(now)
	m.scanner.Poll(now)
	m.checkLink()
	m.step(now)
}

func (m *Manager) pollTimers(now time.Time) {
	if m.retry.expired(now) {
		m.locked = false
		m.Push(StationContinueConnect)
	}

	if m.backoff.expired(now) {
		m.log.Infof("Reconnecting")
		m.Push(StationConnect)
	}

	if m.fallback.Expired(now) {
		m.Push(AccessPointFallbackCheck)
	}

	if m.roaming.Poll(now, m.rssi) {
		m.log.Infof("Signal below %d dBm, looking for a better access point", m.settings.RSSIThreshold)
		m.Push(StationTryConnectBetter)
	}
}

func (m *Manager) rssi() int {
	return m.radio.Station().RSSI
}

func (m *Manager) checkLink() {
	if !m.linkUp || m.radio.LinkStatus() == LinkConnected {
		return
	}

	m.linkUp = false
	m.roaming.Stop()

	m.log.Infof("Station disconnected")
	m.publish(Event{Kind: EventStationDisconnected})

	if !m.radio.StationEnabled() {
		return
	}

	if m.state == StateIdle && m.task == nil {
		m.Push(StationConnect)
		return
	}

	m.reconnectPending = true
}

func (m *Manager) publish(event Event) {
	m.log.Debugf("Event %v", event)
	m.bus.Publish(event)
}

func (m *Manager) currentMode() Mode {
	var mode Mode

	if !m.powered {
		return mode
	}

	if m.radio.StationEnabled() {
		mode |= ModeStation
	}

	if m.radio.AccessPointEnabled() {
		mode |= ModeAccessPoint
	}

	return mode
}

func (m *Manager) publishMode() {
	mode := m.currentMode()
	if mode == m.mode {
		return
	}

	m.mode = mode
	m.publish(Event{Kind: EventMode, Mode: mode})
}

func (m *Manager) transition(state State) {
	if state != m.state {
		m.log.Debugf("%v -> %v", m.state, state)
	}

	m.state = state
}

func (m *Manager) step(now time.Time) {
	switch m.state {
	case StateBoot:
		m.boot()
	case StateIdle:
		m.idle(now)
	case StateInit:
		m.init(now)
	case StateWaitScan:
		m.waitScan()
	case StateWaitScanWithoutCurrent:
		m.waitScanWithoutCurrent()
	case StateConnect:
		m.connect(now)
	case StateWaitConnected:
		m.waitConnected(now)
	case StateTimeout:
		m.timeout(now)
	case StateFallback:
		m.fallbackRound(now)
	case StateTryConnectBetter:
		m.tryConnectBetter(now)
	case StateConnected:
		m.connected(now)
	}
}

func (m *Manager) boot() {
	m.mode = m.currentMode()
	m.publish(Event{Kind: EventInitial})

	if m.settings.Fallback == FallbackAlwaysOn {
		m.Push(AccessPointStart)
	}

	m.Push(StationConnect)

	m.transition(StateIdle)
}

func (m *Manager) idle(now time.Time) {
	if m.locked {
		return
	}

	if m.reconnectPending && m.task == nil {
		m.reconnectPending = false

		if !m.linkUp && m.radio.StationEnabled() {
			m.log.Infof("Link was lost during a round, reconnecting")
			m.Push(StationConnect)
		}
	}

	action, ok := m.queue.Pop()
	if !ok {
		return
	}

	m.log.Debugf("Processing %v", action)

	m.dispatch(now, action)
	m.publishMode()
}

func (m *Manager) dispatch(now time.Time, action Action) {
	switch action {
	case StationConnect:
		if !m.radio.StationEnabled() {
			if err := m.radio.EnableStation(true); err != nil {
				m.log.Errorf("Could not enable station: %v", err)
				return
			}
		}

		if m.linkUp {
			return
		}

		m.backoff.stop()
		m.heldRound = false
		m.reconnectPending = false
		m.transition(StateInit)

	case StationContinueConnect:
		if m.task == nil || m.task.Done() {
			return
		}

		m.transition(StateConnect)

	case StationTryConnectBetter:
		if !m.linkUp {
			return
		}

		m.transition(StateTryConnectBetter)

	case StationDisconnect:
		m.cancel()

		if err := m.radio.Disconnect(); err != nil {
			m.log.Warnf("Could not disconnect: %v", err)
		}

		if err := m.radio.EnableStation(false); err != nil {
			m.log.Errorf("Could not disable station: %v", err)
		}

	case AccessPointFallback:
		m.fallback.Start(now)

	case AccessPointStart:
		m.fallback.StartManual()

	case AccessPointStop:
		m.fallback.Stop()

	case AccessPointFallbackCheck:
		m.fallback.Check(now, m.linkUp)

	case TurnOff:
		if !m.powered {
			return
		}

		m.apWasOn = m.radio.AccessPointEnabled()
		m.cancel()
		m.roaming.Stop()
		m.fallback.Reset()
		m.queue.Clear()
		m.queue.Disable()

		if err := m.radio.SetPower(false); err != nil {
			m.log.Errorf("Could not power off radio: %v", err)
		}

		m.powered = false
		m.log.Infof("Radio turned off")

	case TurnOn:
		if m.powered {
			return
		}

		if err := m.radio.SetPower(true); err != nil {
			m.log.Errorf("Could not power on radio: %v", err)
			return
		}

		m.powered = true
		m.queue.Enable()
		m.Push(StationConnect)

		if m.apWasOn {
			m.Push(AccessPointStart)
		}

		m.log.Infof("Radio turned on")
	}
}

// cancel abandons any connection round in progress.
func (m *Manager) cancel() {
	m.task = nil
	m.rejected = false
	m.locked = false
	m.retry.stop()
	m.backoff.stop()
	m.connectTimer.stop()
	m.heldRound = false
	m.reconnectPending = false
}

func (m *Manager) init(now time.Time) {
	m.publish(Event{Kind: EventStationInit})

	if m.catalog.Empty() {
		m.log.Infof("No networks configured")
		m.transition(StateFallback)
		return
	}

	m.task = NewTask(m.catalog, m.settings.RetryBudget)
	m.rejected = false

	if !m.settings.ScanBeforeConnect {
		m.transition(StateConnect)
		return
	}

	if !m.startScan(now) {
		m.transition(StateConnect)
		return
	}

	m.transition(StateWaitScan)
}

func (m *Manager) startScan(now time.Time) bool {
	m.scanned = nil

	err := m.scanner.Start(now, func(results []ScanResult) {
		m.scanned = &scanReport{results: results}
	}, func(err ScanError) {
		m.scanned = &scanReport{err: err}
	})
	if err != nil {
		m.log.Warnf("Could not scan before connecting: %v", err)
		return false
	}

	m.publish(Event{Kind: EventStationScan})

	return true
}

// takeScan returns the outcome of the scan started by the machine, once.
func (m *Manager) takeScan() (*scanReport, bool) {
	if m.scanned == nil {
		if m.scanner.Scanning() {
			return nil, false
		}

		return &scanReport{err: ErrScanSystem}, true
	}

	report := m.scanned
	m.scanned = nil

	return report, true
}

func (m *Manager) waitScan() {
	report, ok := m.takeScan()
	if !ok {
		return
	}

	if report.err != 0 {
		m.log.Infof("Scan failed (%v), keeping configured order", report.err)
	} else {
		ranked := Rank(report.results)
		m.task.Sort(ranked)
		m.log.Debugf("Ranked %d networks, candidates: %v", len(ranked), m.task.Candidates())
	}

	m.transition(StateConnect)
}

func (m *Manager) waitScanWithoutCurrent() {
	report, ok := m.takeScan()
	if !ok {
		return
	}

	if report.err != 0 {
		m.log.Infof("Scan failed (%v), staying on current access point", report.err)
		m.task = nil
		m.transition(StateIdle)
		return
	}

	current := m.radio.Station().BSSID

	m.task.Sort(Rank(report.results))

	if !m.task.Prune() || !m.task.Filter(current) {
		m.log.Infof("No better access point than %v", current)
		m.task = nil
		m.transition(StateIdle)
		return
	}

	m.log.Infof("Trying better access point, candidates: %v", m.task.Candidates())

	m.transition(StateConnect)
}

func (m *Manager) connect(now time.Time) {
	network, ok := m.task.Current()
	if !ok {
		m.transition(StateFallback)
		return
	}

	if err := network.Validate(); err != nil {
		m.log.Warnf("Skipping %v: %v", network, err)
		m.rejected = true
		m.transition(StateTimeout)
		return
	}

	req := ConnectRequest{
		SSID:       network.SSID,
		Passphrase: network.Passphrase,
	}

	if network.Static != nil {
		// already validated
		req.Static, _ = network.Static.Parse()
	}

	if bssid, channel, learned := network.Learned(); learned {
		req.BSSID = bssid
		req.Channel = channel
	}

	m.attempts++

	if err := m.radio.Connect(req); err != nil {
		m.log.Warnf("Radio rejected %v: %v", network, err)
		m.rejected = true
		m.transition(StateTimeout)
		return
	}

	m.log.Infof("Connecting to %v, attempt %d", network, m.task.Retries()+1)

	m.publish(Event{Kind: EventStationConnecting, Network: network.SSID})

	m.connectTimer.arm(now, m.settings.ConnectTimeout)
	m.transition(StateWaitConnected)
}

func (m *Manager) waitConnected(now time.Time) {
	status := m.radio.LinkStatus()

	switch {
	case status == LinkConnected:
		m.connectTimer.stop()
		m.transition(StateConnected)

	case status.Terminal():
		m.log.Warnf("Connection failed: %v", status)
		m.connectTimer.stop()
		m.transition(StateTimeout)

	case m.connectTimer.expired(now):
		m.log.Warnf("Connection timed out after %v", m.settings.ConnectTimeout)
		m.transition(StateTimeout)
	}
}

func (m *Manager) timeout(now time.Time) {
	m.locked = false
	m.retry.stop()
	m.connectTimer.stop()

	m.publish(Event{Kind: EventStationTimeout})

	if err := m.radio.Disconnect(); err != nil {
		m.log.Warnf("Could not disconnect: %v", err)
	}

	var more bool
	if m.rejected {
		m.rejected = false
		more = m.task.Skip()
	} else {
		more = m.task.Next()
	}

	if !more {
		m.log.Infof("All networks failed")
		m.transition(StateFallback)
		return
	}

	m.retry.arm(now, m.settings.RetryInterval)
	m.locked = true

	m.transition(StateIdle)
}

func (m *Manager) fallbackRound(now time.Time) {
	m.task = nil
	m.rounds++

	// the next round is scheduled below, or deliberately not at all
	m.reconnectPending = false

	switch {
	case m.settings.MaxRounds > 0 && m.rounds >= m.settings.MaxRounds:
		m.log.Warnf("Giving up after %d rounds", m.rounds)
	case m.hold:
		m.log.Infof("Reconnect held while an operator is attached")
		m.heldRound = true
		m.publish(Event{Kind: EventStationReconnect})
	default:
		interval := m.settings.reconnectInterval()
		m.backoff.arm(now, interval)
		m.log.Infof("Next round in %v", interval)
		m.publish(Event{Kind: EventStationReconnect})
	}

	m.Push(AccessPointFallback)

	m.transition(StateIdle)
}

func (m *Manager) tryConnectBetter(now time.Time) {
	if !m.settings.ScanPeriodic || m.catalog.Empty() {
		m.transition(StateIdle)
		return
	}

	m.task = NewTask(m.catalog, m.settings.RetryBudget)
	m.rejected = false

	if !m.startScan(now) {
		m.task = nil
		m.transition(StateIdle)
		return
	}

	m.transition(StateWaitScanWithoutCurrent)
}

func (m *Manager) connected(now time.Time) {
	m.backoff.stop()
	m.heldRound = false
	m.retry.stop()
	m.locked = false
	m.task = nil
	m.rounds = 0
	m.linkUp = true
	m.reconnectPending = false

	m.roaming.Start(now)

	info := m.radio.Station()

	m.log.Infof("Connected to %s (%v), rssi %d", info.SSID, info.BSSID, info.RSSI)

	m.publish(Event{Kind: EventStationConnected, Network: info.SSID, Station: &info})

	m.fallback.Arm(now)

	m.transition(StateIdle)
}
