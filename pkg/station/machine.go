package station

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/roam-net/roam-go/pkg/credentials"
	"github.com/roam-net/roam-go/pkg/eventbits"
	"github.com/roam-net/roam-go/pkg/log"
	"github.com/roam-net/roam-go/pkg/radio"
)

// Machine errors.
var (
	ErrAlreadyStarted = errors.New("station machine already started")
	ErrNoDriver       = errors.New("station machine requires a driver")
	ErrNoCredentials  = errors.New("station machine requires a credential store")
)

// Event bitset flags.
const (
	bitConnected uint32 = 1 << 0
	bitStopped   uint32 = 1 << 1
	bitScanDone  uint32 = 1 << 2
)

// maxReconnectAttempts bounds consecutive reconnects to the same
// candidate before the machine advances to the next one.
const maxReconnectAttempts = 5

// State is the machine state.
type State uint8

const (
	// StateStopped - machine not started or stopped.
	StateStopped State = iota

	// StateScanning - a scan cycle is in progress.
	StateScanning

	// StateConnecting - a connect attempt to a fresh candidate is in flight.
	StateConnecting

	// StateConnected - associated with an address.
	StateConnected

	// StateReconnecting - retrying the same candidate after a drop.
	StateReconnecting

	// StateRescanPending - the queue drained; a backoff timer is armed.
	StateRescanPending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateScanning:
		return "SCANNING"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateRescanPending:
		return "RESCAN_PENDING"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Machine.
type Config struct {
	// Driver is the radio driver (required).
	Driver radio.Driver

	// Credentials is the store scan results are filtered against (required).
	Credentials credentials.Store

	// ScanMinInterval is the initial rescan delay.
	ScanMinInterval time.Duration

	// ScanMaxInterval caps the rescan delay.
	ScanMaxInterval time.Duration

	// MaxTxPower caps transmit power (quarter-dBm, 0 = driver default).
	MaxTxPower int8

	// RememberBSSID pins connect attempts to the scanned BSSID/channel.
	RememberBSSID bool

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// EventLogger is the optional event capture sink.
	EventLogger log.Logger
}

// candidate is one scanned network matched against stored credentials,
// retained for a single connect attempt.
type candidate struct {
	record   radio.APRecord
	password string
}

// Machine is the station connection state machine. Driver events are
// handled one at a time on the driver's delivery goroutine; Start,
// Stop and the read accessors may be called from any goroutine.
type Machine struct {
	config Config
	logger *slog.Logger
	events log.Logger

	bits    *eventbits.Bits
	backoff *Backoff

	mu          sync.Mutex
	started     bool
	state       State
	queue       []candidate
	currentSSID string
	reconnects  int
	// wasConnected makes the disconnect notification edge-triggered:
	// it fires once per Connected->Disconnected transition, never
	// repeatedly while already disconnected.
	wasConnected bool
	ip           net.IP
	lastScan     []radio.APRecord
	rescan       *time.Timer
	unsubscribe  func()

	onScanBegin    func()
	onConnect      func(ssid string)
	onConnected    func(ssid string)
	onDisconnected func()
}

// New creates a station machine. Set callbacks before calling Start.
func New(config Config) (*Machine, error) {
	if config.Driver == nil {
		return nil, ErrNoDriver
	}
	if config.Credentials == nil {
		return nil, ErrNoCredentials
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Machine{
		config:  config,
		logger:  logger,
		events:  log.OrNoop(config.EventLogger),
		bits:    eventbits.New(),
		backoff: NewBackoff(config.ScanMinInterval, config.ScanMaxInterval),
	}, nil
}

// OnScanBegin sets the callback fired when a scan cycle begins.
func (m *Machine) OnScanBegin(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onScanBegin = fn
}

// OnConnect sets the callback fired when a connect attempt to a fresh
// candidate is issued. The argument is the target SSID.
func (m *Machine) OnConnect(fn func(ssid string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = fn
}

// OnConnected sets the callback fired when an address is acquired.
func (m *Machine) OnConnected(fn func(ssid string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = fn
}

// OnDisconnected sets the callback fired once per transition out of
// the connected state.
func (m *Machine) OnDisconnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnected = fn
}

// Start brings up the station interface, registers for driver events
// and begins scanning. Driver failures here are hard errors; anything
// after Start returns feeds the retry policy instead.
func (m *Machine) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.state = StateScanning
	m.mu.Unlock()

	m.bits.Clear(bitStopped | bitScanDone)

	d := m.config.Driver
	if err := d.SetMode(radio.ModeStation); err != nil {
		m.abortStart()
		return fmt.Errorf("set station mode: %w", err)
	}

	unsubscribe := d.Subscribe(m.handleEvent)
	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()

	if err := d.Start(); err != nil {
		unsubscribe()
		m.abortStart()
		return fmt.Errorf("start driver: %w", err)
	}

	if m.config.MaxTxPower != 0 {
		if err := d.SetMaxTxPower(m.config.MaxTxPower); err != nil {
			m.logger.Warn("set max tx power failed", "error", err)
		}
	}

	m.logger.Info("station started")
	return nil
}

// abortStart rolls back a failed Start.
func (m *Machine) abortStart() {
	m.mu.Lock()
	m.started = false
	m.state = StateStopped
	m.unsubscribe = nil
	m.mu.Unlock()
	m.bits.Set(bitStopped)
}

// Stop tears the machine down. Event delivery is unregistered before
// the timer and radio are stopped, so no late event races a state
// transition; the stopped flag is set last so a blocked waiter only
// wakes once teardown is complete. Idempotent.
func (m *Machine) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	m.state = StateStopped
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	rescan := m.rescan
	m.rescan = nil
	m.queue = nil
	m.currentSSID = ""
	m.reconnects = 0
	m.wasConnected = false
	m.ip = nil
	m.mu.Unlock()

	m.logger.Info("station stopping")

	// Unregister first so scan-done cannot trigger a connect mid-teardown.
	if unsubscribe != nil {
		unsubscribe()
	}
	if rescan != nil {
		rescan.Stop()
	}

	d := m.config.Driver
	if err := d.ScanStop(); err != nil {
		m.logger.Debug("scan stop failed", "error", err)
	}
	if err := d.Disconnect(); err != nil {
		m.logger.Debug("disconnect failed", "error", err)
	}
	if err := d.Stop(); err != nil {
		m.logger.Warn("driver stop failed", "error", err)
	}

	m.bits.Clear(bitConnected)
	m.bits.Set(bitStopped)
	m.logger.Info("station stopped")
}

// WaitForConnected blocks the caller until the machine is connected or
// stopped, or timeout elapses. It returns true only for connected.
func (m *Machine) WaitForConnected(timeout time.Duration) bool {
	got, ok := m.bits.Wait(bitConnected|bitStopped, false, timeout)
	return ok && got&bitConnected != 0
}

// IsConnected reports whether the station holds an address.
func (m *Machine) IsConnected() bool {
	return m.bits.Get()&bitConnected != 0
}

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SSID returns the SSID of the current or most recent candidate.
func (m *Machine) SSID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentSSID
}

// IPAddress returns the acquired address, or nil when not connected.
func (m *Machine) IPAddress() net.IP {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ip
}

// RSSI returns the current signal strength, or 0 when not connected.
func (m *Machine) RSSI() int {
	if !m.IsConnected() {
		return 0
	}
	info, ok := m.config.Driver.StationInfo()
	if !ok {
		return 0
	}
	return info.RSSI
}

// Channel returns the current channel, or 0 when not connected.
func (m *Machine) Channel() uint8 {
	if !m.IsConnected() {
		return 0
	}
	info, ok := m.config.Driver.StationInfo()
	if !ok {
		return 0
	}
	return info.Channel
}

// LastScan returns the most recent scan results in ranked order.
func (m *Machine) LastScan() []radio.APRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]radio.APRecord, len(m.lastScan))
	copy(out, m.lastScan)
	return out
}

// SetPowerSave passes the power saving level through to the driver.
func (m *Machine) SetPowerSave(level radio.PowerSaveLevel) error {
	return m.config.Driver.SetPowerSave(level)
}

// handleEvent runs on the driver's event-delivery goroutine.
func (m *Machine) handleEvent(ev radio.Event) {
	switch ev.Type {
	case radio.EventStationStarted:
		m.handleStationStarted()
	case radio.EventScanDone:
		m.bits.Set(bitScanDone)
		m.handleScanDone()
	case radio.EventStationDisconnected:
		m.handleDisconnected()
	case radio.EventGotAddress:
		m.handleGotAddress(ev.Address)
	}
}

// handleStationStarted begins the first scan.
func (m *Machine) handleStationStarted() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.state = StateScanning
	onScanBegin := m.onScanBegin
	m.mu.Unlock()

	if err := m.config.Driver.ScanStart(); err != nil {
		m.logger.Warn("scan start failed", "error", err)
	}
	m.events.Log(log.Event{
		Timestamp: time.Now(),
		Component: log.ComponentStation,
		Category:  log.CategoryScan,
	})
	if onScanBegin != nil {
		onScanBegin()
	}
}

// handleScanDone ranks the scan results, filters them against the
// stored credentials and either starts connecting or schedules a
// rescan with the current backoff interval.
func (m *Machine) handleScanDone() {
	records := m.config.Driver.ScanResults()

	// Stable sort: equal-signal entries keep scan-report order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RSSI > records[j].RSSI
	})

	creds, err := m.config.Credentials.List()
	if err != nil {
		m.logger.Error("credential list failed", "error", err)
		m.events.Log(log.ErrorEvent(log.ComponentStation, err))
	}

	var queue []candidate
	for _, rec := range records {
		for _, c := range creds {
			if c.SSID == rec.SSID {
				m.logger.Info("found known network",
					"ssid", rec.SSID, "bssid", rec.BSSID.String(),
					"rssi", rec.RSSI, "channel", rec.Channel, "auth", rec.Auth.String())
				queue = append(queue, candidate{record: rec, password: c.Password})
				break
			}
		}
	}

	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.lastScan = records
	m.queue = queue
	m.mu.Unlock()

	if len(queue) == 0 {
		m.scheduleRescan()
		return
	}
	m.connectNext()
}

// connectNext pops the highest-ranked candidate and issues a connect
// attempt. The same-candidate reconnect counter starts at zero.
func (m *Machine) connectNext() {
	m.mu.Lock()
	if !m.started || len(m.queue) == 0 {
		m.mu.Unlock()
		return
	}
	cand := m.queue[0]
	m.queue = m.queue[1:]
	m.currentSSID = cand.record.SSID
	m.reconnects = 0
	m.state = StateConnecting
	onConnect := m.onConnect
	m.mu.Unlock()

	m.logger.Info("connecting", "ssid", cand.record.SSID, "rssi", cand.record.RSSI)
	m.events.Log(log.ConnectAttempt(log.ComponentStation, cand.record.SSID, 0))
	if onConnect != nil {
		onConnect(cand.record.SSID)
	}

	cfg := radio.StationConfig{
		SSID:     cand.record.SSID,
		Password: cand.password,
	}
	if m.config.RememberBSSID {
		cfg.Channel = cand.record.Channel
		cfg.BSSID = cand.record.BSSID
		cfg.PinBSSID = true
	}

	if err := radio.IssueConnect(m.config.Driver, cfg); err != nil {
		// Transient: fall through to the next candidate or a rescan.
		m.logger.Warn("connect issue failed", "ssid", cand.record.SSID, "error", err)
		m.events.Log(log.ErrorEvent(log.ComponentStation, err))
		m.advanceAfterFailure()
	}
}

// advanceAfterFailure moves on when a connect could not even be issued.
func (m *Machine) advanceAfterFailure() {
	m.mu.Lock()
	empty := len(m.queue) == 0
	m.mu.Unlock()

	if empty {
		m.scheduleRescan()
		return
	}
	m.connectNext()
}

// handleDisconnected implements the retry/advance/rescan policy.
func (m *Machine) handleDisconnected() {
	m.bits.Clear(bitConnected)

	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	wasConnected := m.wasConnected
	m.wasConnected = false
	m.ip = nil
	onDisconnected := m.onDisconnected

	var (
		retry    bool
		attempt  int
		next     bool
		ssid     = m.currentSSID
		newState State
	)
	switch {
	case m.reconnects < maxReconnectAttempts:
		m.reconnects++
		attempt = m.reconnects
		retry = true
		m.state = StateReconnecting
		newState = StateReconnecting
	case len(m.queue) > 0:
		next = true
		newState = StateConnecting
	default:
		newState = StateRescanPending
	}
	m.mu.Unlock()

	if wasConnected {
		m.logger.Info("disconnected", "ssid", ssid)
		m.events.Log(log.StateChange(log.ComponentStation, StateConnected.String(), newState.String()))
		if onDisconnected != nil {
			onDisconnected()
		}
	}

	switch {
	case retry:
		m.logger.Info("reconnecting", "ssid", ssid,
			"attempt", attempt, "max", maxReconnectAttempts)
		m.events.Log(log.ConnectAttempt(log.ComponentStation, ssid, attempt))
		if err := m.config.Driver.Connect(); err != nil {
			m.logger.Warn("reconnect failed", "ssid", ssid, "error", err)
		}
	case next:
		m.connectNext()
	default:
		m.scheduleRescan()
	}
}

// handleGotAddress finishes a successful connection.
func (m *Machine) handleGotAddress(addr net.IP) {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.ip = addr
	m.wasConnected = true
	m.reconnects = 0
	m.queue = nil
	m.state = StateConnected
	ssid := m.currentSSID
	onConnected := m.onConnected
	m.mu.Unlock()

	// Fast rescan on any future disconnect after good connectivity.
	m.backoff.Reset()
	m.bits.Set(bitConnected)

	m.logger.Info("got address", "ssid", ssid, "ip", addr.String())
	m.events.Log(log.Event{
		Timestamp: time.Now(),
		Component: log.ComponentStation,
		Category:  log.CategoryStateChange,
		OldState:  StateConnecting.String(),
		NewState:  StateConnected.String(),
		SSID:      ssid,
		Address:   addr.String(),
	})
	if onConnected != nil {
		onConnected(ssid)
	}
}

// scheduleRescan arms the backoff timer, then doubles the interval.
func (m *Machine) scheduleRescan() {
	delay := m.backoff.Current()

	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.state = StateRescanPending
	if m.rescan != nil {
		m.rescan.Stop()
	}
	m.rescan = time.AfterFunc(delay, m.rescanFire)
	m.mu.Unlock()

	m.logger.Info("no connectable network, rescan scheduled", "delay", delay)
	m.backoff.Advance()
}

// rescanFire starts the next scan cycle when the backoff timer fires.
func (m *Machine) rescanFire() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.state = StateScanning
	m.mu.Unlock()

	if err := m.config.Driver.ScanStart(); err != nil {
		m.logger.Warn("rescan start failed", "error", err)
	}
}
