package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/roam-net/roam-go/pkg/log"
	"github.com/roam-net/roam-go/pkg/provisioning"
	"github.com/roam-net/roam-go/pkg/radio"
	"github.com/roam-net/roam-go/pkg/station"
)

// Manager errors.
var (
	ErrNotInitialized = errors.New("manager not initialized")
	ErrNoDriver       = errors.New("manager requires a driver")
	ErrNoStore        = errors.New("manager requires a credential store")
)

// Mode is the manager's connectivity mode.
type Mode uint8

const (
	// ModeUninitialized - Initialize has not run.
	ModeUninitialized Mode = iota

	// ModeIdle - initialized, no mode active.
	ModeIdle

	// ModeStation - the station machine is active.
	ModeStation

	// ModeProvisioning - the provisioning access point is active.
	ModeProvisioning
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeUninitialized:
		return "UNINITIALIZED"
	case ModeIdle:
		return "IDLE"
	case ModeStation:
		return "STATION"
	case ModeProvisioning:
		return "PROVISIONING"
	default:
		return "UNKNOWN"
	}
}

// Manager orchestrates the connectivity modes. Mode flags and
// component pointers are flipped under the manager lock; component
// Start/Stop and event callbacks always run outside it.
type Manager struct {
	config Config
	logger *slog.Logger
	events log.Logger

	mu       sync.Mutex
	mode     Mode
	mac      string
	station  *station.Machine
	prov     *provisioning.AccessPoint
	callback EventCallback
}

// New creates a manager.
func New(config Config) (*Manager, error) {
	if config.Driver == nil {
		return nil, ErrNoDriver
	}
	if config.Store == nil {
		return nil, ErrNoStore
	}
	config.applyDefaults()

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Manager{
		config: config,
		logger: logger,
		events: log.OrNoop(config.EventLogger),
	}, nil
}

// SetEventCallback sets the connectivity event callback. Pass nil to
// clear it.
func (m *Manager) SetEventCallback(fn EventCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = fn
}

// Initialize brings up the driver and caches the station MAC address.
// Idempotent.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	if m.mode != ModeUninitialized {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.config.Driver.Init(); err != nil {
		return fmt.Errorf("driver init: %w", err)
	}

	var mac string
	if hw, err := m.config.Driver.MACAddress(radio.InterfaceStation); err != nil {
		m.logger.Warn("read station mac failed", "error", err)
	} else {
		mac = strings.ToUpper(hw.String())
	}

	m.mu.Lock()
	if m.mode == ModeUninitialized {
		m.mode = ModeIdle
		m.mac = mac
	}
	m.mu.Unlock()

	m.logger.Info("manager initialized", "mac", mac)
	return nil
}

// StartStation switches to station mode. A provisioning session in
// progress is stopped first, and its exit event is emitted before any
// station event. Calling while station mode is already active is a
// no-op.
func (m *Manager) StartStation() error {
	m.mu.Lock()
	switch m.mode {
	case ModeUninitialized:
		m.mu.Unlock()
		return ErrNotInitialized
	case ModeStation:
		m.mu.Unlock()
		m.logger.Warn("station mode already active")
		return nil
	}
	prov := m.prov
	m.prov = nil
	prior := m.mode
	m.mode = ModeStation
	m.mu.Unlock()

	if prov != nil {
		prov.Stop()
		m.emit(Event{Type: EventProvisioningExit})
	}
	m.events.Log(log.StateChange(log.ComponentManager, prior.String(), ModeStation.String()))

	st, err := station.New(station.Config{
		Driver:          m.config.Driver,
		Credentials:     m.config.Store,
		ScanMinInterval: m.config.ScanMinInterval(),
		ScanMaxInterval: m.config.ScanMaxInterval(),
		MaxTxPower:      m.config.MaxTxPower,
		RememberBSSID:   m.config.RememberBSSID,
		Logger:          m.logger,
		EventLogger:     m.config.EventLogger,
	})
	if err != nil {
		m.revertToIdle()
		return err
	}

	st.OnScanBegin(func() {
		m.emit(Event{Type: EventScanning})
	})
	st.OnConnect(func(ssid string) {
		m.emit(Event{Type: EventConnecting, SSID: ssid})
	})
	st.OnConnected(func(ssid string) {
		m.emit(Event{Type: EventConnected, SSID: ssid})
	})
	st.OnDisconnected(func() {
		m.emit(Event{Type: EventDisconnected})
	})

	if err := st.Start(); err != nil {
		m.revertToIdle()
		return fmt.Errorf("start station: %w", err)
	}

	m.mu.Lock()
	if m.mode != ModeStation {
		// A concurrent stop or mode switch won while the machine was
		// coming up; it owns the mode now.
		m.mu.Unlock()
		st.Stop()
		return nil
	}
	m.station = st
	m.mu.Unlock()
	return nil
}

// StopStation leaves station mode. No-op when station mode is not
// active.
func (m *Manager) StopStation() {
	m.mu.Lock()
	if m.mode != ModeStation {
		m.mu.Unlock()
		return
	}
	st := m.station
	m.station = nil
	m.mode = ModeIdle
	m.mu.Unlock()

	if st != nil {
		st.Stop()
	}
	m.events.Log(log.StateChange(log.ComponentManager, ModeStation.String(), ModeIdle.String()))
	m.emit(Event{Type: EventDisconnected})
}

// StartProvisioning switches to provisioning mode. An active station
// machine is stopped first. Calling while provisioning is already
// active is a no-op.
func (m *Manager) StartProvisioning() error {
	m.mu.Lock()
	switch m.mode {
	case ModeUninitialized:
		m.mu.Unlock()
		return ErrNotInitialized
	case ModeProvisioning:
		m.mu.Unlock()
		m.logger.Warn("provisioning mode already active")
		return nil
	}
	st := m.station
	m.station = nil
	prior := m.mode
	m.mode = ModeProvisioning
	m.mu.Unlock()

	if st != nil {
		st.Stop()
		m.emit(Event{Type: EventDisconnected})
	}
	m.events.Log(log.StateChange(log.ComponentManager, prior.String(), ModeProvisioning.String()))

	ap, err := provisioning.New(provisioning.Config{
		Driver:      m.config.Driver,
		SSIDPrefix:  m.config.SSIDPrefix,
		Language:    m.config.Language,
		DNSAddr:     m.config.DNSAddr,
		DisableMDNS: m.config.DisableMDNS,
		Logger:      m.logger,
		EventLogger: m.config.EventLogger,
	})
	if err != nil {
		m.revertToIdle()
		return err
	}

	// The web UI signals completion; leave provisioning off the UI's
	// request goroutine so its response isn't held up by teardown.
	ap.OnExitRequested(func() {
		go func() {
			if err := m.StartStation(); err != nil {
				m.logger.Error("station start after provisioning failed", "error", err)
			}
		}()
	})

	if err := ap.Start(); err != nil {
		m.revertToIdle()
		return fmt.Errorf("start provisioning: %w", err)
	}

	m.mu.Lock()
	if m.mode != ModeProvisioning {
		m.mu.Unlock()
		ap.Stop()
		return nil
	}
	m.prov = ap
	m.mu.Unlock()

	m.emit(Event{Type: EventProvisioningEnter})
	return nil
}

// StopProvisioning leaves provisioning mode. No-op when provisioning
// is not active.
func (m *Manager) StopProvisioning() {
	m.mu.Lock()
	if m.mode != ModeProvisioning {
		m.mu.Unlock()
		return
	}
	ap := m.prov
	m.prov = nil
	m.mode = ModeIdle
	m.mu.Unlock()

	if ap != nil {
		ap.Stop()
	}
	m.events.Log(log.StateChange(log.ComponentManager, ModeProvisioning.String(), ModeIdle.String()))
	m.emit(Event{Type: EventProvisioningExit})
}

// Shutdown stops whichever mode is active. The manager stays
// initialized.
func (m *Manager) Shutdown() {
	m.StopStation()
	m.StopProvisioning()
	m.logger.Info("manager shut down")
}

// Mode returns the current connectivity mode.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// IsConnected reports whether the station holds an address.
func (m *Manager) IsConnected() bool {
	if st := m.stationMachine(); st != nil {
		return st.IsConnected()
	}
	return false
}

// SSID returns the SSID of the current station candidate, or "".
func (m *Manager) SSID() string {
	if st := m.stationMachine(); st != nil {
		return st.SSID()
	}
	return ""
}

// IPAddress returns the station address, or nil when not connected.
func (m *Manager) IPAddress() net.IP {
	if st := m.stationMachine(); st != nil {
		return st.IPAddress()
	}
	return nil
}

// RSSI returns the station signal strength, or 0 when not connected.
func (m *Manager) RSSI() int {
	if st := m.stationMachine(); st != nil {
		return st.RSSI()
	}
	return 0
}

// Channel returns the station channel, or 0 when not connected.
func (m *Manager) Channel() uint8 {
	if st := m.stationMachine(); st != nil {
		return st.Channel()
	}
	return 0
}

// MACAddress returns the station MAC in AA:BB:CC:DD:EE:FF form, or ""
// before Initialize.
func (m *Manager) MACAddress() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mac
}

// WaitForConnected blocks until the station connects or stops, or the
// timeout elapses. Returns false when station mode is not active.
func (m *Manager) WaitForConnected(timeout time.Duration) bool {
	if st := m.stationMachine(); st != nil {
		return st.WaitForConnected(timeout)
	}
	return false
}

// IsProvisioningActive reports whether provisioning mode is active.
func (m *Manager) IsProvisioningActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode == ModeProvisioning
}

// ProvisioningSSID returns the provisioning AP name, or "".
func (m *Manager) ProvisioningSSID() string {
	if ap := m.provisioningAP(); ap != nil {
		return ap.SSID()
	}
	return ""
}

// WebURL returns the provisioning setup URL, or "".
func (m *Manager) WebURL() string {
	if ap := m.provisioningAP(); ap != nil {
		return ap.WebURL()
	}
	return ""
}

// Provisioning returns the active provisioning access point, or nil.
// The web UI uses it for scan results and credential verification.
func (m *Manager) Provisioning() *provisioning.AccessPoint {
	return m.provisioningAP()
}

// LastScan returns the most recent scan results of the active mode.
func (m *Manager) LastScan() []radio.APRecord {
	if st := m.stationMachine(); st != nil {
		return st.LastScan()
	}
	if ap := m.provisioningAP(); ap != nil {
		return ap.LastScan()
	}
	return nil
}

// SetPowerSave passes the power saving level through to the driver.
func (m *Manager) SetPowerSave(level radio.PowerSaveLevel) error {
	return m.config.Driver.SetPowerSave(level)
}

func (m *Manager) stationMachine() *station.Machine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.station
}

func (m *Manager) provisioningAP() *provisioning.AccessPoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prov
}

// revertToIdle undoes a claimed mode after a failed component start.
func (m *Manager) revertToIdle() {
	m.mu.Lock()
	m.mode = ModeIdle
	m.mu.Unlock()
}

// emit delivers one event to the registered callback, outside the lock.
func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	fn := m.callback
	m.mu.Unlock()

	m.logger.Debug("event", "type", ev.Type.String(), "ssid", ev.SSID)
	if fn != nil {
		fn(ev)
	}
}
