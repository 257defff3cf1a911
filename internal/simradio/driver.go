package simradio

import (
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/roam-net/roam-go/pkg/credentials"
	"github.com/roam-net/roam-go/pkg/radio"
)

// AP is one simulated network.
type AP struct {
	// Record is what a scan reports for this network.
	Record radio.APRecord

	// Password is the passphrase a connect attempt must present.
	// Empty means open.
	Password string

	// ConnectDelay is the simulated association latency.
	ConnectDelay time.Duration

	// RefuseConnect makes every connect attempt fail.
	RefuseConnect bool
}

// Timing defaults.
const (
	defaultScanDelay    = 5 * time.Millisecond
	defaultConnectDelay = 5 * time.Millisecond
)

// Fixed simulated hardware addresses.
var (
	stationMAC = net.HardwareAddr{0x02, 0x00, 0x5E, 0xA1, 0xB2, 0xC3}
	apMAC      = net.HardwareAddr{0x02, 0x00, 0x5E, 0xA1, 0xB2, 0xC4}
)

// stationIP is the address handed out on a successful connect.
var stationIP = net.IPv4(192, 168, 1, 50)

// Driver is a simulated radio.Driver.
type Driver struct {
	// ScanDelay overrides the simulated scan duration. Set before use.
	ScanDelay time.Duration

	mu          sync.Mutex
	initialized bool
	running     bool
	mode        radio.Mode
	stationCfg  radio.StationConfig
	apCfg       radio.APConfig
	env         []AP
	scanResults []radio.APRecord
	connected   bool
	currentAP   *AP
	// scanGen and connGen cancel in-flight scans and connects when
	// bumped by ScanStop, Disconnect or Stop.
	scanGen int
	connGen int

	handlersMu sync.RWMutex
	handlers   map[int]radio.EventHandler
	nextID     int

	events   chan radio.Event
	done     chan struct{}
	shutOnce sync.Once
}

var _ radio.Driver = (*Driver)(nil)

// New creates a simulated driver and starts its dispatch goroutine.
// Call Close when done with it.
func New() *Driver {
	d := &Driver{
		ScanDelay: defaultScanDelay,
		handlers:  make(map[int]radio.EventHandler),
		events:    make(chan radio.Event, 64),
		done:      make(chan struct{}),
	}
	go d.dispatch()
	return d
}

// Close stops the dispatch goroutine. Events emitted after Close are
// dropped.
func (d *Driver) Close() {
	d.shutOnce.Do(func() {
		close(d.done)
	})
}

// SetEnvironment replaces the set of visible networks.
func (d *Driver) SetEnvironment(env []AP) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.env = make([]AP, len(env))
	copy(d.env, env)
}

// SimulateDrop severs the current association, as if the access point
// went away.
func (d *Driver) SimulateDrop() {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return
	}
	d.connected = false
	d.currentAP = nil
	d.connGen++
	d.mu.Unlock()

	d.emit(radio.Event{Type: radio.EventStationDisconnected})
}

// SimulateClientJoin reports a client association on the hosted AP.
func (d *Driver) SimulateClientJoin(mac net.HardwareAddr) {
	d.emit(radio.Event{Type: radio.EventAPClientJoined, ClientMAC: mac})
}

// SimulateClientLeave reports a client disassociation on the hosted AP.
func (d *Driver) SimulateClientLeave(mac net.HardwareAddr) {
	d.emit(radio.Event{Type: radio.EventAPClientLeft, ClientMAC: mac})
}

// Init implements radio.Driver.
func (d *Driver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
	return nil
}

// SetMode implements radio.Driver.
func (d *Driver) SetMode(mode radio.Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return radio.ErrNotInitialized
	}
	d.mode = mode
	return nil
}

// ConfigureStation implements radio.Driver.
func (d *Driver) ConfigureStation(cfg radio.StationConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return radio.ErrNotInitialized
	}
	d.stationCfg = cfg
	return nil
}

// ConfigureAP implements radio.Driver.
func (d *Driver) ConfigureAP(cfg radio.APConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return radio.ErrNotInitialized
	}
	d.apCfg = cfg
	return nil
}

// Start implements radio.Driver. In station mode it emits
// EventStationStarted once the interface is "up".
func (d *Driver) Start() error {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return radio.ErrNotInitialized
	}
	d.running = true
	mode := d.mode
	d.mu.Unlock()

	if mode == radio.ModeStation {
		d.emit(radio.Event{Type: radio.EventStationStarted})
	}
	return nil
}

// Stop implements radio.Driver. In-flight scans and connects are
// cancelled without emitting completion events.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	d.connected = false
	d.currentAP = nil
	d.scanGen++
	d.connGen++
	return nil
}

// Connect implements radio.Driver. The attempt resolves after the
// target's ConnectDelay: success emits EventStationConnected then
// EventGotAddress, failure emits EventStationDisconnected.
func (d *Driver) Connect() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return radio.ErrDriverStopped
	}
	cfg := d.stationCfg
	d.connGen++
	gen := d.connGen

	var target *AP
	for i := range d.env {
		if d.env[i].Record.SSID == cfg.SSID {
			if cfg.PinBSSID && cfg.BSSID.String() != d.env[i].Record.BSSID.String() {
				continue
			}
			ap := d.env[i]
			target = &ap
			break
		}
	}
	d.mu.Unlock()

	go d.resolveConnect(cfg, target, gen)
	return nil
}

func (d *Driver) resolveConnect(cfg radio.StationConfig, target *AP, gen int) {
	delay := defaultConnectDelay
	if target != nil && target.ConnectDelay > 0 {
		delay = target.ConnectDelay
	}
	time.Sleep(delay)

	ok := target != nil && !target.RefuseConnect && authOK(target, cfg.Password)

	d.mu.Lock()
	if gen != d.connGen || !d.running {
		d.mu.Unlock()
		return
	}
	if ok {
		d.connected = true
		d.currentAP = target
	}
	d.mu.Unlock()

	if !ok {
		d.emit(radio.Event{Type: radio.EventStationDisconnected})
		return
	}
	d.emit(radio.Event{Type: radio.EventStationConnected})
	d.emit(radio.Event{Type: radio.EventGotAddress, Address: stationIP})
}

// authOK checks the presented passphrase against the simulated network.
// WPA2 networks match on the derived pairwise master key, so the
// 8..63-byte passphrase rule applies exactly as on hardware.
func authOK(ap *AP, password string) bool {
	if ap.Record.Auth != radio.AuthWPA2PSK {
		return ap.Password == password
	}
	want, err := credentials.DerivePSK(ap.Record.SSID, ap.Password)
	if err != nil {
		return false
	}
	got, err := credentials.DerivePSK(ap.Record.SSID, password)
	if err != nil {
		return false
	}
	return bytes.Equal(want, got)
}

// Disconnect implements radio.Driver.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	d.currentAP = nil
	d.connGen++
	return nil
}

// ScanStart implements radio.Driver. The scan resolves after ScanDelay
// with a snapshot of the environment.
func (d *Driver) ScanStart() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return radio.ErrDriverStopped
	}
	d.scanGen++
	gen := d.scanGen
	delay := d.ScanDelay
	d.mu.Unlock()

	go func() {
		time.Sleep(delay)

		d.mu.Lock()
		if gen != d.scanGen || !d.running {
			d.mu.Unlock()
			return
		}
		results := make([]radio.APRecord, len(d.env))
		for i, ap := range d.env {
			results[i] = ap.Record
		}
		d.scanResults = results
		d.mu.Unlock()

		d.emit(radio.Event{Type: radio.EventScanDone})
	}()
	return nil
}

// ScanStop implements radio.Driver.
func (d *Driver) ScanStop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanGen++
	return nil
}

// ScanResults implements radio.Driver.
func (d *Driver) ScanResults() []radio.APRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]radio.APRecord, len(d.scanResults))
	copy(out, d.scanResults)
	return out
}

// StationInfo implements radio.Driver.
func (d *Driver) StationInfo() (radio.StationInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected || d.currentAP == nil {
		return radio.StationInfo{}, false
	}
	rec := d.currentAP.Record
	return radio.StationInfo{
		SSID:    rec.SSID,
		BSSID:   rec.BSSID,
		RSSI:    rec.RSSI,
		Channel: rec.Channel,
		IP:      stationIP,
	}, true
}

// MACAddress implements radio.Driver.
func (d *Driver) MACAddress(iface radio.Interface) (net.HardwareAddr, error) {
	if iface == radio.InterfaceAP {
		return apMAC, nil
	}
	return stationMAC, nil
}

// SetMaxTxPower implements radio.Driver.
func (d *Driver) SetMaxTxPower(power int8) error {
	return nil
}

// SetPowerSave implements radio.Driver.
func (d *Driver) SetPowerSave(level radio.PowerSaveLevel) error {
	return nil
}

// Subscribe implements radio.Driver.
func (d *Driver) Subscribe(handler radio.EventHandler) func() {
	d.handlersMu.Lock()
	id := d.nextID
	d.nextID++
	d.handlers[id] = handler
	d.handlersMu.Unlock()

	return func() {
		// Taking the write lock synchronizes with dispatch, so the
		// handler cannot run again once this returns.
		d.handlersMu.Lock()
		delete(d.handlers, id)
		d.handlersMu.Unlock()
	}
}

// emit queues one event for dispatch.
func (d *Driver) emit(ev radio.Event) {
	select {
	case d.events <- ev:
	case <-d.done:
	}
}

// dispatch delivers events to handlers one at a time, in order.
func (d *Driver) dispatch() {
	for {
		select {
		case <-d.done:
			return
		case ev := <-d.events:
			d.handlersMu.RLock()
			for _, h := range d.handlers {
				h(ev)
			}
			d.handlersMu.RUnlock()
		}
	}
}
