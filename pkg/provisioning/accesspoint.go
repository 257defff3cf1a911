package provisioning

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roam-net/roam-go/pkg/captivedns"
	"github.com/roam-net/roam-go/pkg/log"
	"github.com/roam-net/roam-go/pkg/radio"
)

// AccessPoint errors.
var (
	ErrAlreadyStarted = errors.New("provisioning access point already started")
)

// Defaults.
const (
	// DefaultScanInterval is the period of the background scan that
	// keeps the web UI's network list fresh.
	DefaultScanInterval = 10 * time.Second

	// DefaultWebPort is the port the provisioning web UI listens on.
	DefaultWebPort = 80

	// DefaultMaxClients caps concurrent AP associations.
	DefaultMaxClients = 4
)

// defaultGateway is the access point's own address.
var defaultGateway = net.IPv4(192, 168, 4, 1)

// Config configures the provisioning access point.
type Config struct {
	// Driver is the radio driver (required).
	Driver radio.Driver

	// SSIDPrefix prefixes the generated AP name; the last three MAC
	// octets are appended for uniqueness.
	SSIDPrefix string

	// Language is the UI language tag announced over mDNS.
	Language string

	// Gateway is the AP address (default 192.168.4.1).
	Gateway net.IP

	// DNSAddr is the DNS responder listen address (default ":53").
	DNSAddr string

	// ScanInterval is the background scan period (default 10s).
	ScanInterval time.Duration

	// VerifyTimeout bounds one credential verification (default 10s).
	VerifyTimeout time.Duration

	// WebPort is the web UI port used in the setup URL and the mDNS
	// announcement (default 80).
	WebPort int

	// DisableMDNS turns off the DNS-SD announcement.
	DisableMDNS bool

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// EventLogger is the optional event capture sink.
	EventLogger log.Logger
}

// AccessPoint hosts the provisioning access point: the AP interface,
// the captive-portal DNS responder, a periodic scan for the web UI's
// network list and the mDNS announcement.
type AccessPoint struct {
	config   Config
	logger   *slog.Logger
	events   log.Logger
	verifier *Verifier
	dns      *captivedns.Server

	mu          sync.Mutex
	started     bool
	ssid        string
	adv         *advertiser
	unsubscribe func()
	tickerStop  chan struct{}
	lastScan    []radio.APRecord
	// clients maps joined client MACs to association IDs.
	clients map[string]string

	onExitRequested func()
}

// New creates a provisioning access point.
func New(config Config) (*AccessPoint, error) {
	if config.Driver == nil {
		return nil, errors.New("provisioning access point requires a driver")
	}
	if config.Gateway == nil {
		config.Gateway = defaultGateway
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = DefaultScanInterval
	}
	if config.WebPort == 0 {
		config.WebPort = DefaultWebPort
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	events := log.OrNoop(config.EventLogger)

	return &AccessPoint{
		config:   config,
		logger:   logger,
		events:   events,
		verifier: NewVerifier(config.Driver, config.VerifyTimeout, logger, events),
		dns: captivedns.NewServer(captivedns.Config{
			Addr:        config.DNSAddr,
			Logger:      logger,
			EventLogger: config.EventLogger,
		}),
		clients: make(map[string]string),
	}, nil
}

// Verifier returns the credential verifier for the web UI.
func (ap *AccessPoint) Verifier() *Verifier {
	return ap.verifier
}

// OnExitRequested sets the callback the web UI triggers (through
// RequestExit) once provisioning is complete.
func (ap *AccessPoint) OnExitRequested(fn func()) {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	ap.onExitRequested = fn
}

// RequestExit signals that provisioning is complete. The registered
// callback runs on the caller's goroutine.
func (ap *AccessPoint) RequestExit() {
	ap.mu.Lock()
	fn := ap.onExitRequested
	ap.mu.Unlock()

	ap.logger.Info("provisioning exit requested")
	if fn != nil {
		fn()
	}
}

// Start brings up the access point, the DNS responder and the
// background scan. A DNS bind failure aborts the start; the caller
// may retry.
func (ap *AccessPoint) Start() error {
	ap.mu.Lock()
	if ap.started {
		ap.mu.Unlock()
		return ErrAlreadyStarted
	}
	ap.mu.Unlock()

	d := ap.config.Driver

	mac, err := d.MACAddress(radio.InterfaceAP)
	if err != nil || len(mac) < 6 {
		return fmt.Errorf("read AP mac: %w", err)
	}
	ssid := fmt.Sprintf("%s-%02X%02X%02X", ap.config.SSIDPrefix, mac[3], mac[4], mac[5])

	if err := d.SetMode(radio.ModeAPStation); err != nil {
		return fmt.Errorf("set AP mode: %w", err)
	}
	if err := d.ConfigureAP(radio.APConfig{
		SSID:       ssid,
		MaxClients: DefaultMaxClients,
		Auth:       radio.AuthOpen,
		Gateway:    ap.config.Gateway,
		Netmask:    net.CIDRMask(24, 32),
	}); err != nil {
		return fmt.Errorf("configure AP: %w", err)
	}
	if err := d.Start(); err != nil {
		return fmt.Errorf("start driver: %w", err)
	}

	if err := ap.dns.Start(ap.config.Gateway); err != nil {
		ap.logger.Error("dns responder start failed", "error", err)
		ap.events.Log(log.ErrorEvent(log.ComponentProvisioning, err))
		if stopErr := d.Stop(); stopErr != nil {
			ap.logger.Warn("driver stop failed", "error", stopErr)
		}
		return fmt.Errorf("start dns responder: %w", err)
	}

	unsubscribe := d.Subscribe(ap.handleEvent)
	tickerStop := make(chan struct{})

	var adv *advertiser
	if !ap.config.DisableMDNS {
		adv, err = newAdvertiser(ssid, ap.config.WebPort, ap.webURL(), ap.config.Language)
		if err != nil {
			// Announcement is best-effort; the captive portal still works.
			ap.logger.Warn("mdns announce failed", "error", err)
			adv = nil
		}
	}

	ap.mu.Lock()
	ap.started = true
	ap.ssid = ssid
	ap.adv = adv
	ap.unsubscribe = unsubscribe
	ap.tickerStop = tickerStop
	ap.lastScan = nil
	ap.clients = make(map[string]string)
	ap.mu.Unlock()

	// First scan right away so the web UI has results immediately.
	if err := d.ScanStart(); err != nil {
		ap.logger.Warn("initial scan failed", "error", err)
	}
	go ap.scanLoop(tickerStop)

	ap.logger.Info("provisioning access point started",
		"ssid", ssid, "gateway", ap.config.Gateway.String(), "url", ap.webURL())
	return nil
}

// Stop tears the access point down. Event delivery is unregistered
// before the radio stops so no late event races teardown. Idempotent.
func (ap *AccessPoint) Stop() {
	ap.mu.Lock()
	if !ap.started {
		ap.mu.Unlock()
		return
	}
	ap.started = false
	unsubscribe := ap.unsubscribe
	ap.unsubscribe = nil
	tickerStop := ap.tickerStop
	ap.tickerStop = nil
	adv := ap.adv
	ap.adv = nil
	ap.clients = make(map[string]string)
	ap.mu.Unlock()

	ap.logger.Info("provisioning access point stopping")

	if unsubscribe != nil {
		unsubscribe()
	}
	if tickerStop != nil {
		close(tickerStop)
	}
	if adv != nil {
		adv.shutdown()
	}

	ap.dns.Stop()

	d := ap.config.Driver
	if err := d.ScanStop(); err != nil {
		ap.logger.Debug("scan stop failed", "error", err)
	}
	if err := d.Stop(); err != nil {
		ap.logger.Warn("driver stop failed", "error", err)
	}

	ap.logger.Info("provisioning access point stopped")
}

// SSID returns the generated AP name, or "" before Start.
func (ap *AccessPoint) SSID() string {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.ssid
}

// WebURL returns the setup URL clients are redirected to.
func (ap *AccessPoint) WebURL() string {
	return ap.webURL()
}

func (ap *AccessPoint) webURL() string {
	if ap.config.WebPort == DefaultWebPort {
		return fmt.Sprintf("http://%s", ap.config.Gateway)
	}
	return fmt.Sprintf("http://%s:%d", ap.config.Gateway, ap.config.WebPort)
}

// LastScan returns the most recent background scan results.
func (ap *AccessPoint) LastScan() []radio.APRecord {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	out := make([]radio.APRecord, len(ap.lastScan))
	copy(out, ap.lastScan)
	return out
}

// ClientCount returns the number of currently associated AP clients.
func (ap *AccessPoint) ClientCount() int {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return len(ap.clients)
}

// scanLoop re-scans periodically while no verification is outstanding.
func (ap *AccessPoint) scanLoop(stop chan struct{}) {
	ticker := time.NewTicker(ap.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if ap.verifier.IsVerifying() {
				continue
			}
			if err := ap.config.Driver.ScanStart(); err != nil {
				ap.logger.Debug("periodic scan failed", "error", err)
			}
		}
	}
}

// handleEvent runs on the driver's event-delivery goroutine.
func (ap *AccessPoint) handleEvent(ev radio.Event) {
	switch ev.Type {
	case radio.EventScanDone:
		records := ap.config.Driver.ScanResults()
		ap.mu.Lock()
		if ap.started {
			ap.lastScan = records
		}
		ap.mu.Unlock()
		ap.events.Log(log.Event{
			Timestamp: time.Now(),
			Component: log.ComponentProvisioning,
			Category:  log.CategoryScan,
		})

	case radio.EventAPClientJoined:
		aid := uuid.NewString()
		ap.mu.Lock()
		if ap.started {
			ap.clients[ev.ClientMAC.String()] = aid
		}
		ap.mu.Unlock()
		ap.logger.Info("client joined", "mac", ev.ClientMAC.String(), "aid", aid)

	case radio.EventAPClientLeft:
		ap.mu.Lock()
		aid := ap.clients[ev.ClientMAC.String()]
		delete(ap.clients, ev.ClientMAC.String())
		ap.mu.Unlock()
		ap.logger.Info("client left", "mac", ev.ClientMAC.String(), "aid", aid)
	}
}
