package station

import (
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/roam-net/roam-go/internal/simradio"
	"github.com/roam-net/roam-go/pkg/credentials"
	"github.com/roam-net/roam-go/pkg/log"
	"github.com/roam-net/roam-go/pkg/radio"
)

func testEnv() []simradio.AP {
	return []simradio.AP{
		{
			// Listed before alpha in scan-report order, but weaker.
			Record: radio.APRecord{
				SSID:    "beta",
				BSSID:   net.HardwareAddr{0xaa, 0, 0, 0, 0, 2},
				RSSI:    -70,
				Channel: 6,
				Auth:    radio.AuthOpen,
			},
		},
		{
			Record: radio.APRecord{
				SSID:    "alpha",
				BSSID:   net.HardwareAddr{0xaa, 0, 0, 0, 0, 1},
				RSSI:    -40,
				Channel: 1,
				Auth:    radio.AuthWPA2PSK,
			},
			Password: "alpha-pass",
		},
		{
			// Visible but never stored.
			Record: radio.APRecord{
				SSID:    "stranger",
				BSSID:   net.HardwareAddr{0xaa, 0, 0, 0, 0, 3},
				RSSI:    -30,
				Channel: 11,
				Auth:    radio.AuthWPA2PSK,
			},
			Password: "not-ours",
		},
	}
}

func testStore(t *testing.T, ssids ...string) credentials.Store {
	t.Helper()
	store := credentials.NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	passwords := map[string]string{"alpha": "alpha-pass", "beta": ""}
	for _, ssid := range ssids {
		if err := store.Add(ssid, passwords[ssid]); err != nil {
			t.Fatalf("store.Add(%s) = %v", ssid, err)
		}
	}
	return store
}

func newTestMachine(t *testing.T, driver *simradio.Driver, store credentials.Store) *Machine {
	t.Helper()

	if err := driver.Init(); err != nil {
		t.Fatalf("driver.Init() = %v", err)
	}

	m, err := New(Config{
		Driver:          driver,
		Credentials:     store,
		ScanMinInterval: 20 * time.Millisecond,
		ScanMaxInterval: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return m
}

func TestMachineValidation(t *testing.T) {
	store := testStore(t)

	if _, err := New(Config{Credentials: store}); !errors.Is(err, ErrNoDriver) {
		t.Errorf("New(no driver) = %v, want ErrNoDriver", err)
	}

	d := simradio.New()
	defer d.Close()
	if _, err := New(Config{Driver: d}); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("New(no credentials) = %v, want ErrNoCredentials", err)
	}
}

func TestMachineConnectsToBestKnownNetwork(t *testing.T) {
	d := simradio.New()
	defer d.Close()
	d.SetEnvironment(testEnv())

	m := newTestMachine(t, d, testStore(t, "alpha", "beta"))

	var mu sync.Mutex
	var attempts []string
	m.OnConnect(func(ssid string) {
		mu.Lock()
		attempts = append(attempts, ssid)
		mu.Unlock()
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer m.Stop()

	if !m.WaitForConnected(2 * time.Second) {
		t.Fatal("WaitForConnected() timed out")
	}

	// "stranger" is the strongest network but has no stored credential;
	// of the known ones, "alpha" outranks "beta" on signal.
	if got := m.SSID(); got != "alpha" {
		t.Errorf("SSID() = %s, want alpha", got)
	}
	if !m.IsConnected() {
		t.Error("IsConnected() = false after WaitForConnected")
	}
	if ip := m.IPAddress(); ip == nil {
		t.Error("IPAddress() = nil while connected")
	}
	if got := m.State(); got != StateConnected {
		t.Errorf("State() = %s, want CONNECTED", got)
	}
	if rssi := m.RSSI(); rssi != -40 {
		t.Errorf("RSSI() = %d, want -40", rssi)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) == 0 || attempts[0] != "alpha" {
		t.Errorf("connect attempts = %v, want alpha first", attempts)
	}
}

func TestMachineAdvancesAfterReconnectLimit(t *testing.T) {
	d := simradio.New()
	defer d.Close()

	env := testEnv()
	env[1].RefuseConnect = true // alpha never accepts
	d.SetEnvironment(env)

	m := newTestMachine(t, d, testStore(t, "alpha", "beta"))

	var mu sync.Mutex
	var attempts []string
	m.OnConnect(func(ssid string) {
		mu.Lock()
		attempts = append(attempts, ssid)
		mu.Unlock()
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer m.Stop()

	if !m.WaitForConnected(5 * time.Second) {
		t.Fatal("WaitForConnected() timed out")
	}

	// alpha is ranked first but exhausts its retry budget; the machine
	// then advances to beta instead of rescanning.
	if got := m.SSID(); got != "beta" {
		t.Errorf("SSID() = %s, want beta", got)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"alpha", "beta"}
	if len(attempts) != len(want) || attempts[0] != "alpha" || attempts[1] != "beta" {
		t.Errorf("fresh connect attempts = %v, want %v", attempts, want)
	}
}

func TestMachineDisconnectCallbackEdgeTriggered(t *testing.T) {
	d := simradio.New()
	defer d.Close()
	d.SetEnvironment(testEnv())

	m := newTestMachine(t, d, testStore(t, "alpha"))

	var disconnects int32
	var mu sync.Mutex
	m.OnDisconnected(func() {
		mu.Lock()
		disconnects++
		mu.Unlock()
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer m.Stop()

	if !m.WaitForConnected(2 * time.Second) {
		t.Fatal("WaitForConnected() timed out")
	}

	// Take the network away so every retry fails too.
	d.SetEnvironment(nil)
	d.SimulateDrop()

	// Retries and rescans produce a stream of disconnected driver
	// events; the notification fires only on the connected->lost edge.
	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	got := disconnects
	mu.Unlock()
	if got != 1 {
		t.Errorf("OnDisconnected fired %d times, want 1", got)
	}
	if m.IsConnected() {
		t.Error("IsConnected() = true after drop")
	}
}

// captureRecorder collects capture events.
type captureRecorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *captureRecorder) Log(ev log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *captureRecorder) snapshot() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]log.Event, len(r.events))
	copy(out, r.events)
	return out
}

func TestMachineDisconnectCaptureReflectsBranch(t *testing.T) {
	d := simradio.New()
	defer d.Close()
	d.SetEnvironment(testEnv())

	rec := &captureRecorder{}

	if err := d.Init(); err != nil {
		t.Fatalf("driver.Init() = %v", err)
	}
	m, err := New(Config{
		Driver:          d,
		Credentials:     testStore(t, "alpha"),
		ScanMinInterval: 20 * time.Millisecond,
		ScanMaxInterval: 100 * time.Millisecond,
		EventLogger:     rec,
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	if err := m.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer m.Stop()

	if !m.WaitForConnected(2 * time.Second) {
		t.Fatal("WaitForConnected() timed out")
	}

	// alpha stays visible, so the drop leads to a same-candidate retry.
	d.SimulateDrop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range rec.snapshot() {
			if ev.Category == log.CategoryStateChange && ev.OldState == StateConnected.String() {
				if ev.NewState != StateReconnecting.String() {
					t.Fatalf("captured transition CONNECTED -> %s, want %s",
						ev.NewState, StateReconnecting)
				}
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no CONNECTED -> * state change captured after the drop")
}

func TestMachineRescanWhenNothingKnown(t *testing.T) {
	d := simradio.New()
	defer d.Close()
	d.SetEnvironment(testEnv())

	// Store holds nothing the scan can match.
	m := newTestMachine(t, d, testStore(t))

	if err := m.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer m.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s := m.State(); s == StateRescanPending || s == StateScanning {
			if len(m.LastScan()) == 3 {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("State() = %s, want a scan/rescan cycle with results", m.State())
}

func TestMachineConnectsAfterLateCredential(t *testing.T) {
	d := simradio.New()
	defer d.Close()
	d.SetEnvironment(testEnv())

	store := credentials.NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	m := newTestMachine(t, d, store)

	if err := m.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer m.Stop()

	if m.WaitForConnected(100 * time.Millisecond) {
		t.Fatal("connected with an empty credential store")
	}

	// The next rescan picks up the stored network.
	if err := store.Add("alpha", "alpha-pass"); err != nil {
		t.Fatalf("store.Add() = %v", err)
	}
	if !m.WaitForConnected(3 * time.Second) {
		t.Fatal("WaitForConnected() timed out after adding a credential")
	}
	if got := m.SSID(); got != "alpha" {
		t.Errorf("SSID() = %s, want alpha", got)
	}
}

func TestMachineStop(t *testing.T) {
	d := simradio.New()
	defer d.Close()
	d.SetEnvironment(testEnv())

	m := newTestMachine(t, d, testStore(t, "alpha"))

	var mu sync.Mutex
	var lateCallbacks int
	m.OnDisconnected(func() {
		mu.Lock()
		lateCallbacks++
		mu.Unlock()
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if err := m.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() = %v, want ErrAlreadyStarted", err)
	}

	if !m.WaitForConnected(2 * time.Second) {
		t.Fatal("WaitForConnected() timed out")
	}

	m.Stop()

	if m.IsConnected() {
		t.Error("IsConnected() = true after Stop")
	}
	if got := m.State(); got != StateStopped {
		t.Errorf("State() = %s after Stop, want STOPPED", got)
	}
	if m.SSID() != "" {
		t.Errorf("SSID() = %q after Stop, want empty", m.SSID())
	}

	// A waiter must observe the stop promptly rather than time out.
	start := time.Now()
	if m.WaitForConnected(2 * time.Second) {
		t.Error("WaitForConnected() = true on a stopped machine")
	}
	if time.Since(start) > time.Second {
		t.Error("WaitForConnected() blocked on a stopped machine")
	}

	mu.Lock()
	before := lateCallbacks
	mu.Unlock()

	// Driver noise after Stop must not reach the callbacks.
	d.SimulateDrop()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if lateCallbacks != before {
		t.Error("callback fired after Stop")
	}

	// Idempotent.
	m.Stop()
}
