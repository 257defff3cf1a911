package simradio

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/roam-net/roam-go/pkg/radio"
)

func testEnv() []AP {
	return []AP{
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
			Record: radio.APRecord{
				SSID:    "beta",
				BSSID:   net.HardwareAddr{0xaa, 0, 0, 0, 0, 2},
				RSSI:    -70,
				Channel: 6,
				Auth:    radio.AuthOpen,
			},
		},
	}
}

// collector records events delivered by the driver.
type collector struct {
	mu     sync.Mutex
	events []radio.Event
	seen   chan radio.EventType
}

func newCollector() *collector {
	return &collector{seen: make(chan radio.EventType, 64)}
}

func (c *collector) handle(ev radio.Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	c.seen <- ev.Type
}

func (c *collector) waitFor(t *testing.T, want radio.EventType) radio.EventType {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-c.seen:
			if got == want {
				return got
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func startedStation(t *testing.T) (*Driver, *collector) {
	t.Helper()

	d := New()
	t.Cleanup(d.Close)
	d.SetEnvironment(testEnv())

	if err := d.Init(); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	if err := d.SetMode(radio.ModeStation); err != nil {
		t.Fatalf("SetMode() = %v", err)
	}

	c := newCollector()
	t.Cleanup(d.Subscribe(c.handle))

	if err := d.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	return d, c
}

func TestDriver(t *testing.T) {
	t.Run("RequiresInit", func(t *testing.T) {
		d := New()
		defer d.Close()

		if err := d.SetMode(radio.ModeStation); err != radio.ErrNotInitialized {
			t.Errorf("SetMode() = %v, want ErrNotInitialized", err)
		}
		if err := d.Start(); err != radio.ErrNotInitialized {
			t.Errorf("Start() = %v, want ErrNotInitialized", err)
		}
	})

	t.Run("StationStartEmitsStarted", func(t *testing.T) {
		_, c := startedStation(t)
		c.waitFor(t, radio.EventStationStarted)
	})

	t.Run("ScanReportsEnvironment", func(t *testing.T) {
		d, c := startedStation(t)

		if err := d.ScanStart(); err != nil {
			t.Fatalf("ScanStart() = %v", err)
		}
		c.waitFor(t, radio.EventScanDone)

		records := d.ScanResults()
		if len(records) != 2 {
			t.Fatalf("len(ScanResults()) = %d, want 2", len(records))
		}
		if records[0].SSID != "alpha" || records[1].SSID != "beta" {
			t.Errorf("scan order = [%s, %s], want environment order", records[0].SSID, records[1].SSID)
		}
	})

	t.Run("ConnectSuccessOrder", func(t *testing.T) {
		d, c := startedStation(t)

		if err := d.ConfigureStation(radio.StationConfig{SSID: "alpha", Password: "alpha-pass"}); err != nil {
			t.Fatalf("ConfigureStation() = %v", err)
		}
		if err := d.Connect(); err != nil {
			t.Fatalf("Connect() = %v", err)
		}

		c.waitFor(t, radio.EventStationConnected)
		c.waitFor(t, radio.EventGotAddress)

		info, ok := d.StationInfo()
		if !ok {
			t.Fatal("StationInfo() not ok after connect")
		}
		if info.SSID != "alpha" || info.RSSI != -40 {
			t.Errorf("StationInfo() = %+v", info)
		}

		// Connected order is fixed: association before address.
		c.mu.Lock()
		defer c.mu.Unlock()
		var connIdx, addrIdx = -1, -1
		for i, ev := range c.events {
			switch ev.Type {
			case radio.EventStationConnected:
				connIdx = i
			case radio.EventGotAddress:
				addrIdx = i
			}
		}
		if connIdx == -1 || addrIdx == -1 || connIdx > addrIdx {
			t.Errorf("event order: connected at %d, address at %d", connIdx, addrIdx)
		}
	})

	t.Run("ConnectWrongPassword", func(t *testing.T) {
		d, c := startedStation(t)

		_ = d.ConfigureStation(radio.StationConfig{SSID: "alpha", Password: "wrong-passphrase"})
		if err := d.Connect(); err != nil {
			t.Fatalf("Connect() = %v", err)
		}
		c.waitFor(t, radio.EventStationDisconnected)

		if _, ok := d.StationInfo(); ok {
			t.Error("StationInfo() ok after failed connect")
		}
	})

	t.Run("ConnectWPA2RejectsShortPassphrase", func(t *testing.T) {
		d, c := startedStation(t)

		// Under the 8-byte WPA2 minimum, so no key can be derived.
		_ = d.ConfigureStation(radio.StationConfig{SSID: "alpha", Password: "short"})
		if err := d.Connect(); err != nil {
			t.Fatalf("Connect() = %v", err)
		}
		c.waitFor(t, radio.EventStationDisconnected)

		if _, ok := d.StationInfo(); ok {
			t.Error("StationInfo() ok after failed connect")
		}
	})

	t.Run("ConnectUnknownNetwork", func(t *testing.T) {
		d, c := startedStation(t)

		_ = d.ConfigureStation(radio.StationConfig{SSID: "ghost"})
		if err := d.Connect(); err != nil {
			t.Fatalf("Connect() = %v", err)
		}
		c.waitFor(t, radio.EventStationDisconnected)
	})

	t.Run("SimulateDrop", func(t *testing.T) {
		d, c := startedStation(t)

		_ = d.ConfigureStation(radio.StationConfig{SSID: "beta"})
		_ = d.Connect()
		c.waitFor(t, radio.EventGotAddress)

		d.SimulateDrop()
		c.waitFor(t, radio.EventStationDisconnected)

		if _, ok := d.StationInfo(); ok {
			t.Error("StationInfo() ok after drop")
		}
	})

	t.Run("StopCancelsInFlight", func(t *testing.T) {
		d := New()
		defer d.Close()
		env := testEnv()
		env[0].ConnectDelay = 50 * time.Millisecond
		d.SetEnvironment(env)

		_ = d.Init()
		_ = d.SetMode(radio.ModeStation)

		c := newCollector()
		defer d.Subscribe(c.handle)()

		_ = d.Start()
		_ = d.ConfigureStation(radio.StationConfig{SSID: "alpha", Password: "alpha-pass"})
		_ = d.Connect()

		if err := d.Stop(); err != nil {
			t.Fatalf("Stop() = %v", err)
		}

		// The cancelled connect must not complete.
		time.Sleep(100 * time.Millisecond)
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, ev := range c.events {
			if ev.Type == radio.EventGotAddress || ev.Type == radio.EventStationConnected {
				t.Errorf("event %s delivered after Stop", ev.Type)
			}
		}
	})

	t.Run("UnsubscribeStopsDelivery", func(t *testing.T) {
		d := New()
		defer d.Close()
		_ = d.Init()
		_ = d.SetMode(radio.ModeAPStation)
		_ = d.Start()

		c := newCollector()
		unsubscribe := d.Subscribe(c.handle)

		mac := net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0, 1}
		d.SimulateClientJoin(mac)
		c.waitFor(t, radio.EventAPClientJoined)

		unsubscribe()
		d.SimulateClientLeave(mac)

		time.Sleep(30 * time.Millisecond)
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, ev := range c.events {
			if ev.Type == radio.EventAPClientLeft {
				t.Error("event delivered after unsubscribe")
			}
		}
	})

	t.Run("MACAddresses", func(t *testing.T) {
		d := New()
		defer d.Close()

		sta, err := d.MACAddress(radio.InterfaceStation)
		if err != nil {
			t.Fatalf("MACAddress(station) = %v", err)
		}
		ap, err := d.MACAddress(radio.InterfaceAP)
		if err != nil {
			t.Fatalf("MACAddress(ap) = %v", err)
		}
		if sta.String() == ap.String() {
			t.Error("station and AP interfaces share a MAC")
		}
	})
}
