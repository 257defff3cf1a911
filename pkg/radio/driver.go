package radio

import "net"

// EventType identifies an asynchronous driver event.
type EventType uint8

const (
	// EventStationStarted - the station interface is up and ready to scan.
	EventStationStarted EventType = iota

	// EventScanDone - a scan cycle finished; results are readable via
	// ScanResults until the next scan starts.
	EventScanDone

	// EventStationConnected - 802.11 association and authentication
	// completed. No address has been acquired yet.
	EventStationConnected

	// EventStationDisconnected - the association was lost or a connect
	// attempt failed.
	EventStationDisconnected

	// EventGotAddress - the station acquired an IP address.
	EventGotAddress

	// EventAPClientJoined - a client associated with the hosted AP.
	EventAPClientJoined

	// EventAPClientLeft - a client disassociated from the hosted AP.
	EventAPClientLeft
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventStationStarted:
		return "STATION_STARTED"
	case EventScanDone:
		return "SCAN_DONE"
	case EventStationConnected:
		return "STATION_CONNECTED"
	case EventStationDisconnected:
		return "STATION_DISCONNECTED"
	case EventGotAddress:
		return "GOT_ADDRESS"
	case EventAPClientJoined:
		return "AP_CLIENT_JOINED"
	case EventAPClientLeft:
		return "AP_CLIENT_LEFT"
	default:
		return "UNKNOWN"
	}
}

// Event is one asynchronous driver notification.
type Event struct {
	// Type identifies the event.
	Type EventType

	// Address is set for EventGotAddress.
	Address net.IP

	// ClientMAC is set for AP client join/leave events.
	ClientMAC net.HardwareAddr
}

// EventHandler receives driver events. Handlers run on the driver's
// event-delivery goroutine and must not block for long.
type EventHandler func(Event)

// Driver is the narrow command/event interface the connectivity stack
// drives. Implementations wrap a real wireless chip or a simulation.
//
// All methods are safe for concurrent use. Command methods return
// quickly; completion is signalled through the event stream.
type Driver interface {
	// Init brings up the driver. Idempotent.
	Init() error

	// SetMode selects the operating mode. The radio must be stopped.
	SetMode(mode Mode) error

	// ConfigureStation sets the credentials for the next Connect.
	ConfigureStation(cfg StationConfig) error

	// ConfigureAP sets the hosted access point parameters.
	ConfigureAP(cfg APConfig) error

	// Start activates the configured mode. In station mode the driver
	// emits EventStationStarted once the interface is ready.
	Start() error

	// Stop deactivates the radio. Pending scans and connects are
	// aborted without emitting further events to new subscribers.
	Stop() error

	// Connect begins an association attempt using the last station
	// config. Completion is EventGotAddress or EventStationDisconnected.
	Connect() error

	// Disconnect drops the current association, if any.
	Disconnect() error

	// ScanStart begins an asynchronous scan ending in EventScanDone.
	ScanStart() error

	// ScanStop aborts a scan in progress.
	ScanStop() error

	// ScanResults returns the records from the most recent scan in
	// scan-report order.
	ScanResults() []APRecord

	// StationInfo returns the current association snapshot.
	// ok is false when not associated.
	StationInfo() (info StationInfo, ok bool)

	// MACAddress returns the hardware address of the given interface.
	MACAddress(iface Interface) (net.HardwareAddr, error)

	// SetMaxTxPower caps transmit power in quarter-dBm units.
	// Zero means driver default.
	SetMaxTxPower(power int8) error

	// SetPowerSave selects the power saving level.
	SetPowerSave(level PowerSaveLevel) error

	// Subscribe registers an event handler and returns a function that
	// unregisters it. After unsubscribe returns, the handler is
	// guaranteed not to be invoked again.
	Subscribe(handler EventHandler) (unsubscribe func())
}
