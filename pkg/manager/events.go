package manager

// EventType identifies a connectivity event reported to the embedding
// application.
type EventType uint8

const (
	// EventScanning - a station scan cycle began.
	EventScanning EventType = iota

	// EventConnecting - a connect attempt to a network was issued.
	EventConnecting

	// EventConnected - the station acquired an address.
	EventConnected

	// EventDisconnected - an established connection was lost.
	EventDisconnected

	// EventProvisioningEnter - provisioning mode became active.
	EventProvisioningEnter

	// EventProvisioningExit - provisioning mode ended.
	EventProvisioningExit
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventScanning:
		return "SCANNING"
	case EventConnecting:
		return "CONNECTING"
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventProvisioningEnter:
		return "PROVISIONING_ENTER"
	case EventProvisioningExit:
		return "PROVISIONING_EXIT"
	default:
		return "UNKNOWN"
	}
}

// Event is one connectivity notification.
type Event struct {
	// Type identifies the event.
	Type EventType

	// SSID is set for EventConnecting and EventConnected.
	SSID string
}

// EventCallback receives connectivity events. Callbacks run on
// internal goroutines and must not block for long. Calling back into
// the manager is allowed.
type EventCallback func(Event)
