package log

import "time"

// Event is one connectivity log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Component that emitted the event.
	Component Component `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// OldState and NewState are set for state-change events.
	OldState string `cbor:"4,keyasint,omitempty"`
	NewState string `cbor:"5,keyasint,omitempty"`

	// SSID is the network involved, when applicable.
	SSID string `cbor:"6,keyasint,omitempty"`

	// RSSI is the signal strength in dBm, when applicable.
	RSSI int `cbor:"7,keyasint,omitempty"`

	// Channel is the radio channel, when applicable.
	Channel uint8 `cbor:"8,keyasint,omitempty"`

	// Address is an IP address rendered as text, when applicable.
	Address string `cbor:"9,keyasint,omitempty"`

	// Attempt is the retry counter for connect attempts.
	Attempt int `cbor:"10,keyasint,omitempty"`

	// QueryLen is the datagram size for DNS responder events.
	QueryLen int `cbor:"11,keyasint,omitempty"`

	// Error is the error text for error events.
	Error string `cbor:"12,keyasint,omitempty"`
}

// Component identifies the emitting component.
type Component uint8

const (
	// ComponentManager is the connectivity orchestrator.
	ComponentManager Component = 0
	// ComponentStation is the station state machine.
	ComponentStation Component = 1
	// ComponentProvisioning is the provisioning access point.
	ComponentProvisioning Component = 2
	// ComponentDNS is the captive-portal DNS responder.
	ComponentDNS Component = 3
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentManager:
		return "MANAGER"
	case ComponentStation:
		return "STATION"
	case ComponentProvisioning:
		return "PROVISIONING"
	case ComponentDNS:
		return "DNS"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event.
type Category uint8

const (
	// CategoryStateChange is a mode or machine state transition.
	CategoryStateChange Category = 0
	// CategoryScan is a scan begin/complete event.
	CategoryScan Category = 1
	// CategoryConnect is a connect attempt or its outcome.
	CategoryConnect Category = 2
	// CategoryDNSQuery is one answered DNS query.
	CategoryDNSQuery Category = 3
	// CategoryError is a non-fatal error.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryStateChange:
		return "STATE_CHANGE"
	case CategoryScan:
		return "SCAN"
	case CategoryConnect:
		return "CONNECT"
	case CategoryDNSQuery:
		return "DNS_QUERY"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChange builds a state-change event.
func StateChange(c Component, oldState, newState string) Event {
	return Event{
		Timestamp: time.Now(),
		Component: c,
		Category:  CategoryStateChange,
		OldState:  oldState,
		NewState:  newState,
	}
}

// ConnectAttempt builds a connect-attempt event.
func ConnectAttempt(c Component, ssid string, attempt int) Event {
	return Event{
		Timestamp: time.Now(),
		Component: c,
		Category:  CategoryConnect,
		SSID:      ssid,
		Attempt:   attempt,
	}
}

// ErrorEvent builds an error event.
func ErrorEvent(c Component, err error) Event {
	return Event{
		Timestamp: time.Now(),
		Component: c,
		Category:  CategoryError,
		Error:     err.Error(),
	}
}
