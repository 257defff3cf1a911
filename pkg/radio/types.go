package radio

import (
	"errors"
	"net"
)

// Driver errors.
var (
	ErrSSIDEmpty      = errors.New("ssid must not be empty")
	ErrSSIDTooLong    = errors.New("ssid exceeds 32 bytes")
	ErrNotInitialized = errors.New("driver not initialized")
	ErrDriverStopped  = errors.New("driver stopped")
)

// MaxSSIDLen is the 802.11 SSID length limit in bytes.
const MaxSSIDLen = 32

// Mode is the operating mode of the radio.
type Mode uint8

const (
	// ModeOff - radio disabled.
	ModeOff Mode = iota

	// ModeStation - client of an existing access point.
	ModeStation

	// ModeAP - self-hosted access point.
	ModeAP

	// ModeAPStation - access point plus station probe interface.
	ModeAPStation
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "OFF"
	case ModeStation:
		return "STATION"
	case ModeAP:
		return "AP"
	case ModeAPStation:
		return "AP_STATION"
	default:
		return "UNKNOWN"
	}
}

// AuthMode identifies the authentication scheme of a network.
type AuthMode uint8

const (
	AuthOpen AuthMode = iota
	AuthWEP
	AuthWPAPSK
	AuthWPA2PSK
	AuthWPA3PSK
)

// String returns the auth mode name.
func (a AuthMode) String() string {
	switch a {
	case AuthOpen:
		return "OPEN"
	case AuthWEP:
		return "WEP"
	case AuthWPAPSK:
		return "WPA_PSK"
	case AuthWPA2PSK:
		return "WPA2_PSK"
	case AuthWPA3PSK:
		return "WPA3_PSK"
	default:
		return "UNKNOWN"
	}
}

// PowerSaveLevel controls the radio power/latency trade-off.
type PowerSaveLevel uint8

const (
	// PowerSavePerformance disables power saving.
	PowerSavePerformance PowerSaveLevel = iota

	// PowerSaveBalanced enables minimum modem power saving.
	PowerSaveBalanced

	// PowerSaveLow enables maximum modem power saving.
	PowerSaveLow
)

// String returns the power save level name.
func (p PowerSaveLevel) String() string {
	switch p {
	case PowerSavePerformance:
		return "PERFORMANCE"
	case PowerSaveBalanced:
		return "BALANCED"
	case PowerSaveLow:
		return "LOW_POWER"
	default:
		return "UNKNOWN"
	}
}

// Interface selects one of the radio's logical interfaces.
type Interface uint8

const (
	// InterfaceStation is the client interface.
	InterfaceStation Interface = iota

	// InterfaceAP is the access point interface.
	InterfaceAP
)

// APRecord describes one access point discovered by a scan.
type APRecord struct {
	// SSID is the network name.
	SSID string

	// BSSID is the access point MAC address.
	BSSID net.HardwareAddr

	// RSSI is the received signal strength in dBm (negative).
	RSSI int

	// Channel is the primary channel.
	Channel uint8

	// Auth is the advertised authentication mode.
	Auth AuthMode
}

// StationInfo is a snapshot of the current station association.
type StationInfo struct {
	SSID    string
	BSSID   net.HardwareAddr
	RSSI    int
	Channel uint8
	IP      net.IP
}

// StationConfig configures a station connect attempt.
type StationConfig struct {
	// SSID is the target network name (1-32 bytes).
	SSID string

	// Password is the network passphrase (empty for open networks).
	Password string

	// Channel hints the channel to probe first. Zero means unknown.
	Channel uint8

	// BSSID pins the attempt to a specific access point when PinBSSID
	// is set. Roaming between same-SSID access points is then disabled.
	BSSID    net.HardwareAddr
	PinBSSID bool
}

// APConfig configures the self-hosted access point.
type APConfig struct {
	// SSID is the advertised network name.
	SSID string

	// Channel is the operating channel. Zero lets the driver pick.
	Channel uint8

	// MaxClients caps concurrent associations.
	MaxClients int

	// Auth is the authentication mode. Provisioning uses AuthOpen.
	Auth AuthMode

	// Gateway is the access point's own address, handed out as both
	// router and DNS server to joining clients.
	Gateway net.IP

	// Netmask is the subnet mask for the AP network.
	Netmask net.IPMask
}
