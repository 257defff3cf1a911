package credentials

import "errors"

// ErrIndexOutOfRange indicates a credential index outside the store.
var ErrIndexOutOfRange = errors.New("credential index out of range")

// MaxStored is the maximum number of saved credentials.
const MaxStored = 10

// Credential is one stored network credential.
type Credential struct {
	// SSID is the network name.
	SSID string `json:"ssid"`

	// Password is the network passphrase (empty for open networks).
	Password string `json:"password"`
}

// Store is the credential store the connectivity stack consumes.
// Implementations must be safe for concurrent use.
//
// List order is significant: index 0 is the default network, and the
// station machine treats the order as the preference order among
// equal-signal candidates.
type Store interface {
	// List returns all stored credentials, default first.
	List() ([]Credential, error)

	// Add stores a credential at the front. An existing entry with
	// the same SSID is replaced. When the store is at capacity, the
	// oldest entry is evicted.
	Add(ssid, password string) error

	// Remove deletes the credential at the given index.
	Remove(index int) error

	// SetDefault moves the credential at the given index to the front.
	SetDefault(index int) error
}
