package credentials

import (
	"crypto/sha1"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// WPA2 passphrase limits (IEEE 802.11i Annex H).
const (
	MinPassphraseLen = 8
	MaxPassphraseLen = 63

	// pskIterations is the PBKDF2 iteration count mandated for WPA2.
	pskIterations = 4096

	// PSKLen is the derived pairwise master key length in bytes.
	PSKLen = 32
)

// ErrPassphraseLength indicates a passphrase outside the 8-63 byte range.
var ErrPassphraseLength = errors.New("passphrase must be 8-63 bytes")

// DerivePSK computes the WPA2 pairwise master key from an SSID and
// passphrase: PBKDF2-HMAC-SHA1 with the SSID as salt, 4096 iterations,
// 256-bit output. Drivers that take a precomputed PSK avoid repeating
// this derivation on every connect.
func DerivePSK(ssid, passphrase string) ([]byte, error) {
	if len(passphrase) < MinPassphraseLen || len(passphrase) > MaxPassphraseLen {
		return nil, ErrPassphraseLength
	}
	return pbkdf2.Key([]byte(passphrase), []byte(ssid), pskIterations, PSKLen, sha1.New), nil
}
