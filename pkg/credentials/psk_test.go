package credentials

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestDerivePSK(t *testing.T) {
	t.Run("KnownVector", func(t *testing.T) {
		// IEEE 802.11i Annex H test vector.
		psk, err := DerivePSK("IEEE", "password")
		if err != nil {
			t.Fatalf("DerivePSK() = %v", err)
		}

		want := "f42c6fc52df0ebef9ebb4b90b38a5f902e83fe1b135a70e23aed762e9710a12e"
		if got := hex.EncodeToString(psk); got != want {
			t.Errorf("DerivePSK() = %s, want %s", got, want)
		}
	})

	t.Run("Length", func(t *testing.T) {
		psk, err := DerivePSK("AnySSID", "longenough")
		if err != nil {
			t.Fatalf("DerivePSK() = %v", err)
		}
		if len(psk) != PSKLen {
			t.Errorf("len(psk) = %d, want %d", len(psk), PSKLen)
		}
	})

	t.Run("PassphraseBounds", func(t *testing.T) {
		if _, err := DerivePSK("x", "short"); !errors.Is(err, ErrPassphraseLength) {
			t.Errorf("DerivePSK(short) = %v, want ErrPassphraseLength", err)
		}
		if _, err := DerivePSK("x", strings.Repeat("a", 64)); !errors.Is(err, ErrPassphraseLength) {
			t.Errorf("DerivePSK(64 bytes) = %v, want ErrPassphraseLength", err)
		}
		if _, err := DerivePSK("x", strings.Repeat("a", 63)); err != nil {
			t.Errorf("DerivePSK(63 bytes) = %v, want nil", err)
		}
	})
}
