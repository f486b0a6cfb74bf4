package types

import (
	"bytes"
	"encoding"
	"encoding/hex"
	"fmt"
)

var (
	_ encoding.TextMarshaler   = Nonce{}
	_ encoding.TextUnmarshaler = (*Nonce)(nil)
)

// Nonce is the per-call value produced by the encryption capability when a call payload is
// sealed. The same nonce must be presented again to open anything the chain returns for that
// call, so it is carried alongside the call until the call is fully resolved.
//
// Nonce deliberately does not convert to or from a plain byte slice so that it cannot be
// confused with ciphertext. The zero value means that the call was not encrypted.
type Nonce struct {
	raw []byte
}

// NewNonce creates a nonce from the given raw bytes. The input is copied.
func NewNonce(raw []byte) Nonce {
	if len(raw) == 0 {
		return Nonce{}
	}
	return Nonce{raw: append([]byte(nil), raw...)}
}

// Bytes returns a copy of the raw nonce bytes.
func (n Nonce) Bytes() []byte {
	if n.IsZero() {
		return nil
	}
	return append([]byte(nil), n.raw...)
}

// Len returns the size of the nonce in bytes.
func (n Nonce) Len() int {
	return len(n.raw)
}

// IsZero returns true iff the nonce is unset.
func (n Nonce) IsZero() bool {
	return len(n.raw) == 0
}

// Equal compares vs another nonce for equality.
func (n Nonce) Equal(other Nonce) bool {
	return bytes.Equal(n.raw, other.raw)
}

// MarshalText encodes a nonce into hex form.
func (n Nonce) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(n.raw)), nil
}

// UnmarshalText decodes a hex-encoded nonce.
func (n *Nonce) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("malformed nonce: %w", err)
	}
	*n = NewNonce(raw)
	return nil
}

// String returns the hex representation of the nonce.
func (n Nonce) String() string {
	return hex.EncodeToString(n.raw)
}
