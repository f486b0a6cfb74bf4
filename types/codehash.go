package types

import (
	"crypto/sha256"
	"encoding"
	"encoding/hex"
	"fmt"
	"strings"
)

// CodeHashSize is the size of a contract code hash in bytes.
const CodeHashSize = sha256.Size

var (
	_ encoding.TextMarshaler   = CodeHash{}
	_ encoding.TextUnmarshaler = (*CodeHash)(nil)
)

// CodeHash is the SHA-256 digest of the contract bytecode. Its hex form is part of every
// encrypted call so that the enclave can bind the call to the code it targets.
type CodeHash [CodeHashSize]byte

// NewCodeHash computes the code hash of the given contract bytecode.
func NewCodeHash(code []byte) CodeHash {
	return CodeHash(sha256.Sum256(code))
}

// ParseCodeHash parses a hex-encoded code hash. Upper and lower case digits are accepted, an
// optional 0x prefix is stripped.
func ParseCodeHash(text string) (CodeHash, error) {
	var h CodeHash
	if err := h.UnmarshalText([]byte(text)); err != nil {
		return CodeHash{}, err
	}
	return h, nil
}

// MarshalText encodes a code hash into lowercase hex form.
func (h CodeHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a hex-encoded code hash.
func (h *CodeHash) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimSpace(string(text)), "0x")
	if len(s) != 2*CodeHashSize {
		return fmt.Errorf("malformed code hash: expected %d hex characters, got %d", 2*CodeHashSize, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("malformed code hash: %w", err)
	}
	copy(h[:], raw)
	return nil
}

// Equal compares vs another code hash for equality.
func (h CodeHash) Equal(other CodeHash) bool {
	return h == other
}

// IsEmpty returns true iff the code hash is all zeroes.
func (h CodeHash) IsEmpty() bool {
	return h == CodeHash{}
}

// String returns the lowercase hex representation of the code hash.
func (h CodeHash) String() string {
	return hex.EncodeToString(h[:])
}
