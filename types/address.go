package types

import (
	"crypto/sha256"
	"encoding"
	"fmt"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck

	"github.com/oasisprotocol/oasis-core/go/common/encoding/bech32"

	"github.com/scrtlabs/secret-sdk-go/crypto/signature/secp256k1"
)

// AddressSize is the size of an account or contract address in bytes.
const AddressSize = 20

// AddressBech32HRP is the human readable part of Bech32 encoded addresses.
var AddressBech32HRP = "secret"

var (
	_ encoding.BinaryMarshaler   = Address{}
	_ encoding.BinaryUnmarshaler = (*Address)(nil)
	_ encoding.TextMarshaler     = Address{}
	_ encoding.TextUnmarshaler   = (*Address)(nil)
)

// Address is an account or contract address.
type Address [AddressSize]byte

// MarshalBinary encodes an address into binary form.
func (a Address) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), a[:]...), nil
}

// UnmarshalBinary decodes a binary marshaled address.
func (a *Address) UnmarshalBinary(data []byte) error {
	if len(data) != AddressSize {
		return fmt.Errorf("malformed address: expected %d bytes, got %d", AddressSize, len(data))
	}
	copy(a[:], data)
	return nil
}

// MarshalText encodes an address into Bech32 form.
func (a Address) MarshalText() ([]byte, error) {
	s, err := bech32.Encode(AddressBech32HRP, a[:])
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText decodes a Bech32 encoded address. The human readable part must match
// AddressBech32HRP.
func (a *Address) UnmarshalText(text []byte) error {
	hrp, data, err := bech32.Decode(string(text))
	if err != nil {
		return fmt.Errorf("malformed address: %w", err)
	}
	if hrp != AddressBech32HRP {
		return fmt.Errorf("malformed address: expected prefix '%s', got '%s'", AddressBech32HRP, hrp)
	}
	return a.UnmarshalBinary(data)
}

// Equal compares vs another address for equality.
func (a Address) Equal(cmp Address) bool {
	return a == cmp
}

// IsEmpty returns true iff the address is all zeroes.
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// String returns the Bech32 representation of an address.
func (a Address) String() string {
	s, err := bech32.Encode(AddressBech32HRP, a[:])
	if err != nil {
		return "[malformed]"
	}
	return s
}

// ParseAddress parses a Bech32 encoded address.
func ParseAddress(text string) (Address, error) {
	var a Address
	if err := a.UnmarshalText([]byte(text)); err != nil {
		return Address{}, err
	}
	return a, nil
}

// NewAddress derives the account address of a secp256k1 public key.
func NewAddress(pk secp256k1.PublicKey) (a Address) {
	raw, _ := pk.MarshalBinary()
	sha := sha256.Sum256(raw)
	h := ripemd160.New()
	_, _ = h.Write(sha[:])
	copy(a[:], h.Sum(nil))
	return
}
