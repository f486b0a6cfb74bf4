// Package wallet defines the accounts the CLI signs transactions with.
package wallet

import (
	"fmt"

	"github.com/scrtlabs/secret-sdk-go/crypto/signature"
	"github.com/scrtlabs/secret-sdk-go/types"
)

const (
	// AlgorithmSecp256k1Bip44 is the Secp256k1 algorithm using BIP-44 derivation with the
	// Secret Network coin type.
	AlgorithmSecp256k1Bip44 = "secp256k1-bip44"
	// AlgorithmSecp256k1Raw is the Secp256k1 algorithm using raw private keys.
	AlgorithmSecp256k1Raw = "secp256k1-raw"
)

// ImportKind is a wallet import kind.
type ImportKind string

// Supported import kinds.
const (
	ImportKindMnemonic   ImportKind = "mnemonic"
	ImportKindPrivateKey ImportKind = "private key"
)

// UnmarshalText decodes a text marshalled import kind.
func (k *ImportKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case string(ImportKindMnemonic):
		*k = ImportKindMnemonic
	case string(ImportKindPrivateKey):
		*k = ImportKindPrivateKey
	default:
		return fmt.Errorf("unknown import kind: %s", string(text))
	}
	return nil
}

// ImportSource is a source of imported wallet key material.
type ImportSource struct {
	Kind ImportKind
	Data string
}

// Wallet is the wallet interface.
type Wallet interface {
	// Signer returns the transaction signer associated with the wallet.
	Signer() signature.Signer

	// Address returns the address associated with the wallet.
	Address() types.Address

	// EncryptionSeed returns the seed of the key pair contract calls are encrypted with.
	//
	// The seed is derived from the wallet's private key so that diagnostics of past calls
	// can be decrypted again later.
	EncryptionSeed() []byte

	// UnsafeExport exports the wallet's secret state.
	UnsafeExport() string
}

// ImportKinds returns all of the available wallet import kinds.
func ImportKinds() []string {
	return []string{
		string(ImportKindMnemonic),
		string(ImportKindPrivateKey),
	}
}

// SupportedAlgorithmsForImport returns the algorithms supported by the given import kind.
func SupportedAlgorithmsForImport(kind *ImportKind) []string {
	if kind == nil {
		return []string{AlgorithmSecp256k1Bip44, AlgorithmSecp256k1Raw}
	}

	switch *kind {
	case ImportKindMnemonic:
		return []string{AlgorithmSecp256k1Bip44}
	case ImportKindPrivateKey:
		return []string{AlgorithmSecp256k1Raw}
	default:
		return []string{}
	}
}
