package secp256k1

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	sdkSignature "github.com/scrtlabs/secret-sdk-go/crypto/signature"
)

// PrivateKeySize is the size of a Secp256k1 private key in bytes.
const PrivateKeySize = 32

type Signer struct {
	privateKey *btcec.PrivateKey
}

func (s Signer) Public() sdkSignature.PublicKey {
	return PublicKey(*s.privateKey.PubKey())
}

// Sign produces a deterministic (RFC 6979) signature over the SHA-256 digest of the message,
// encoded as 64 bytes of r || s.
func (s Signer) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	// The first byte of the compact encoding is the recovery code.
	sig := ecdsa.SignCompact(s.privateKey, digest[:], true)
	return sig[1:], nil
}

func (s Signer) String() string {
	return s.Public().String()
}

func (s Signer) Reset() {
	s.privateKey.Zero()
}

// NewSigner creates a new Secp256k1 signer using the given private key.
func NewSigner(pk []byte) sdkSignature.Signer {
	privKey, _ := btcec.PrivKeyFromBytes(pk)
	return Signer{privateKey: privKey}
}
