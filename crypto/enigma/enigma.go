// Package enigma implements the transaction encryption scheme used for confidential contract
// calls.
//
// A call is sealed with an X25519 + Deoxys-II MRAE box between a long-lived client key pair
// and the chain's consensus IO exchange key. The sealed call is prefixed with the nonce and
// the client public key so that the enclave can open it and seal its output back to the
// client under the same nonce.
package enigma

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/oasisprotocol/curve25519-voi/primitives/x25519"
	"github.com/oasisprotocol/deoxysii"
	"github.com/oasisprotocol/oasis-core/go/common/logging"

	mraeDeoxysii "github.com/oasisprotocol/oasis-core/go/common/crypto/mrae/deoxysii"

	"github.com/scrtlabs/secret-sdk-go/types"
)

const (
	// NonceSize is the size of the per-call nonce in bytes.
	NonceSize = deoxysii.NonceSize
	// SeedSize is the size of the seed the client key pair is derived from.
	SeedSize = x25519.PrivateKeySize
	// HeaderSize is the size of the nonce and client public key prefix of a sealed call.
	HeaderSize = NonceSize + x25519.PublicKeySize
)

var logger = logging.GetLogger("crypto/enigma")

// ConsensusKeySource provides the chain's consensus IO exchange public key.
type ConsensusKeySource interface {
	// ConsensusIOPublicKey returns the raw X25519 consensus IO exchange public key.
	ConsensusIOPublicKey(ctx context.Context) ([]byte, error)
}

// Utils encrypts contract calls and decrypts what the chain returns for them.
type Utils struct {
	source ConsensusKeySource

	sk x25519.PrivateKey
	pk x25519.PublicKey

	mu          sync.Mutex
	consensusPK *x25519.PublicKey
}

// GenerateNewSeed generates a new random seed for the client key pair.
func GenerateNewSeed() ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("enigma: failed to generate seed: %w", err)
	}
	return seed, nil
}

// New creates a new instance using the client key pair derived from the given seed. The
// consensus key is fetched from source on first use.
func New(source ConsensusKeySource, seed []byte) (*Utils, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("enigma: malformed seed: expected %d bytes, got %d", SeedSize, len(seed))
	}
	u := &Utils{source: source}
	copy(u.sk[:], seed)
	u.pk = *u.sk.Public()
	return u, nil
}

// PublicKey returns the client public key.
func (u *Utils) PublicKey() x25519.PublicKey {
	return u.pk
}

// ConsensusKey returns the chain's consensus IO exchange public key. A successfully fetched
// key is kept for the lifetime of the instance, failures are not.
func (u *Utils) ConsensusKey(ctx context.Context) (*x25519.PublicKey, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.consensusPK != nil {
		return u.consensusPK, nil
	}

	raw, err := u.source.ConsensusIOPublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("enigma: failed to fetch consensus io public key: %w", err)
	}
	if len(raw) != x25519.PublicKeySize {
		return nil, fmt.Errorf("enigma: malformed consensus io public key: expected %d bytes, got %d", x25519.PublicKeySize, len(raw))
	}
	var pk x25519.PublicKey
	copy(pk[:], raw)
	u.consensusPK = &pk

	logger.Debug("fetched consensus io public key")

	return u.consensusPK, nil
}

// Encrypt seals the given message for the contract with the given code hash under a fresh
// random nonce.
//
// The returned ciphertext is nonce || client public key || sealed(hex(code hash) || msg).
func (u *Utils) Encrypt(ctx context.Context, codeHash types.CodeHash, msg []byte) (*types.EncryptedPayload, error) {
	consensusPK, err := u.ConsensusKey(ctx)
	if err != nil {
		return nil, err
	}

	var nonce [NonceSize]byte
	if _, err = rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("enigma: failed to generate random nonce: %w", err)
	}

	pt := make([]byte, 0, 2*types.CodeHashSize+len(msg))
	pt = append(pt, codeHash.String()...)
	pt = append(pt, msg...)

	ct := make([]byte, 0, HeaderSize+len(pt)+deoxysii.TagSize)
	ct = append(ct, nonce[:]...)
	ct = append(ct, u.pk[:]...)
	ct = mraeDeoxysii.Box.Seal(ct, nonce[:], pt, nil, consensusPK, &u.sk)

	return &types.EncryptedPayload{
		Ciphertext: ct,
		Nonce:      types.NewNonce(nonce[:]),
	}, nil
}

// Decrypt opens ciphertext that the chain sealed for a call made with the given nonce.
func (u *Utils) Decrypt(ctx context.Context, ciphertext []byte, nonce types.Nonce) ([]byte, error) {
	if nonce.Len() != NonceSize {
		return nil, fmt.Errorf("enigma: malformed nonce: expected %d bytes, got %d", NonceSize, nonce.Len())
	}
	consensusPK, err := u.ConsensusKey(ctx)
	if err != nil {
		return nil, err
	}

	pt, err := mraeDeoxysii.Box.Open(nil, nonce.Bytes(), ciphertext, nil, consensusPK, &u.sk)
	if err != nil {
		return nil, fmt.Errorf("enigma: failed to open ciphertext: %w", err)
	}
	return pt, nil
}

// ParseHeader returns the nonce and the client public key a sealed call was made with.
func ParseHeader(ciphertext []byte) (types.Nonce, x25519.PublicKey, error) {
	var clientKey x25519.PublicKey
	if len(ciphertext) < HeaderSize {
		return types.Nonce{}, clientKey, fmt.Errorf("enigma: sealed call too short")
	}
	copy(clientKey[:], ciphertext[NonceSize:HeaderSize])
	return types.NewNonce(ciphertext[:NonceSize]), clientKey, nil
}
