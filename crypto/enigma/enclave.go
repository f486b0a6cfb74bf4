package enigma

import (
	"context"
	"fmt"

	"github.com/oasisprotocol/curve25519-voi/primitives/x25519"

	mraeDeoxysii "github.com/oasisprotocol/oasis-core/go/common/crypto/mrae/deoxysii"

	"github.com/scrtlabs/secret-sdk-go/types"
)

// SealedCall is a call opened by the enclave.
type SealedCall struct {
	Nonce     types.Nonce
	ClientKey x25519.PublicKey
	CodeHash  types.CodeHash
	Msg       []byte
}

// Enclave is the chain side of the scheme. It holds the consensus IO exchange key pair, opens
// calls and seals outputs back to the caller.
type Enclave struct {
	sk x25519.PrivateKey
	pk x25519.PublicKey
}

// NewEnclave creates an enclave with the consensus key pair derived from the given seed.
func NewEnclave(seed []byte) (*Enclave, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("enigma: malformed seed: expected %d bytes, got %d", SeedSize, len(seed))
	}
	e := &Enclave{}
	copy(e.sk[:], seed)
	e.pk = *e.sk.Public()
	return e, nil
}

// PublicKey returns the consensus IO exchange public key.
func (e *Enclave) PublicKey() x25519.PublicKey {
	return e.pk
}

// ConsensusIOPublicKey implements ConsensusKeySource.
func (e *Enclave) ConsensusIOPublicKey(context.Context) ([]byte, error) {
	return append([]byte(nil), e.pk[:]...), nil
}

// OpenCall opens a sealed call as produced by Utils.Encrypt.
func (e *Enclave) OpenCall(ciphertext []byte) (*SealedCall, error) {
	nonce, clientKey, err := ParseHeader(ciphertext)
	if err != nil {
		return nil, err
	}

	pt, err := mraeDeoxysii.Box.Open(nil, nonce.Bytes(), ciphertext[HeaderSize:], nil, &clientKey, &e.sk)
	if err != nil {
		return nil, fmt.Errorf("enigma: failed to open sealed call: %w", err)
	}
	if len(pt) < 2*types.CodeHashSize {
		return nil, fmt.Errorf("enigma: sealed call is missing the code hash")
	}
	codeHash, err := types.ParseCodeHash(string(pt[:2*types.CodeHashSize]))
	if err != nil {
		return nil, fmt.Errorf("enigma: %w", err)
	}

	return &SealedCall{
		Nonce:     nonce,
		ClientKey: clientKey,
		CodeHash:  codeHash,
		Msg:       pt[2*types.CodeHashSize:],
	}, nil
}

// SealOutput seals output of the given call back to its caller.
func (e *Enclave) SealOutput(call *SealedCall, plaintext []byte) []byte {
	return mraeDeoxysii.Box.Seal(nil, call.Nonce.Bytes(), plaintext, nil, &call.ClientKey, &e.sk)
}
