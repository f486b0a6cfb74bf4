// Package testing contains deterministic keys and helpers used in tests.
package testing

import (
	"crypto/sha512"

	"github.com/scrtlabs/secret-sdk-go/crypto/enigma"
	"github.com/scrtlabs/secret-sdk-go/crypto/signature"
	"github.com/scrtlabs/secret-sdk-go/crypto/signature/secp256k1"
	"github.com/scrtlabs/secret-sdk-go/types"
)

// TestKey is a key used for testing.
type TestKey struct {
	SecretKey []byte
	Signer    signature.Signer
	Address   types.Address

	// EncryptionSeed is the seed of the key's transaction encryption key pair.
	EncryptionSeed []byte
}

func newSecp256k1TestKey(seed string) TestKey {
	sk := sha512.Sum512_256([]byte(seed))
	signer := secp256k1.NewSigner(sk[:])
	encSeed := sha512.Sum512_256([]byte(seed + " (tx encryption)"))

	return TestKey{
		SecretKey:      sk[:],
		Signer:         signer,
		Address:        types.NewAddress(signer.Public().(secp256k1.PublicKey)),
		EncryptionSeed: encSeed[:],
	}
}

// NewEnclave returns a simulated enclave holding the test consensus IO exchange key.
func NewEnclave() *enigma.Enclave {
	enclave, err := enigma.NewEnclave(ConsensusSeed[:])
	if err != nil {
		panic(err)
	}
	return enclave
}

var (
	// Alice is the test key A.
	Alice = newSecp256k1TestKey("secret-sdk/test-keys: alice")
	// Bob is the test key B.
	Bob = newSecp256k1TestKey("secret-sdk/test-keys: bob")

	// ConsensusSeed is the seed of the simulated consensus IO exchange key pair.
	ConsensusSeed = sha512.Sum512_256([]byte("secret-sdk/test-keys: consensus io exchange"))

	// TestAccounts contains all test keys.
	TestAccounts = map[string]TestKey{
		"alice": Alice,
		"bob":   Bob,
	}
)
