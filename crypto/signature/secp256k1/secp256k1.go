package secp256k1

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	sdkSignature "github.com/scrtlabs/secret-sdk-go/crypto/signature"
)

// SignatureSize is the size of a compact r || s signature.
const SignatureSize = 64

// PubKeyType is the type name of secp256k1 public keys in transactions.
const PubKeyType = "tendermint/PubKeySecp256k1"

// PublicKey is a Secp256k1 public key.
type PublicKey btcec.PublicKey

type serializedPublicKey struct {
	Type  string `json:"type"`
	Value []byte `json:"value"`
}

func (pk PublicKey) MarshalJSON() ([]byte, error) {
	raw, _ := pk.MarshalBinary()
	return json.Marshal(serializedPublicKey{Type: PubKeyType, Value: raw})
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var spk serializedPublicKey
	if err := json.Unmarshal(data, &spk); err != nil {
		return err
	}
	if spk.Type != PubKeyType {
		return fmt.Errorf("unsupported public key type '%s'", spk.Type)
	}
	return pk.UnmarshalBinary(spk.Value)
}

// MarshalBinary encodes a public key into compressed binary form.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	bpk := btcec.PublicKey(pk)
	return bpk.SerializeCompressed(), nil
}

// UnmarshalBinary decodes a binary marshaled public key.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	parsedPK, err := btcec.ParsePubKey(data)
	if err != nil {
		return err
	}
	*pk = PublicKey(*parsedPK)
	return nil
}

// MarshalText encodes a public key into text form.
func (pk PublicKey) MarshalText() ([]byte, error) {
	serialized, _ := pk.MarshalBinary()
	return []byte(base64.StdEncoding.EncodeToString(serialized)), nil
}

// UnmarshalText decodes a text marshaled public key.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	decodedPK, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return err
	}
	return pk.UnmarshalBinary(decodedPK)
}

// String returns a string representation of the public key.
func (pk PublicKey) String() string {
	str, _ := pk.MarshalText()
	return string(str)
}

// Equal compares vs another public key for equality.
func (pk PublicKey) Equal(other sdkSignature.PublicKey) bool {
	opk, ok := other.(PublicKey)
	if !ok {
		return false
	}
	obpk := btcec.PublicKey(opk)
	bpk := btcec.PublicKey(pk)
	return bpk.IsEqual(&obpk)
}

// Verify returns true iff the compact signature is valid for the public key over the message.
func (pk PublicKey) Verify(message, signature []byte) bool {
	if len(signature) != SignatureSize {
		return false
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow || r.IsZero() {
		return false
	}
	if overflow := s.SetByteSlice(signature[32:]); overflow || s.IsZero() {
		return false
	}
	digest := sha256.Sum256(message)
	bpk := btcec.PublicKey(pk)
	return ecdsa.NewSignature(&r, &s).Verify(digest[:], &bpk)
}
