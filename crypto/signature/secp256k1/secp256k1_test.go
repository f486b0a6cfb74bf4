package secp256k1

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	sdkSignature "github.com/scrtlabs/secret-sdk-go/crypto/signature"
)

// A helper method that creates a new test secp256k1 signer.
func newTestSigner(t *testing.T) sdkSignature.Signer {
	require := require.New(t)

	// Use the same test private key as in the btcec examples.
	hexPrivateKey := "22a47fa09a223f2aa079edf85a7c2d4f87" + "20ee63e502ee2869afab7de234b80c"

	rawPrivateKey, err := hex.DecodeString(hexPrivateKey)
	require.NoError(err, "DecodeString")
	require.NotNil(rawPrivateKey, "DecodeString")

	signer := NewSigner(rawPrivateKey)
	require.NotNil(signer.Public(), "signer public key should not be nil")

	return signer
}

func TestSecp256k1SignAndVerify(t *testing.T) {
	require := require.New(t)
	s := newTestSigner(t)

	msg1 := []byte("msg1")
	sig1, err := s.Sign(msg1)
	require.NoError(err, "Sign")
	require.Len(sig1, SignatureSize)
	require.True(s.Public().Verify(msg1, sig1), "verification should succeed")

	// Signatures are deterministic.
	sig1b, err := s.Sign(msg1)
	require.NoError(err, "Sign")
	require.EqualValues(sig1, sig1b)

	msg2 := []byte("msg2")
	sig2, err := s.Sign(msg2)
	require.NoError(err, "Sign")
	require.True(s.Public().Verify(msg2, sig2), "verification should succeed")

	require.False(s.Public().Verify(msg1, sig2))
	require.False(s.Public().Verify(msg2, sig1))
	require.False(s.Public().Verify([]byte("foo"), sig2))
	require.False(s.Public().Verify(msg1, []byte("asdfghjkl")))
	require.False(s.Public().Verify(msg1, []byte("")))
	require.False(s.Public().Verify(msg1, make([]byte, SignatureSize)))
}

func TestSecp256k1PubKeySerDes(t *testing.T) {
	require := require.New(t)
	s := newTestSigner(t)

	spk := s.Public()
	require.NotNil(spk, "signer public key should not be nil")

	pk, ok := spk.(PublicKey)
	require.True(ok, "signer public key should be a secp256k1 public key")

	mstr := pk.String()
	require.EqualValues("AqZzY4y5WHy2jqCNvvaFxvLSp1Gos8byp+mkmZ5uS/r1", mstr)
	require.EqualValues(mstr, s.String())

	mbin, err := pk.MarshalBinary()
	require.NoError(err, "MarshalBinary")
	require.Len(mbin, 33)

	var upk PublicKey
	err = upk.UnmarshalBinary(mbin)
	require.NoError(err, "UnmarshalBinary")
	require.True(pk.Equal(upk))
	require.True(upk.Equal(pk))

	mtxt, err := pk.MarshalText()
	require.NoError(err, "MarshalText")

	var utpk PublicKey
	err = utpk.UnmarshalText(mtxt)
	require.NoError(err, "UnmarshalText")
	require.True(pk.Equal(utpk))

	mjson, err := json.Marshal(pk)
	require.NoError(err, "MarshalJSON")
	require.JSONEq(`{"type":"tendermint/PubKeySecp256k1","value":"AqZzY4y5WHy2jqCNvvaFxvLSp1Gos8byp+mkmZ5uS/r1"}`, string(mjson))

	var ujpk PublicKey
	require.NoError(json.Unmarshal(mjson, &ujpk))
	require.True(pk.Equal(ujpk))
	require.Error(json.Unmarshal([]byte(`{"type":"tendermint/PubKeyEd25519","value":""}`), &ujpk))

	var x PublicKey
	require.Error(x.UnmarshalText([]byte("asdf")))
	require.Error(x.UnmarshalBinary([]byte("ghij")))
}
