package enigma

import (
	"context"
	"crypto/sha512"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrtlabs/secret-sdk-go/types"
)

type flakyKeySource struct {
	enclave *Enclave
	fails   int
	calls   int
}

func (s *flakyKeySource) ConsensusIOPublicKey(ctx context.Context) ([]byte, error) {
	s.calls++
	if s.calls <= s.fails {
		return nil, fmt.Errorf("node unavailable")
	}
	return s.enclave.ConsensusIOPublicKey(ctx)
}

func newTestPair(t testing.TB) (*Utils, *Enclave) {
	require := require.New(t)

	enclaveSeed := sha512.Sum512_256([]byte("enigma test: consensus"))
	enclave, err := NewEnclave(enclaveSeed[:])
	require.NoError(err)

	clientSeed := sha512.Sum512_256([]byte("enigma test: client"))
	u, err := New(enclave, clientSeed[:])
	require.NoError(err)

	return u, enclave
}

func TestEncryptOpenCall(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	u, enclave := newTestPair(t)

	codeHash := types.NewCodeHash([]byte("contract code"))
	msg := []byte(`{"increment":{}}`)

	payload, err := u.Encrypt(ctx, codeHash, msg)
	require.NoError(err)
	require.EqualValues(NonceSize, payload.Nonce.Len())

	call, err := enclave.OpenCall(payload.Ciphertext)
	require.NoError(err)
	require.True(payload.Nonce.Equal(call.Nonce))
	require.EqualValues(u.PublicKey(), call.ClientKey)
	require.EqualValues(codeHash, call.CodeHash)
	require.EqualValues(msg, call.Msg)

	// Tampering with the ciphertext must be detected.
	tampered := append([]byte(nil), payload.Ciphertext...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = enclave.OpenCall(tampered)
	require.Error(err)

	_, err = enclave.OpenCall(payload.Ciphertext[:HeaderSize-1])
	require.Error(err)
}

func TestEncryptIsRandomized(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	u, _ := newTestPair(t)

	codeHash := types.NewCodeHash([]byte("contract code"))
	msg := []byte(`{"a":1}`)

	p1, err := u.Encrypt(ctx, codeHash, msg)
	require.NoError(err)
	p2, err := u.Encrypt(ctx, codeHash, msg)
	require.NoError(err)

	require.False(p1.Nonce.Equal(p2.Nonce), "nonces should differ")
	require.NotEqualValues(p1.Ciphertext, p2.Ciphertext, "ciphertexts should differ")
}

func TestDecryptOutput(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	u, enclave := newTestPair(t)

	payload, err := u.Encrypt(ctx, types.NewCodeHash([]byte("code")), []byte(`{}`))
	require.NoError(err)
	call, err := enclave.OpenCall(payload.Ciphertext)
	require.NoError(err)

	sealed := enclave.SealOutput(call, []byte("contract output"))

	pt, err := u.Decrypt(ctx, sealed, payload.Nonce)
	require.NoError(err)
	require.EqualValues("contract output", string(pt))

	// A different call's nonce must not open the output.
	other, err := u.Encrypt(ctx, types.NewCodeHash([]byte("code")), []byte(`{}`))
	require.NoError(err)
	_, err = u.Decrypt(ctx, sealed, other.Nonce)
	require.Error(err)

	_, err = u.Decrypt(ctx, sealed, types.Nonce{})
	require.Error(err, "missing nonce should fail")
}

func TestDecryptWithOtherClientKey(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	u, enclave := newTestPair(t)

	payload, err := u.Encrypt(ctx, types.NewCodeHash([]byte("code")), []byte(`{}`))
	require.NoError(err)
	call, err := enclave.OpenCall(payload.Ciphertext)
	require.NoError(err)
	sealed := enclave.SealOutput(call, []byte("secret"))

	otherSeed := sha512.Sum512_256([]byte("enigma test: other client"))
	other, err := New(enclave, otherSeed[:])
	require.NoError(err)
	_, err = other.Decrypt(ctx, sealed, payload.Nonce)
	require.Error(err)
}

func TestConsensusKeyFailuresNotCached(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	enclaveSeed := sha512.Sum512_256([]byte("enigma test: consensus"))
	enclave, err := NewEnclave(enclaveSeed[:])
	require.NoError(err)

	src := &flakyKeySource{enclave: enclave, fails: 1}
	seed, err := GenerateNewSeed()
	require.NoError(err)
	u, err := New(src, seed)
	require.NoError(err)

	_, err = u.Encrypt(ctx, types.CodeHash{}, []byte(`{}`))
	require.Error(err)

	_, err = u.Encrypt(ctx, types.CodeHash{}, []byte(`{}`))
	require.NoError(err)
	_, err = u.Encrypt(ctx, types.CodeHash{}, []byte(`{}`))
	require.NoError(err)
	require.EqualValues(2, src.calls, "key should be fetched until the first success only")
}

func TestMalformedSeed(t *testing.T) {
	require := require.New(t)

	_, err := New(nil, []byte{1, 2, 3})
	require.Error(err)
	_, err = NewEnclave(nil)
	require.Error(err)
}

func TestParseHeader(t *testing.T) {
	require := require.New(t)

	u, _ := newTestPair(t)
	payload, err := u.Encrypt(context.Background(), types.NewCodeHash([]byte("code")), []byte(`{}`))
	require.NoError(err)

	nonce, clientKey, err := ParseHeader(payload.Ciphertext)
	require.NoError(err)
	require.True(nonce.Equal(payload.Nonce))
	require.EqualValues(u.PublicKey(), clientKey)

	_, _, err = ParseHeader(payload.Ciphertext[:HeaderSize-1])
	require.Error(err)
}

func BenchmarkEncrypt(b *testing.B) {
	ctx := context.Background()
	u, _ := newTestPair(b)
	codeHash := types.NewCodeHash([]byte("code"))
	msg := []byte(`{"transfer":{"recipient":"secret1g0e40q3lsmlqmppeevcuqq472rtw5aghy7p9u7","amount":"1000"}}`)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := u.Encrypt(ctx, codeHash, msg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecrypt(b *testing.B) {
	ctx := context.Background()
	u, enclave := newTestPair(b)

	payload, err := u.Encrypt(ctx, types.NewCodeHash([]byte("code")), []byte(`{}`))
	if err != nil {
		b.Fatal(err)
	}
	call, err := enclave.OpenCall(payload.Ciphertext)
	if err != nil {
		b.Fatal(err)
	}
	sealed := enclave.SealOutput(call, []byte(`{"generic_err":{"msg":"insufficient balance"}}`))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := u.Decrypt(ctx, sealed, payload.Nonce); err != nil {
			b.Fatal(err)
		}
	}
}
