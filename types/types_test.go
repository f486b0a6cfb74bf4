package types

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrtlabs/secret-sdk-go/crypto/signature/secp256k1"
)

func TestNonce(t *testing.T) {
	require := require.New(t)

	var zero Nonce
	require.True(zero.IsZero())
	require.Nil(zero.Bytes())
	require.EqualValues(0, zero.Len())

	raw := []byte{1, 2, 3, 4}
	n := NewNonce(raw)
	require.False(n.IsZero())
	require.EqualValues(4, n.Len())
	require.EqualValues("01020304", n.String())

	// Mutating the input or the output must not affect the nonce.
	raw[0] = 0xff
	out := n.Bytes()
	out[1] = 0xff
	require.EqualValues([]byte{1, 2, 3, 4}, n.Bytes())

	require.True(n.Equal(NewNonce([]byte{1, 2, 3, 4})))
	require.False(n.Equal(NewNonce([]byte{1, 2, 3, 5})))
	require.False(n.Equal(zero))

	text, err := n.MarshalText()
	require.NoError(err)
	var dec Nonce
	require.NoError(dec.UnmarshalText(text))
	require.True(n.Equal(dec))
	require.Error(dec.UnmarshalText([]byte("zz")))
}

func TestCodeHash(t *testing.T) {
	require := require.New(t)

	h := NewCodeHash([]byte("hello"))
	require.EqualValues("2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", h.String())

	parsed, err := ParseCodeHash("2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824")
	require.NoError(err)
	require.True(h.Equal(parsed))

	parsed, err = ParseCodeHash("0x" + h.String())
	require.NoError(err)
	require.EqualValues(h, parsed)

	for _, bad := range []string{
		"",
		"2cf24dba",
		"zz" + h.String()[2:],
		h.String() + "00",
	} {
		_, err = ParseCodeHash(bad)
		require.Error(err, bad)
	}

	raw, err := json.Marshal(h)
	require.NoError(err)
	require.EqualValues(`"`+h.String()+`"`, string(raw))
	require.False(h.IsEmpty())
	require.True(CodeHash{}.IsEmpty())
}

func TestAddress(t *testing.T) {
	require := require.New(t)

	var zero Address
	require.EqualValues("secret1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq3x5k6p", zero.String())

	rawPk, _ := hex.DecodeString("02a673638cb9587cb68ea08dbef685c6f2d2a751a8b3c6f2a7e9a4999e6e4bfaf5")
	var pk secp256k1.PublicKey
	require.NoError(pk.UnmarshalBinary(rawPk))
	addr := NewAddress(pk)
	require.EqualValues("secret18hhywutw8na90h69zy688f3396l2auc3a7fywf", addr.String())

	parsed, err := ParseAddress(addr.String())
	require.NoError(err)
	require.True(addr.Equal(parsed))

	raw, err := json.Marshal(addr)
	require.NoError(err)
	var dec Address
	require.NoError(json.Unmarshal(raw, &dec))
	require.EqualValues(addr, dec)

	_, err = ParseAddress("cosmos1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqnrql8a")
	require.Error(err, "foreign prefix should be rejected")
	_, err = ParseAddress("secret1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq3x5k6q")
	require.Error(err, "bad checksum should be rejected")
	require.Error(dec.UnmarshalBinary([]byte{1, 2, 3}))
}

func TestSignBytesSorted(t *testing.T) {
	require := require.New(t)

	msg, err := NewMsg(MsgTypeSend, &MsgSend{
		Amount: Coins{{Denom: "uscrt", Amount: "1"}},
	})
	require.NoError(err)

	doc := NewStdSignDoc("secret-4", 7, 3, NewStdFee(200000), "memo <&>", msg)
	sb, err := doc.SignBytes()
	require.NoError(err)
	require.EqualValues(
		`{"account_number":"7","chain_id":"secret-4","fee":{"amount":[],"gas":"200000"},"memo":"memo <&>",`+
			`"msgs":[{"type":"cosmos-sdk/MsgSend","value":{"amount":[{"amount":"1","denom":"uscrt"}],`+
			`"from_address":"secret1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq3x5k6p",`+
			`"to_address":"secret1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq3x5k6p"}}],"sequence":"3"}`,
		string(sb),
	)
}

func TestMsgExecuteContractEncoding(t *testing.T) {
	require := require.New(t)

	raw, err := json.Marshal(&MsgExecuteContract{Msg: []byte{0xde, 0xad}})
	require.NoError(err)

	var generic map[string]interface{}
	require.NoError(json.Unmarshal(raw, &generic))
	require.EqualValues(base64.StdEncoding.EncodeToString([]byte{0xde, 0xad}), generic["msg"])
}

func TestFindEvent(t *testing.T) {
	require := require.New(t)

	logs := []Log{
		{MsgIndex: 0, Events: []Event{
			{Type: "message", Attributes: []Attribute{{Key: "action", Value: "instantiate"}}},
			{Type: "wasm", Attributes: []Attribute{{Key: "contract_address", Value: "secret1abc"}}},
		}},
	}
	ev := FindEvent(logs, 0, "message")
	require.NotNil(ev)
	v, ok := ev.FindAttribute("action")
	require.True(ok)
	require.EqualValues("instantiate", v)
	_, ok = ev.FindAttribute("missing")
	require.False(ok)

	require.Nil(FindEvent(logs, 1, "message"))
	require.Nil(FindEvent(logs, 0, "transfer"))
}

type kindedTestError struct{}

func (kindedTestError) Error() string   { return "kinded" }
func (kindedTestError) Kind() ErrorKind { return KindChainIDEmpty }

func TestKindOf(t *testing.T) {
	require := require.New(t)

	require.Equal(KindUnknown, KindOf(nil))
	require.Equal(KindUnknown, KindOf(fmt.Errorf("plain")))
	require.Equal(KindChainIDEmpty, KindOf(kindedTestError{}))
	require.Equal(KindChainIDEmpty, KindOf(fmt.Errorf("wrapped: %w", kindedTestError{})))
	require.EqualValues("chain id empty", KindChainIDEmpty.String())
}
