package file

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

var privateKeys = []struct {
	key    string
	pubkey string
	valid  bool
}{
	{key: "0x1f1455c61485737accdd610f5ea9ac1e4272c29b4c6c3189a349acc5bb598e7d", pubkey: "AyZKkxNFeyqLI5HGTYqEmCcYxKGo/kueOzSHzdnrSePO", valid: true},
	{key: "1f1455c61485737accdd610f5ea9ac1e4272c29b4c6c3189a349acc5bb598e7d", pubkey: "AyZKkxNFeyqLI5HGTYqEmCcYxKGo/kueOzSHzdnrSePO", valid: true},
	{key: "0x1f1455c61485737accdd610f5ea9ac1e4272c29b4c6c3189a349acc5bb598e7", valid: false},
	{key: "0x1f1455c61485737accdd610f5ea9ac1e4272c29b4c6c3189a349acc5bb598e7d1111", valid: false},
	{key: "", valid: false},
}

var mnemonics = []struct {
	mnemonic string
	num      uint32
	pubkey   string
	address  string
	valid    bool
}{
	{mnemonic: "actor want explain gravity body drill bike update mask wool tell seven", num: 0, pubkey: "Asxnh4de5Ji+O/Ik3JRMN2ErpqbBLz6c9pN/zZG5HqaP", address: "secret1g0e40q3lsmlqmppeevcuqq472rtw5aghy7p9u7", valid: true},
	{mnemonic: "actor want explain gravity body drill bike update mask wool tell seven", num: 1, pubkey: "A4poME1HWsm47ShMh5zsrXTYuy32UUd/t1VV9C8S54SM", address: "secret1zlleqmvugmcs0f8vy7k4a024e8cmszpluqzphd", valid: true},
	{mnemonic: "actorr want explain gravity body drill bike update mask wool tell seven", valid: false},
	{mnemonic: "actor want explain gravity body drill bike update mask wool tell", valid: false},
	{mnemonic: "", valid: false},
}

func TestSecp256k1FromMnemonic(t *testing.T) {
	require := require.New(t)

	for _, m := range mnemonics {
		if m.valid {
			signer, err := Secp256k1FromMnemonic(m.mnemonic, m.num)
			require.NoError(err)
			require.Equal(m.pubkey, signer.Public().String())

			w, err := FromMnemonic(m.mnemonic, m.num)
			require.NoError(err)
			require.Equal(m.address, w.Address().String())
		} else {
			_, err := Secp256k1FromMnemonic(m.mnemonic, 0)
			require.Error(err)
		}
	}
}

func TestSecp256k1FromHex(t *testing.T) {
	require := require.New(t)

	for _, pk := range privateKeys {
		signer, err := Secp256k1FromHex(pk.key)
		if pk.valid {
			require.NoError(err)
			require.Equal(pk.pubkey, signer.Public().String())
		} else {
			require.Error(err)
		}
	}
}

func TestEncryptionSeedFromKey(t *testing.T) {
	require := require.New(t)

	pk, err := secp256k1KeyFromHex(privateKeys[0].key)
	require.NoError(err)
	seed, err := EncryptionSeedFromKey(pk)
	require.NoError(err)
	require.EqualValues("0d2fb4e4d2f41a6da11a7da3f7ea87816b4acf9552e8ca2e88a5a13cc9e1e127", hex.EncodeToString(seed))
}

func TestBip44DerivationPath(t *testing.T) {
	require.EqualValues(t, "m/44'/529'/0'/0/3", Bip44DerivationPath(3))
}
