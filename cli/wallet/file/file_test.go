package file

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrtlabs/secret-sdk-go/cli/wallet"
)

func TestStore(t *testing.T) {
	require := require.New(t)

	store := NewStore(t.TempDir())
	cfg := &Config{Algorithm: wallet.AlgorithmSecp256k1Bip44}

	created, err := store.Create("alice", "correct horse", cfg)
	require.NoError(err)
	require.True(store.Exists("alice"))
	require.Len(created.EncryptionSeed(), 32)

	loaded, err := store.Load("alice", "correct horse", cfg)
	require.NoError(err)
	require.EqualValues(created.Address(), loaded.Address())
	require.EqualValues(created.EncryptionSeed(), loaded.EncryptionSeed())
	require.EqualValues(created.UnsafeExport(), loaded.UnsafeExport())

	_, err = store.Load("alice", "wrong horse", cfg)
	require.ErrorIs(err, ErrWrongPassphrase)

	require.NoError(store.Rename("alice", "carol"))
	require.False(store.Exists("alice"))
	_, err = store.Load("carol", "correct horse", cfg)
	require.NoError(err)

	require.NoError(store.Remove("carol"))
	require.False(store.Exists("carol"))
}

func TestStoreImport(t *testing.T) {
	require := require.New(t)

	store := NewStore(t.TempDir())

	bip44 := &Config{Algorithm: wallet.AlgorithmSecp256k1Bip44, Number: 1}
	w, err := store.Import("m", "pass", bip44, &wallet.ImportSource{Kind: wallet.ImportKindMnemonic, Data: mnemonics[1].mnemonic})
	require.NoError(err)
	require.EqualValues(mnemonics[1].address, w.Address().String())

	raw := &Config{Algorithm: wallet.AlgorithmSecp256k1Raw}
	w, err = store.Import("k", "pass", raw, &wallet.ImportSource{Kind: wallet.ImportKindPrivateKey, Data: privateKeys[0].key})
	require.NoError(err)
	require.EqualValues(privateKeys[0].pubkey, w.Signer().Public().String())

	_, err = store.Import("x", "pass", raw, &wallet.ImportSource{Kind: wallet.ImportKindMnemonic, Data: mnemonics[0].mnemonic})
	require.Error(err, "raw keys cannot be imported from a mnemonic")
	_, err = store.Import("x", "pass", bip44, &wallet.ImportSource{Kind: wallet.ImportKindMnemonic, Data: "not a mnemonic"})
	require.Error(err)
	require.False(store.Exists("x"))

	_, err = store.Create("x", "pass", raw)
	require.Error(err)
}

func TestConfigFromMap(t *testing.T) {
	require := require.New(t)

	cfg, err := ConfigFromMap(map[string]interface{}{"algorithm": wallet.AlgorithmSecp256k1Bip44, "number": uint32(2)})
	require.NoError(err)
	require.EqualValues(2, cfg.Number)
	require.EqualValues("file (secp256k1-bip44:2)", cfg.PrettyKind())

	roundTrip, err := ConfigFromMap(cfg.ToMap())
	require.NoError(err)
	require.EqualValues(cfg, roundTrip)

	_, err = ConfigFromMap(map[string]interface{}{"algorithm": "ed25519-adr8"})
	require.Error(err)
	_, err = ConfigFromMap(nil)
	require.Error(err)
}
