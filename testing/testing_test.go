package testing

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestKeys(t *testing.T) {
	require := require.New(t)

	require.EqualValues("034cad27f8d9b026ae800aa8be24e78accfa4c6bbbf059fe362ca66070f868de", hex.EncodeToString(Alice.SecretKey))
	require.EqualValues("A7yjzV/1kow3jdGeDiPvRxnwUFzAwpFS35C8kgc0ZO4E", Alice.Signer.Public().String())
	require.EqualValues("secret1awc8qcjxacu3yxjd8mwg8227ezzkc8dktkyn7m", Alice.Address.String())

	require.EqualValues("AnZ3S/JrzvYo3jwdpouykUDWmrBIbe6I5wWcly19vQTF", Bob.Signer.Public().String())
	require.EqualValues("secret1vpr6aaykaq05h7mfm5yfjc8p0tfzufz2pzhadv", Bob.Address.String())

	require.NotEqualValues(Alice.EncryptionSeed, Bob.EncryptionSeed)
	require.Len(TestAccounts, 2)
	require.NotNil(NewEnclave())
}
