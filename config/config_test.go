package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	require := require.New(t)

	for _, tc := range []struct {
		id    string
		valid bool
	}{
		{"", false},
		{"ABC", false},
		{"abcabcabcabcabcabcabcabcabcabcabcabcabcabcabcabcabcabcabcabcabcabc", false},
		{"abc(", false},
		{"222", true},
		{"local_secret", true},
		{"my-wallet", true},
		{"-wallet", false},
		{"_wallet", false},
	} {
		if tc.valid {
			require.NoError(ValidateIdentifier(tc.id), tc.id)
		} else {
			require.Error(ValidateIdentifier(tc.id), tc.id)
		}
	}
}

func TestDefaults(t *testing.T) {
	require := require.New(t)

	require.NoError(DefaultNetworks.Validate(), "DefaultNetworks should be valid")
}

func TestNetworkValidate(t *testing.T) {
	require := require.New(t)

	valid := Network{
		ChainID:      "secretdev-1",
		LCD:          "http://localhost:1317",
		Denomination: scrt,
	}
	require.NoError(valid.Validate())

	for _, mutate := range []func(n *Network){
		func(n *Network) { n.ChainID = "" },
		func(n *Network) { n.LCD = "localhost:1317" },
		func(n *Network) { n.LCD = "grpc://localhost:9090" },
		func(n *Network) { n.LCD = "http://" },
		func(n *Network) { n.Denomination.Base = "" },
		func(n *Network) { n.Denomination.Symbol = "" },
	} {
		n := valid
		mutate(&n)
		require.Error(n.Validate())
	}
}

func TestNetworks(t *testing.T) {
	require := require.New(t)

	var nets Networks
	net := &Network{
		ChainID:      "secretdev-1",
		LCD:          "http://localhost:1317",
		Denomination: scrt,
	}

	require.Error(nets.SetDefault("local"))
	require.NoError(nets.Add("local", net))
	require.EqualValues("local", nets.Default, "first network should become the default")
	require.Error(nets.Add("local", net), "duplicate networks should be rejected")
	require.Error(nets.Add("Local", net), "malformed names should be rejected")

	require.NoError(nets.Add("other", net))
	require.NoError(nets.SetDefault("other"))
	require.NoError(nets.Validate())

	require.NoError(nets.Remove("other"))
	require.Empty(nets.Default)
	require.Error(nets.Remove("other"))
	require.Len(nets.All, 1)
}
