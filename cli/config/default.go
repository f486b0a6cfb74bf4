package config

import (
	"github.com/scrtlabs/secret-sdk-go/config"
)

// Default returns the configuration used when no configuration file exists.
func Default() Config {
	networks := config.Networks{
		Default: config.DefaultNetworks.Default,
		All:     make(map[string]*config.Network, len(config.DefaultNetworks.All)),
	}
	for name, net := range config.DefaultNetworks.All {
		cloned := *net
		networks.All[name] = &cloned
	}

	return Config{
		Networks: networks,
		Wallets: Wallets{
			dir: WalletDirectory(),
		},
	}
}
