package config

var scrt = DenominationInfo{
	Symbol:   "SCRT",
	Base:     "uscrt",
	Decimals: 6,
}

// DefaultNetworks is the default config containing known networks.
var DefaultNetworks = Networks{
	Default: "mainnet",
	All: map[string]*Network{
		"mainnet": {
			Description:  "Secret Network mainnet",
			ChainID:      "secret-4",
			LCD:          "https://lcd.mainnet.secretsaturn.net",
			Denomination: scrt,
		},
		"testnet": {
			Description:  "Secret Network testnet",
			ChainID:      "pulsar-3",
			LCD:          "https://api.pulsar3.scrttestnet.com",
			Denomination: scrt,
		},
		// A single node development chain.
		"localsecret": {
			Description:  "Local development node",
			ChainID:      "secretdev-1",
			LCD:          "http://localhost:1317",
			Denomination: scrt,
		},
	},
}
