package config

import "fmt"

// DenominationInfo is the denomination information of a network's native token.
type DenominationInfo struct {
	// Symbol is the display symbol, e.g. SCRT.
	Symbol string `mapstructure:"symbol"`
	// Base is the on-chain denomination of the smallest unit, e.g. uscrt.
	Base     string `mapstructure:"base"`
	Decimals uint8  `mapstructure:"decimals"`
}

// Validate performs config validation.
func (di *DenominationInfo) Validate() error {
	if di.Base == "" {
		return fmt.Errorf("base denomination must not be empty")
	}
	if di.Symbol == "" {
		return fmt.Errorf("denomination symbol must not be empty")
	}
	return nil
}
