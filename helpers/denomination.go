// Package helpers contains helpers for converting between display and base unit amounts.
package helpers

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oasisprotocol/oasis-core/go/common/prettyprint"
	"github.com/oasisprotocol/oasis-core/go/common/quantity"

	"github.com/scrtlabs/secret-sdk-go/config"
	"github.com/scrtlabs/secret-sdk-go/types"
)

// ParseCoin parses an amount given in the network's display denomination, e.g. 1.5 for
// 1.5 SCRT, into base units. Precision beyond the denomination's decimals is truncated.
func ParseCoin(net *config.Network, amount string) (*types.Coin, error) {
	di := &net.Denomination
	v, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, err
	}
	if v.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative")
	}

	baseUnits := v.Mul(decimal.New(1, int32(di.Decimals)))
	coin := types.NewCoin(baseUnits.BigInt(), di.Base)
	return &coin, nil
}

// FormatCoin formats a base unit amount in the network's display denomination. Coins of other
// denominations are formatted as is.
func FormatCoin(net *config.Network, coin types.Coin) string {
	di := &net.Denomination
	if coin.Denom != di.Base {
		return coin.String()
	}

	amount, err := coin.BigInt()
	if err != nil {
		return coin.String()
	}
	var q quantity.Quantity
	if err = q.FromBigInt(amount); err != nil {
		return coin.String()
	}
	return fmt.Sprintf("%s %s", prettyprint.QuantityFrac(q, di.Decimals), di.Symbol)
}

// FormatCoins formats a list of coins with FormatCoin.
func FormatCoins(net *config.Network, coins types.Coins) string {
	if len(coins) == 0 {
		return fmt.Sprintf("0.0 %s", net.Denomination.Symbol)
	}
	parts := make([]string, 0, len(coins))
	for _, c := range coins {
		parts = append(parts, FormatCoin(net, c))
	}
	return strings.Join(parts, ", ")
}
