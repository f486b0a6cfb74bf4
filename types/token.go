package types

import (
	"fmt"
	"math/big"
	"strings"
)

// Coin is an amount of a given denomination, in base units.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// NewCoin creates a new coin.
func NewCoin(amount *big.Int, denom string) Coin {
	return Coin{Denom: denom, Amount: amount.String()}
}

// BigInt returns the amount as a big integer.
func (c Coin) BigInt() (*big.Int, error) {
	v, ok := new(big.Int).SetString(c.Amount, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("malformed amount '%s'", c.Amount)
	}
	return v, nil
}

// String returns a string representation of the coin.
func (c Coin) String() string {
	return c.Amount + c.Denom
}

// Coins is a list of coins.
type Coins []Coin

// String returns a string representation of the coins.
func (cs Coins) String() string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}

// StdFee is the fee paid for a transaction.
type StdFee struct {
	Amount Coins  `json:"amount"`
	Gas    string `json:"gas"`
}

// NewStdFee creates a fee paying the given amount for the given gas limit.
func NewStdFee(gas uint64, amount ...Coin) StdFee {
	if amount == nil {
		amount = Coins{}
	}
	return StdFee{Amount: amount, Gas: fmt.Sprintf("%d", gas)}
}
