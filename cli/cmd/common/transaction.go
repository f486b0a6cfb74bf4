package common

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/scrtlabs/secret-sdk-go/cli/wallet"
	"github.com/scrtlabs/secret-sdk-go/client"
	"github.com/scrtlabs/secret-sdk-go/config"
	"github.com/scrtlabs/secret-sdk-go/helpers"
	"github.com/scrtlabs/secret-sdk-go/types"
)

var (
	txMemo    string
	txFunds   []string
	txGas     uint64
	txFeeText string
)

// TransactionFlags contains the common transaction flags.
var TransactionFlags *flag.FlagSet

// Connect connects to the selected network, encrypting calls with the wallet's key.
func Connect(ctx context.Context, net *config.Network, wl wallet.Wallet) *client.Client {
	c, err := client.Connect(ctx, net, wl.EncryptionSeed())
	cobra.CheckErr(err)
	return c
}

// NewSigningClient connects to the selected network and returns a client signing with the
// given wallet.
func NewSigningClient(ctx context.Context, net *config.Network, wl wallet.Wallet) *client.SigningClient {
	fees := client.DefaultFeeTable(net.Denomination.Base)
	if txGas != 0 || txFeeText != "" {
		fee := fees.Exec
		if txGas != 0 {
			fee.Gas = strconv.FormatUint(txGas, 10)
		}
		if txFeeText != "" {
			amount, err := helpers.ParseCoin(net, txFeeText)
			cobra.CheckErr(err)
			fee.Amount = types.Coins{*amount}
		}
		fees = client.FeeTable{Upload: fee, Init: fee, Exec: fee, Send: fee}
	}

	sc, err := client.NewSigningClient(Connect(ctx, net, wl), wl.Signer(), fees)
	cobra.CheckErr(err)
	return sc
}

// GetMemo returns the user-selected transaction memo.
func GetMemo() string {
	return txMemo
}

// GetFunds returns the user-selected funds sent along with a contract call.
func GetFunds(net *config.Network) types.Coins {
	funds := types.Coins{}
	for _, text := range txFunds {
		coin, err := helpers.ParseCoin(net, text)
		cobra.CheckErr(err)
		funds = append(funds, *coin)
	}
	return funds
}

// PrintTransactionBeforeSigning prints a summary of the transaction and asks the user for
// confirmation.
func PrintTransactionBeforeSigning(nw *NWSelection, wl wallet.Wallet, summary interface{}) {
	fmt.Printf("You are about to sign the following transaction:\n")

	formatted, err := PrettyJSONMarshal(summary)
	cobra.CheckErr(err)
	fmt.Println(string(formatted))
	fmt.Println()

	fmt.Printf("Wallet:  %s (%s)\n", nw.WalletName, wl.Address())
	fmt.Printf("Network: %s", nw.NetworkName)
	if len(nw.Network.Description) > 0 {
		fmt.Printf(" (%s)", nw.Network.Description)
	}
	fmt.Println()
	if txMemo != "" {
		fmt.Printf("Memo:    %s\n", txMemo)
	}

	Confirm("Sign this transaction?", "signing aborted")
}

// CheckTxErr aborts on err. Contract failures are decrypted first so that the user sees the
// contract's diagnostic instead of its ciphertext.
func CheckTxErr(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var pte *client.PostTxError
	if errors.As(err, &pte) {
		fmt.Printf("Transaction hash: %s\n", pte.Response.TxHash)
		fmt.Printf("Call nonce:       %s\n", pte.Nonce())
		if _, derr := pte.Decrypt(ctx); derr == nil {
			cobra.CheckErr(fmt.Errorf("transaction failed: %s", pte.Log()))
		}
	}

	var qfe *client.QueryFailedError
	if errors.As(err, &qfe) {
		if _, derr := qfe.Decrypt(ctx); derr == nil {
			cobra.CheckErr(fmt.Errorf("query failed: %s", qfe.Log()))
		}
	}

	cobra.CheckErr(err)
}

func init() {
	TransactionFlags = flag.NewFlagSet("", flag.ContinueOnError)
	TransactionFlags.StringVar(&txMemo, "memo", "", "transaction memo")
	TransactionFlags.StringSliceVar(&txFunds, "amount", nil, "tokens to send along with the call")
	TransactionFlags.Uint64Var(&txGas, "gas", 0, "override gas limit to use")
	TransactionFlags.StringVar(&txFeeText, "fee", "", "override fee amount to pay (in the network's display unit)")
}
