package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrtlabs/secret-sdk-go/callformat"
	"github.com/scrtlabs/secret-sdk-go/cli/cmd/common"
	cliConfig "github.com/scrtlabs/secret-sdk-go/cli/config"
	"github.com/scrtlabs/secret-sdk-go/client"
	"github.com/scrtlabs/secret-sdk-go/types"
)

var (
	decryptNonce string

	decryptErrorCmd = &cobra.Command{
		Use:   "decrypt-error <tx-hash | error-message --nonce NONCE>",
		Short: "Decrypt the diagnostic of a failed contract call",
		Long: `Decrypt the diagnostic of a failed contract call made with the selected wallet.

Given a transaction hash, the transaction is fetched and the nonce is recovered from the
encrypted call it carries. Otherwise the argument is taken to be the error message as
reported by the node and the nonce of the call must be given in hex.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			nw := common.GetNWSelection(cfg)
			wl := common.LoadSelectedWallet(cfg, nw)

			ctx := context.Background()
			c := common.Connect(ctx, nw.Network, wl)

			var (
				log string
				err error
			)
			if decryptNonce == "" {
				log, err = decryptTxError(ctx, c, args[0])
			} else {
				var nonce types.Nonce
				cobra.CheckErr(nonce.UnmarshalText([]byte(decryptNonce)))
				ee := callformat.NewEncryptedError(args[0], nil)
				log, err = ee.Decrypt(ctx, c.Cipher(), nonce)
			}
			cobra.CheckErr(err)

			fmt.Println(log)
		},
	}
)

func decryptTxError(ctx context.Context, c *client.Client, hash string) (string, error) {
	txs, err := c.SearchTx(ctx, &client.SearchTxQuery{ID: hash}, nil)
	if err != nil {
		return "", err
	}
	if len(txs) == 0 {
		return "", fmt.Errorf("transaction %s not found", hash)
	}
	if txs[0].Code == 0 {
		return "", fmt.Errorf("transaction %s did not fail", hash)
	}
	return c.DecryptTxError(ctx, &txs[0])
}

func init() {
	decryptErrorCmd.Flags().AddFlagSet(common.SelectorFlags)
	decryptErrorCmd.Flags().StringVar(&decryptNonce, "nonce", "", "hex encoded nonce of the call")
}
