package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrtlabs/secret-sdk-go/cli/cmd/common"
	cliConfig "github.com/scrtlabs/secret-sdk-go/cli/config"
	"github.com/scrtlabs/secret-sdk-go/client"
	"github.com/scrtlabs/secret-sdk-go/helpers"
	"github.com/scrtlabs/secret-sdk-go/types"
)

var (
	txMinHeight int64
	txMaxHeight int64

	txCmd = &cobra.Command{
		Use:   "tx",
		Short: "Token transfers and transaction lookup",
	}

	txSendCmd = &cobra.Command{
		Use:   "send <amount> <to>",
		Short: "Transfer tokens",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			nw := common.GetNWSelection(cfg)

			amount, err := helpers.ParseCoin(nw.Network, args[0])
			cobra.CheckErr(err)
			to := parseAddress(args[1])

			wl := common.LoadSelectedWallet(cfg, nw)
			common.PrintTransactionBeforeSigning(nw, wl, map[string]interface{}{
				"type":   types.MsgTypeSend,
				"to":     to,
				"amount": helpers.FormatCoin(nw.Network, *amount),
			})

			ctx := context.Background()
			sc := common.NewSigningClient(ctx, nw.Network, wl)
			result, err := sc.SendTokens(ctx, to, types.Coins{*amount}, common.GetMemo())
			common.CheckTxErr(ctx, err)

			fmt.Printf("Transaction hash: %s\n", result.TransactionHash)
			fmt.Printf("Height:           %d\n", result.Height)
		},
	}

	txShowCmd = &cobra.Command{
		Use:   "show <tx-hash>",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c := readOnlyClient(ctx)

			txs, err := c.SearchTx(ctx, &client.SearchTxQuery{ID: args[0]}, nil)
			cobra.CheckErr(err)
			if len(txs) == 0 {
				cobra.CheckErr(fmt.Errorf("transaction %s not found", args[0]))
			}
			common.PrintOutput(txs[0])
		},
	}

	txListCmd = &cobra.Command{
		Use:   "list <address>",
		Short: "List token transfers from or to an address",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c := readOnlyClient(ctx)
			address := parseAddress(args[0])

			txs, err := c.SearchTx(ctx, &client.SearchTxQuery{SentFromOrTo: &address}, &client.SearchTxFilter{
				MinHeight: txMinHeight,
				MaxHeight: txMaxHeight,
			})
			cobra.CheckErr(err)

			for _, tx := range txs {
				status := "ok"
				if tx.Code != 0 {
					status = fmt.Sprintf("failed (%d)", tx.Code)
				}
				fmt.Printf("%d\t%s\t%s\n", tx.Height, tx.Hash, status)
			}
		},
	}
)

func init() {
	txSendCmd.Flags().AddFlagSet(common.SelectorFlags)
	txSendCmd.Flags().AddFlagSet(common.TransactionFlags)
	txSendCmd.Flags().AddFlagSet(common.AnswerFlags)

	txShowCmd.Flags().AddFlagSet(common.SelectorFlags)
	txShowCmd.Flags().AddFlagSet(common.FormatFlags)

	txListCmd.Flags().AddFlagSet(common.SelectorFlags)
	txListCmd.Flags().Int64Var(&txMinHeight, "min-height", 0, "minimum block height")
	txListCmd.Flags().Int64Var(&txMaxHeight, "max-height", 0, "maximum block height")

	txCmd.AddCommand(txSendCmd)
	txCmd.AddCommand(txShowCmd)
	txCmd.AddCommand(txListCmd)
}
