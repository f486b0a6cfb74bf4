package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/scrtlabs/secret-sdk-go/cli/cmd/common"
	cliConfig "github.com/scrtlabs/secret-sdk-go/cli/config"
	"github.com/scrtlabs/secret-sdk-go/cli/table"
	"github.com/scrtlabs/secret-sdk-go/client"
	"github.com/scrtlabs/secret-sdk-go/crypto/enigma"
	"github.com/scrtlabs/secret-sdk-go/types"
)

var (
	contractsLabel   string
	contractsSource  string
	contractsBuilder string
	contractsRawHex  bool

	contractsCmd = &cobra.Command{
		Use:     "contracts",
		Aliases: []string{"c"},
		Short:   "Confidential WebAssembly smart contracts operations",
	}

	contractsShowCmd = &cobra.Command{
		Use:   "show <address>",
		Short: "Show information about a deployed contract",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c := readOnlyClient(ctx)
			address := parseAddress(args[0])

			contract, err := c.GetContract(ctx, address)
			cobra.CheckErr(err)
			codeHash, err := c.GetCodeHashByContractAddr(ctx, address)
			cobra.CheckErr(err)

			fmt.Printf("Address:   %s\n", contract.Address)
			fmt.Printf("Code ID:   %d\n", contract.CodeID)
			fmt.Printf("Code hash: %s\n", codeHash)
			fmt.Printf("Creator:   %s\n", contract.Creator)
			fmt.Printf("Label:     %s\n", contract.Label)
		},
	}

	contractsShowCodeCmd = &cobra.Command{
		Use:   "show-code <code-id>",
		Short: "Show information about uploaded contract code",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c := readOnlyClient(ctx)
			codeID := parseCodeID(args[0])

			code, err := c.GetCodeDetails(ctx, codeID)
			cobra.CheckErr(err)
			contracts, err := c.GetContracts(ctx, codeID)
			cobra.CheckErr(err)

			fmt.Printf("ID:        %d\n", code.ID)
			fmt.Printf("Code hash: %s\n", code.Checksum)
			fmt.Printf("Creator:   %s\n", code.Creator)
			fmt.Printf("Size:      %d bytes\n", len(code.Data))
			if code.Source != "" {
				fmt.Printf("Source:    %s\n", code.Source)
			}
			if code.Builder != "" {
				fmt.Printf("Builder:   %s\n", code.Builder)
			}
			fmt.Printf("Instances: %d\n", len(contracts))
			for _, inst := range contracts {
				fmt.Printf("  - %s (%s)\n", inst.Address, inst.Label)
			}
		},
	}

	contractsCodesCmd = &cobra.Command{
		Use:   "codes",
		Short: "List uploaded contract codes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c := readOnlyClient(ctx)

			codes, err := c.GetCodes(ctx)
			cobra.CheckErr(err)
			sort.Slice(codes, func(i, j int) bool {
				return codes[i].ID < codes[j].ID
			})

			table := table.New()
			table.SetHeader([]string{"ID", "Code Hash", "Creator"})
			for _, code := range codes {
				table.Append([]string{
					strconv.FormatUint(code.ID, 10),
					code.Checksum.String(),
					code.Creator.String(),
				})
			}
			table.Render()
		},
	}

	contractsCodeHashCmd = &cobra.Command{
		Use:   "code-hash <code-id|address>",
		Short: "Show the code hash calls are bound to",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c := readOnlyClient(ctx)

			var (
				codeHash types.CodeHash
				err      error
			)
			if codeID, perr := strconv.ParseUint(args[0], 10, 64); perr == nil {
				codeHash, err = c.GetCodeHashByCodeID(ctx, codeID)
			} else {
				codeHash, err = c.GetCodeHashByContractAddr(ctx, parseAddress(args[0]))
			}
			cobra.CheckErr(err)
			fmt.Println(codeHash)
		},
	}

	contractsQueryCmd = &cobra.Command{
		Use:   "query <address> <query-yaml>",
		Short: "Perform an encrypted smart query of a contract",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c := readOnlyClient(ctx)
			address := parseAddress(args[0])
			query := parseData(args[1])

			result, err := c.QueryContractSmart(ctx, address, query)
			common.CheckTxErr(ctx, err)

			common.PrintOutput(result)
		},
	}

	contractsRawCmd = &cobra.Command{
		Use:   "raw <address> <key>",
		Short: "Read a raw value from contract storage",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c := readOnlyClient(ctx)
			address := parseAddress(args[0])

			key := []byte(args[1])
			if contractsRawHex {
				var err error
				key, err = hex.DecodeString(args[1])
				cobra.CheckErr(err)
			}

			value, err := c.QueryContractRaw(ctx, address, key)
			cobra.CheckErr(err)
			if value == nil {
				cobra.CheckErr(fmt.Errorf("no value stored under the given key"))
			}
			fmt.Println(hex.EncodeToString(value))
		},
	}

	contractsUploadCmd = &cobra.Command{
		Use:   "upload <contract.wasm>",
		Short: "Upload WebAssembly smart contract",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			nw := common.GetNWSelection(cfg)

			wasmData, err := os.ReadFile(args[0])
			cobra.CheckErr(err)

			wl := common.LoadSelectedWallet(cfg, nw)
			common.PrintTransactionBeforeSigning(nw, wl, map[string]interface{}{
				"type":    types.MsgTypeStoreCode,
				"size":    len(wasmData),
				"source":  contractsSource,
				"builder": contractsBuilder,
			})

			ctx := context.Background()
			sc := common.NewSigningClient(ctx, nw.Network, wl)
			result, err := sc.Upload(ctx, wasmData, &client.UploadMeta{
				Source:  contractsSource,
				Builder: contractsBuilder,
			}, common.GetMemo())
			common.CheckTxErr(ctx, err)

			fmt.Printf("Transaction hash: %s\n", result.TransactionHash)
			fmt.Printf("Code ID:          %d\n", result.CodeID)
			fmt.Printf("Code hash:        %s\n", result.OriginalChecksum)
			fmt.Printf("Size:             %d bytes (%d compressed)\n", result.OriginalSize, result.CompressedSize)
		},
	}

	contractsInstantiateCmd = &cobra.Command{
		Use:     "instantiate <code-id> <init-yaml> --label LABEL",
		Aliases: []string{"inst"},
		Short:   "Instantiate WebAssembly smart contract",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			nw := common.GetNWSelection(cfg)
			codeID := parseCodeID(args[0])
			initMsg := parseData(args[1])
			if contractsLabel == "" {
				cobra.CheckErr("a contract label is required")
			}
			funds := common.GetFunds(nw.Network)

			wl := common.LoadSelectedWallet(cfg, nw)
			common.PrintTransactionBeforeSigning(nw, wl, map[string]interface{}{
				"type":     types.MsgTypeInstantiateContract,
				"code_id":  codeID,
				"label":    contractsLabel,
				"init_msg": initMsg,
				"funds":    funds,
			})

			ctx := context.Background()
			sc := common.NewSigningClient(ctx, nw.Network, wl)
			result, err := sc.Instantiate(ctx, codeID, initMsg, contractsLabel, common.GetMemo(), funds)
			common.CheckTxErr(ctx, err)

			fmt.Printf("Transaction hash: %s\n", result.TransactionHash)
			fmt.Printf("Contract address: %s\n", result.ContractAddress)
		},
	}

	contractsExecuteCmd = &cobra.Command{
		Use:     "execute <address> <handle-yaml>",
		Aliases: []string{"exec", "call"},
		Short:   "Execute an encrypted call on a contract",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			nw := common.GetNWSelection(cfg)
			address := parseAddress(args[0])
			handleMsg := parseData(args[1])
			funds := common.GetFunds(nw.Network)

			wl := common.LoadSelectedWallet(cfg, nw)
			common.PrintTransactionBeforeSigning(nw, wl, map[string]interface{}{
				"type":     types.MsgTypeExecuteContract,
				"contract": address,
				"msg":      handleMsg,
				"funds":    funds,
			})

			ctx := context.Background()
			sc := common.NewSigningClient(ctx, nw.Network, wl)
			result, err := sc.Execute(ctx, address, handleMsg, common.GetMemo(), funds)
			common.CheckTxErr(ctx, err)

			fmt.Printf("Transaction hash: %s\n", result.TransactionHash)
			for _, l := range result.Logs {
				for _, ev := range l.Events {
					if ev.Type != "wasm" {
						continue
					}
					for _, attr := range ev.Attributes {
						fmt.Printf("  %s: %s\n", attr.Key, attr.Value)
					}
				}
			}
			if len(result.Data) > 0 {
				fmt.Printf("Data:\n")
				fmt.Println(string(result.Data))
			}
		},
	}
)

// readOnlyClient connects to the selected network. Queries are encrypted with an ephemeral
// key as their failures are decrypted right away.
func readOnlyClient(ctx context.Context) *client.Client {
	nw := common.GetNWSelection(cliConfig.Global())

	seed, err := enigma.GenerateNewSeed()
	cobra.CheckErr(err)
	c, err := client.Connect(ctx, nw.Network, seed)
	cobra.CheckErr(err)
	return c
}

func parseAddress(text string) types.Address {
	address, err := types.ParseAddress(text)
	cobra.CheckErr(err)
	return address
}

func parseCodeID(text string) uint64 {
	codeID, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		cobra.CheckErr(fmt.Errorf("malformed code id: %w", err))
	}
	return codeID
}

// parseData parses a message given in YAML. JSON messages are valid YAML.
func parseData(data string) interface{} {
	var result interface{}
	if len(data) > 0 {
		err := yaml.Unmarshal([]byte(data), &result)
		cobra.CheckErr(err)
	}
	if result == nil {
		result = map[string]interface{}{}
	}
	return result
}

func init() {
	for _, cmd := range []*cobra.Command{
		contractsShowCmd,
		contractsShowCodeCmd,
		contractsCodesCmd,
		contractsCodeHashCmd,
		contractsRawCmd,
	} {
		cmd.Flags().AddFlagSet(common.SelectorFlags)
	}

	contractsQueryCmd.Flags().AddFlagSet(common.SelectorFlags)
	contractsQueryCmd.Flags().AddFlagSet(common.FormatFlags)

	contractsRawCmd.Flags().BoolVar(&contractsRawHex, "hex", false, "the key is hex encoded")

	uploadFlags := flag.NewFlagSet("", flag.ContinueOnError)
	uploadFlags.StringVar(&contractsSource, "source", "", "URL of the contract's source code")
	uploadFlags.StringVar(&contractsBuilder, "builder", "", "docker image the contract was built with")

	contractsUploadCmd.Flags().AddFlagSet(common.SelectorFlags)
	contractsUploadCmd.Flags().AddFlagSet(common.TransactionFlags)
	contractsUploadCmd.Flags().AddFlagSet(common.AnswerFlags)
	contractsUploadCmd.Flags().AddFlagSet(uploadFlags)

	contractsInstantiateCmd.Flags().AddFlagSet(common.SelectorFlags)
	contractsInstantiateCmd.Flags().AddFlagSet(common.TransactionFlags)
	contractsInstantiateCmd.Flags().AddFlagSet(common.AnswerFlags)
	contractsInstantiateCmd.Flags().StringVar(&contractsLabel, "label", "", "unique label of the new contract")

	contractsExecuteCmd.Flags().AddFlagSet(common.SelectorFlags)
	contractsExecuteCmd.Flags().AddFlagSet(common.TransactionFlags)
	contractsExecuteCmd.Flags().AddFlagSet(common.AnswerFlags)

	contractsCmd.AddCommand(contractsShowCmd)
	contractsCmd.AddCommand(contractsShowCodeCmd)
	contractsCmd.AddCommand(contractsCodesCmd)
	contractsCmd.AddCommand(contractsCodeHashCmd)
	contractsCmd.AddCommand(contractsQueryCmd)
	contractsCmd.AddCommand(contractsRawCmd)
	contractsCmd.AddCommand(contractsUploadCmd)
	contractsCmd.AddCommand(contractsInstantiateCmd)
	contractsCmd.AddCommand(contractsExecuteCmd)
}
