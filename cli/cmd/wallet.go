package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/scrtlabs/secret-sdk-go/cli/cmd/common"
	"github.com/scrtlabs/secret-sdk-go/cli/config"
	"github.com/scrtlabs/secret-sdk-go/cli/table"
	"github.com/scrtlabs/secret-sdk-go/cli/wallet"
	walletFile "github.com/scrtlabs/secret-sdk-go/cli/wallet/file"
	"github.com/scrtlabs/secret-sdk-go/helpers"
)

var (
	walletNumber    uint32

	walletCmd = &cobra.Command{
		Use:   "wallet",
		Short: "Manage wallets",
	}

	walletListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured wallets",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Global()
			table := table.New()
			table.SetHeader([]string{"Name", "Kind", "Address"})

			var output [][]string
			for name, wl := range cfg.Wallets.All {
				displayName := name
				if cfg.Wallets.Default == name {
					displayName += defaultMarker
				}

				kind := wl.Kind
				if fc, err := wl.FileConfig(); err == nil {
					kind = fc.PrettyKind()
				}

				output = append(output, []string{
					displayName,
					kind,
					wl.Address,
				})
			}

			sort.Slice(output, func(i, j int) bool {
				return output[i][0] < output[j][0]
			})

			table.AppendBulk(output)
			table.Render()
		},
	}

	walletCreateCmd = &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new wallet",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Global()
			name := args[0]

			passphrase := common.AskNewPassphrase()

			walletCfg := &config.Wallet{
				Kind: walletFile.Kind,
				Config: (&walletFile.Config{
					Algorithm: wallet.AlgorithmSecp256k1Bip44,
					Number:    walletNumber,
				}).ToMap(),
			}
			err := cfg.Wallets.Create(name, passphrase, walletCfg)
			cobra.CheckErr(err)

			err = cfg.Save()
			cobra.CheckErr(err)

			fmt.Printf("Address: %s\n", walletCfg.Address)
		},
	}

	walletShowCmd = &cobra.Command{
		Use:   "show [name]",
		Short: "Show public wallet information and its balance",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Global()
			nw := common.GetNWSelection(cfg)
			if len(args) > 0 {
				nw.WalletName = args[0]
			}

			wl := common.LoadWallet(cfg, nw.WalletName)
			showPublicWalletInfo(wl)

			ctx := context.Background()
			c := common.Connect(ctx, nw.Network, wl)
			acct, err := c.GetAccount(ctx, wl.Address())
			cobra.CheckErr(err)
			if acct == nil {
				fmt.Printf("Balance:    %s (account does not exist on chain)\n", helpers.FormatCoins(nw.Network, nil))
				return
			}
			fmt.Printf("Balance:    %s\n", helpers.FormatCoins(nw.Network, acct.Balance))
			fmt.Printf("Sequence:   %d\n", acct.Sequence)
		},
	}

	walletRmCmd = &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Remove an existing wallet",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Global()
			name := args[0]

			if _, exists := cfg.Wallets.All[name]; !exists {
				cobra.CheckErr(fmt.Errorf("wallet '%s' does not exist", name))
			}

			fmt.Printf("WARNING: Removing the wallet will ERASE secret key material!\n")
			fmt.Printf("WARNING: THIS ACTION IS IRREVERSIBLE!\n")

			var result string
			confirmText := fmt.Sprintf("I really want to remove wallet %s", name)
			prompt := &survey.Input{
				Message: fmt.Sprintf("Enter '%s' (without quotes) to confirm removal:", confirmText),
			}
			err := survey.AskOne(prompt, &result)
			cobra.CheckErr(err)

			if result != confirmText {
				cobra.CheckErr("Aborted.")
			}

			err = cfg.Wallets.Remove(name)
			cobra.CheckErr(err)

			err = cfg.Save()
			cobra.CheckErr(err)
		},
	}

	walletRenameCmd = &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename an existing wallet",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Global()
			oldName, newName := args[0], args[1]

			err := cfg.Wallets.Rename(oldName, newName)
			cobra.CheckErr(err)

			err = cfg.Save()
			cobra.CheckErr(err)
		},
	}

	walletSetDefaultCmd = &cobra.Command{
		Use:   "set-default <name>",
		Short: "Sets the given wallet as the default wallet",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Global()
			name := args[0]

			err := cfg.Wallets.SetDefault(name)
			cobra.CheckErr(err)

			err = cfg.Save()
			cobra.CheckErr(err)
		},
	}

	walletImportCmd = &cobra.Command{
		Use:   "import <name>",
		Short: "Import an existing wallet",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Global()
			name := args[0]

			if _, exists := cfg.Wallets.All[name]; exists {
				cobra.CheckErr(fmt.Errorf("wallet '%s' already exists", name))
			}

			var kindRaw string
			err := survey.AskOne(&survey.Select{
				Message: "Import kind:",
				Options: wallet.ImportKinds(),
			}, &kindRaw)
			cobra.CheckErr(err)

			var kind wallet.ImportKind
			err = kind.UnmarshalText([]byte(kindRaw))
			cobra.CheckErr(err)

			var answers struct {
				Data string
			}
			questions := []*survey.Question{
				{
					Name:     "data",
					Prompt:   importPrompt(kind),
					Validate: survey.Required,
				},
			}
			err = survey.Ask(questions, &answers)
			cobra.CheckErr(err)

			passphrase := common.AskNewPassphrase()

			algorithms := wallet.SupportedAlgorithmsForImport(&kind)
			walletCfg := &config.Wallet{
				Kind: walletFile.Kind,
				Config: (&walletFile.Config{
					Algorithm: algorithms[0],
					Number:    walletNumber,
				}).ToMap(),
			}
			src := &wallet.ImportSource{
				Kind: kind,
				Data: answers.Data,
			}

			err = cfg.Wallets.Import(name, passphrase, walletCfg, src)
			cobra.CheckErr(err)

			err = cfg.Save()
			cobra.CheckErr(err)

			fmt.Printf("Address: %s\n", walletCfg.Address)
		},
	}

	walletExportCmd = &cobra.Command{
		Use:   "export <name>",
		Short: "Export secret wallet information",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			name := args[0]

			fmt.Printf("WARNING: Exporting the wallet will expose secret key material!\n")
			wl := common.LoadWallet(config.Global(), name)

			showPublicWalletInfo(wl)

			fmt.Printf("Export:\n")
			fmt.Println(wl.UnsafeExport())
		},
	}
)

func importPrompt(kind wallet.ImportKind) survey.Prompt {
	switch kind {
	case wallet.ImportKindMnemonic:
		return &survey.Multiline{Message: "Mnemonic:"}
	default:
		return &survey.Password{Message: "Private key (hex):"}
	}
}

func showPublicWalletInfo(wl wallet.Wallet) {
	fmt.Printf("Public Key: %s\n", wl.Signer().Public())
	fmt.Printf("Address:    %s\n", wl.Address())
}

func init() {
	walletFlags := flag.NewFlagSet("", flag.ContinueOnError)
	walletFlags.Uint32Var(&walletNumber, "number", 0, "key number to derive from the mnemonic")

	walletCreateCmd.Flags().AddFlagSet(walletFlags)
	walletImportCmd.Flags().AddFlagSet(walletFlags)
	walletShowCmd.Flags().AddFlagSet(common.SelectorFlags)

	walletCmd.AddCommand(walletListCmd)
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletShowCmd)
	walletCmd.AddCommand(walletRmCmd)
	walletCmd.AddCommand(walletRenameCmd)
	walletCmd.AddCommand(walletSetDefaultCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletExportCmd)
}
