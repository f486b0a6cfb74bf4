package common

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scrtlabs/secret-sdk-go/cli/config"
	"github.com/scrtlabs/secret-sdk-go/cli/wallet"
	"github.com/scrtlabs/secret-sdk-go/cli/wallet/file"
)

// MnemonicKey is the viper key of a mnemonic taking precedence over configured wallets. It is
// bound to the SECRETCLI_MNEMONIC environment variable.
const MnemonicKey = "mnemonic"

// LoadWallet loads the given named wallet.
func LoadWallet(cfg *config.Config, name string) wallet.Wallet {
	if mnemonic := viper.GetString(MnemonicKey); mnemonic != "" {
		wl, err := file.FromMnemonic(mnemonic, 0)
		cobra.CheckErr(err)
		return wl
	}

	// Check early so that the passphrase is not asked for in vain.
	if _, exists := cfg.Wallets.All[name]; !exists {
		cobra.CheckErr(fmt.Errorf("wallet '%s' does not exist", name))
	}

	fmt.Printf("Unlock your wallet.\n")

	var passphrase string
	err := survey.AskOne(PromptPassphrase, &passphrase)
	cobra.CheckErr(err)

	wl, err := cfg.Wallets.Load(name, passphrase)
	cobra.CheckErr(err)

	return wl
}

// LoadSelectedWallet loads the wallet of the given selection.
func LoadSelectedWallet(cfg *config.Config, nw *NWSelection) wallet.Wallet {
	if nw.Wallet == nil && viper.GetString(MnemonicKey) == "" {
		cobra.CheckErr("no wallets configured")
	}
	return LoadWallet(cfg, nw.WalletName)
}
