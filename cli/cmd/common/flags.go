package common

import (
	"fmt"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	cliConfig "github.com/scrtlabs/secret-sdk-go/cli/config"
	"github.com/scrtlabs/secret-sdk-go/config"
)

var (
	selectedNetwork string
	selectedWallet  string
)

// SelectorFlags contains the common selector flags for network/wallet.
var SelectorFlags *flag.FlagSet

// NWSelection contains the network/wallet selection.
type NWSelection struct {
	NetworkName string
	Network     *config.Network

	WalletName string
	Wallet     *cliConfig.Wallet
}

// GetNWSelection returns the user-selected network/wallet combination.
func GetNWSelection(cfg *cliConfig.Config) *NWSelection {
	var s NWSelection
	s.NetworkName = cfg.Networks.Default
	if selectedNetwork != "" {
		s.NetworkName = selectedNetwork
	}
	if s.NetworkName == "" {
		cobra.CheckErr(fmt.Errorf("no networks configured"))
	}
	s.Network = cfg.Networks.All[s.NetworkName]
	if s.Network == nil {
		cobra.CheckErr(fmt.Errorf("network '%s' does not exist", s.NetworkName))
	}

	s.WalletName = cfg.Wallets.Default
	if selectedWallet != "" {
		s.WalletName = selectedWallet
	}
	if s.WalletName != "" {
		s.Wallet = cfg.Wallets.All[s.WalletName]
		if s.Wallet == nil {
			cobra.CheckErr(fmt.Errorf("wallet '%s' does not exist", s.WalletName))
		}
	}

	return &s
}

func init() {
	SelectorFlags = flag.NewFlagSet("", flag.ContinueOnError)
	SelectorFlags.StringVar(&selectedNetwork, "network", "", "explicitly set network to use")
	SelectorFlags.StringVar(&selectedWallet, "wallet", "", "explicitly set wallet to use")
}
