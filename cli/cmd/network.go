package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/scrtlabs/secret-sdk-go/cli/cmd/common"
	cliConfig "github.com/scrtlabs/secret-sdk-go/cli/config"
	"github.com/scrtlabs/secret-sdk-go/cli/table"
	"github.com/scrtlabs/secret-sdk-go/client"
	"github.com/scrtlabs/secret-sdk-go/config"
	"github.com/scrtlabs/secret-sdk-go/crypto/enigma"
)

var (
	networkCmd = &cobra.Command{
		Use:   "network",
		Short: "Manage network endpoints",
	}

	networkListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured networks",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			table := table.New()
			table.SetHeader([]string{"Name", "Chain ID", "LCD", "Denomination"})

			var output [][]string
			for name, net := range cfg.Networks.All {
				displayName := name
				if cfg.Networks.Default == name {
					displayName += defaultMarker
				}

				output = append(output, []string{
					displayName,
					net.ChainID,
					net.LCD,
					net.Denomination.Symbol,
				})
			}

			sort.Slice(output, func(i, j int) bool {
				return output[i][0] < output[j][0]
			})

			table.AppendBulk(output)
			table.Render()
		},
	}

	networkAddCmd = &cobra.Command{
		Use:   "add <name> <lcd-endpoint> [chain-id]",
		Short: "Add a new network",
		Long:  "Add a new network. When the chain id is omitted it is queried from the node.",
		Args:  cobra.RangeArgs(2, 3),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			name, lcd := args[0], args[1]

			net := config.Network{
				LCD: lcd,
			}
			if len(args) == 3 {
				net.ChainID = args[2]
			} else {
				net.ChainID = queryChainID(lcd)
			}
			cobra.CheckErr(config.ValidateIdentifier(name))

			// Reuse the details of a known network running the same chain.
			var clonedDefault bool
			for _, defaultNet := range config.DefaultNetworks.All {
				if defaultNet.ChainID != net.ChainID {
					continue
				}
				net.Description = defaultNet.Description
				net.Denomination = defaultNet.Denomination
				clonedDefault = true
				break
			}
			if !clonedDefault {
				networkDetailsFromSurvey(&net)
			}

			err := cfg.Networks.Add(name, &net)
			cobra.CheckErr(err)

			err = cfg.Save()
			cobra.CheckErr(err)
		},
	}

	networkRmCmd = &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Remove an existing network",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			name := args[0]

			if _, exists := cfg.Networks.All[name]; !exists {
				cobra.CheckErr(fmt.Errorf("network '%s' does not exist", name))
			}
			if cfg.Networks.Default == name {
				fmt.Printf("WARNING: Network '%s' is the default network.\n", name)
				common.Confirm("Are you sure you want to remove the network?", "not removing network")
			}

			err := cfg.Networks.Remove(name)
			cobra.CheckErr(err)

			err = cfg.Save()
			cobra.CheckErr(err)
		},
	}

	networkSetDefaultCmd = &cobra.Command{
		Use:   "set-default <name>",
		Short: "Sets the given network as the default network",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			name := args[0]

			err := cfg.Networks.SetDefault(name)
			cobra.CheckErr(err)

			err = cfg.Save()
			cobra.CheckErr(err)
		},
	}

	networkSetLCDCmd = &cobra.Command{
		Use:   "set-lcd <name> <lcd-endpoint>",
		Short: "Sets the LCD endpoint of the given network",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := cliConfig.Global()
			name, lcd := args[0], args[1]

			net := cfg.Networks.All[name]
			if net == nil {
				cobra.CheckErr(fmt.Errorf("network '%s' does not exist", name))
				return // To make staticcheck happy as it doesn't know CheckErr exits.
			}
			net.LCD = lcd

			err := cfg.Save()
			cobra.CheckErr(err)
		},
	}
)

func queryChainID(lcd string) string {
	// Only unencrypted reads are performed so any seed will do.
	seed, err := enigma.GenerateNewSeed()
	cobra.CheckErr(err)

	probe := config.Network{ChainID: "unknown", LCD: lcd}
	c, err := client.ConnectNoVerify(&probe, seed)
	cobra.CheckErr(err)

	chainID, err := c.GetChainID(context.Background())
	cobra.CheckErr(err)
	return chainID
}

func networkDetailsFromSurvey(net *config.Network) {
	questions := []*survey.Question{
		{
			Name:   "description",
			Prompt: &survey.Input{Message: "Description:"},
		},
		{
			Name:     "symbol",
			Prompt:   &survey.Input{Message: "Denomination symbol:", Default: "SCRT"},
			Validate: survey.Required,
		},
		{
			Name:     "base",
			Prompt:   &survey.Input{Message: "Base denomination:", Default: "uscrt"},
			Validate: survey.Required,
		},
		{
			Name: "decimals",
			Prompt: &survey.Input{
				Message: "Denomination decimal places:",
				Default: "6",
			},
			Validate: survey.Required,
		},
	}
	answers := struct {
		Description string
		Symbol      string
		Base        string
		Decimals    uint8
	}{}
	err := survey.Ask(questions, &answers)
	cobra.CheckErr(err)

	net.Description = answers.Description
	net.Denomination.Symbol = answers.Symbol
	net.Denomination.Base = answers.Base
	net.Denomination.Decimals = answers.Decimals
}

func init() {
	networkRmCmd.Flags().AddFlagSet(common.AnswerFlags)

	networkCmd.AddCommand(networkListCmd)
	networkCmd.AddCommand(networkAddCmd)
	networkCmd.AddCommand(networkRmCmd)
	networkCmd.AddCommand(networkSetDefaultCmd)
	networkCmd.AddCommand(networkSetLCDCmd)
}
