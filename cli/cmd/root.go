// Package cmd implements the secretcli commands.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/scrtlabs/secret-sdk-go/cli/cmd/common"
	"github.com/scrtlabs/secret-sdk-go/cli/config"
)

const (
	defaultMarker = " (*)"

	cfgLogLevel  = "log.level"
	cfgLogFormat = "log.format"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:     "secretcli",
		Short:   "CLI for interacting with Secret Network contracts",
		Version: "0.1.0",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initLogging() {
	var (
		level  logging.Level
		format logging.Format
	)
	cobra.CheckErr(level.Set(viper.GetString(cfgLogLevel)))
	cobra.CheckErr(format.Set(viper.GetString(cfgLogFormat)))
	cobra.CheckErr(logging.Initialize(os.Stderr, format, level, nil))
}

func initConfig() {
	initLogging()

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		const configFilename = "cli.toml"
		configDir := config.Directory()
		configPath := filepath.Join(configDir, configFilename)

		v.AddConfigPath(configDir)
		v.SetConfigType("toml")
		v.SetConfigName(configFilename)

		// Populate the configuration file with defaults on first use.
		_ = os.MkdirAll(configDir, 0o700)
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			if _, err := os.Create(configPath); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to create configuration file: %w", err))
			}

			config.ResetDefaults()
			_ = config.Save(v)
		}
	}

	_ = v.ReadInConfig()

	cobra.CheckErr(config.Load(v))
	cobra.CheckErr(config.Global().Validate())
}

func init() {
	cobra.OnInitialize(initConfig)

	viper.SetEnvPrefix("secretcli")
	viper.AutomaticEnv()
	_ = viper.BindEnv(common.MnemonicKey)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file to use")
	rootCmd.PersistentFlags().String(cfgLogLevel, "warn", "log level [debug, info, warn, error]")
	rootCmd.PersistentFlags().String(cfgLogFormat, "logfmt", "log format [logfmt, json]")
	_ = viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(contractsCmd)
	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(decryptErrorCmd)
}
