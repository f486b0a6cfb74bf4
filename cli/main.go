// Package main implements secretcli, a command line client for Secret Network contracts.
package main

import (
	"os"

	"github.com/scrtlabs/secret-sdk-go/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
