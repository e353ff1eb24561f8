// Package cli implements the coinledgerd command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "coinledgerd",
	Short: "Coin economy ledger service",
	Long: `coinledgerd tracks per-user coin balances, enforces earning rules
(cooldowns and daily caps), manages a reward catalog with finite stock, and
exposes the coin API consumed by the web front-end and the admin console.
Every balance change is an append-only ledger entry committed atomically
with the wallet update.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "coinledger.toml", "Path to the TOML config file")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("coinledgerd", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
