package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Cruzer - IDX end-of-day stock screener",
	Long: `Cruzer Unified CLI

Daily-bar screener for IDX listings: breakout, day momentum and week swing
setups with tick-aligned entry, stop and targets.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener screen breakout --symbols BBCA,BBRI,TLKM
  go run ./cmd/screener analyze BBCA
  go run ./cmd/screener collect
  go run ./cmd/screener api
  go run ./cmd/screener scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
