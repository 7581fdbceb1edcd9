// Package cmd implements the rcxsale command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "rcxsale",
		Short:         "Client for the RCX staged token sale",
		Long:          "rcxsale reads sale state, quotes purchase costs and buys RCX with the native coin or a stablecoin, against the public sale contract on BNB Smart Chain.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (optional; RCXSALE_* env vars always apply)")
	rootCmd.PersistentFlags().StringVar(&a.networkFlag, "network", "", "network preset override (bsc-testnet, bsc, local)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(a),
		newStagesCmd(a),
		newUserCmd(a),
		newQuoteCmd(a),
		newBuyCmd(a),
		newAdminCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}
