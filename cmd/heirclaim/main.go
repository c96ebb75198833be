package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heirvault/core/heirlog"
)

const (
	defaultAPIURL = "https://blockstream.info/api"
	version       = "0.1.0"
)

var log = heirlog.Sub("CLI")

var (
	testnet bool
	regtest bool
	signet  bool

	networkTag = "mainnet"
)

var rootCmd = &cobra.Command{
	Use:   "heirclaim",
	Short: "Reconstructs Taproot inheritance vaults and builds recovery-path claims",
	Long: `heirclaim is a consumer of the heirvault core library: it imports a
vault backup document, checks recovery-path eligibility against a chain
indexer, and builds and finalizes the PSBT an heir needs to claim a vault
after the owner's timelock has expired.`,
	Version:           version,
	DisableAutoGenTag: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch {
		case testnet:
			networkTag = "testnet"
		case regtest:
			networkTag = "regtest"
		case signet:
			networkTag = "signet"
		default:
			networkTag = "mainnet"
		}

		if level, err := cmd.Flags().GetString("debuglevel"); err == nil && level != "" {
			_ = heirlog.SetLevel(level)
		}

		log.Debugf("resolved network tag: %s", networkTag)
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(
		&testnet, "testnet", "t", false, "use testnet parameters",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&regtest, "regtest", "r", false, "use regtest parameters",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&signet, "signet", "s", false, "use signet parameters",
	)
	rootCmd.PersistentFlags().String(
		"debuglevel", "info", "logging level for all subsystems",
	)

	rootCmd.AddCommand(
		newImportCommand(),
		newEligibilityCommand(),
		newValidateAddressCommand(),
		newStatusCommand(),
		newBuildClaimCommand(),
		newFinalizeCommand(),
		newBroadcastCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
