package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/heirvault/core/facade"
	"github.com/heirvault/core/indexer"
)

type statusCommand struct {
	BackupFile string
	APIURL     string
	Timeout    time.Duration

	cmd *cobra.Command
}

func newStatusCommand() *cobra.Command {
	c := &statusCommand{}
	c.cmd = &cobra.Command{
		Use:   "status",
		Short: "Fetches a vault's on-chain balance and eligibility",
		RunE:  c.execute,
	}
	c.cmd.Flags().StringVar(
		&c.BackupFile, "backup", "", "path to the backup JSON document",
	)
	c.cmd.Flags().StringVar(
		&c.APIURL, "apiurl", defaultAPIURL, "API URL to use (must be esplora compatible)",
	)
	c.cmd.Flags().DurationVar(
		&c.Timeout, "timeout", 30*time.Second, "deadline for indexer calls",
	)

	return c.cmd
}

func (c *statusCommand) execute(cmd *cobra.Command, args []string) error {
	backupJSON, err := os.ReadFile(c.BackupFile)
	if err != nil {
		return fmt.Errorf("error reading backup file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	idx := indexer.NewHTTPClient(c.APIURL)

	status, err := facade.FetchVaultStatus(ctx, backupJSON, idx)
	if err != nil {
		return err
	}

	fmt.Printf("balance_sats:         %d\n", status.BalanceSats)
	fmt.Printf("utxo_count:           %d\n", status.UTXOCount)
	fmt.Printf("tip:                  %d\n", status.Tip)
	fmt.Printf("earliest_confirmation: %d\n", status.EarliestConfirmation)
	fmt.Printf("eligible:             %v\n", status.Eligible)
	fmt.Printf("blocks_remaining:     %d\n", status.BlocksRemaining)

	return nil
}
