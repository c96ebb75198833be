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

type buildClaimCommand struct {
	BackupFile  string
	APIURL      string
	Destination string
	HeirIndex   int
	SatPerVByte int64
	Timeout     time.Duration

	cmd *cobra.Command
}

func newBuildClaimCommand() *cobra.Command {
	c := &buildClaimCommand{}
	c.cmd = &cobra.Command{
		Use:   "build-claim",
		Short: "Builds an unsigned recovery-path claim PSBT",
		Long: `Reconstructs the vault, fetches its spendable UTXOs from the
indexer, and assembles an unsigned PSBT draining them to the destination
address through the named heir's recovery path. The PSBT still needs to be
signed with the heir's key before it can be finalized.`,
		RunE: c.execute,
	}
	c.cmd.Flags().StringVar(
		&c.BackupFile, "backup", "", "path to the backup JSON document",
	)
	c.cmd.Flags().StringVar(
		&c.APIURL, "apiurl", defaultAPIURL, "API URL to use (must be esplora compatible)",
	)
	c.cmd.Flags().StringVar(
		&c.Destination, "destination", "", "address to sweep the vault to",
	)
	c.cmd.Flags().IntVar(
		&c.HeirIndex, "heir-index", 0, "index into the vault's recovery leaves",
	)
	c.cmd.Flags().Int64Var(
		&c.SatPerVByte, "sat-per-vbyte", 10, "fee rate to pay",
	)
	c.cmd.Flags().DurationVar(
		&c.Timeout, "timeout", 30*time.Second, "deadline for indexer calls",
	)

	return c.cmd
}

func (c *buildClaimCommand) execute(cmd *cobra.Command, args []string) error {
	backupJSON, err := os.ReadFile(c.BackupFile)
	if err != nil {
		return fmt.Errorf("error reading backup file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	idx := indexer.NewHTTPClient(c.APIURL)

	result, err := facade.BuildClaimPSBT(
		ctx, backupJSON, idx, c.Destination, c.HeirIndex, c.SatPerVByte,
	)
	if err != nil {
		return err
	}

	fmt.Printf("total_in:    %d\n", result.TotalIn)
	fmt.Printf("fee:         %d\n", result.Fee)
	fmt.Printf("total_out:   %d\n", result.TotalOut)
	fmt.Printf("destination: %s\n", result.Destination)
	fmt.Printf("n_inputs:    %d\n", result.NumInputs)
	fmt.Printf("psbt_base64: %s\n", result.PSBTBase64)

	return nil
}
