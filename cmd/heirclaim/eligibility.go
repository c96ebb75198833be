package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heirvault/core/facade"
)

type eligibilityCommand struct {
	BackupFile         string
	TipHeight          uint32
	ConfirmationHeight uint32

	cmd *cobra.Command
}

func newEligibilityCommand() *cobra.Command {
	c := &eligibilityCommand{}
	c.cmd = &cobra.Command{
		Use:   "eligibility",
		Short: "Checks recovery-path eligibility against a given tip and confirmation height",
		RunE:  c.execute,
	}
	c.cmd.Flags().StringVar(
		&c.BackupFile, "backup", "", "path to the backup JSON document",
	)
	c.cmd.Flags().Uint32Var(
		&c.TipHeight, "tip-height", 0, "chain tip height to evaluate against",
	)
	c.cmd.Flags().Uint32Var(
		&c.ConfirmationHeight, "confirmation-height", 0,
		"confirmation height of the UTXO being evaluated",
	)

	return c.cmd
}

func (c *eligibilityCommand) execute(cmd *cobra.Command, args []string) error {
	backupJSON, err := os.ReadFile(c.BackupFile)
	if err != nil {
		return fmt.Errorf("error reading backup file: %w", err)
	}

	status, err := facade.CheckEligibility(backupJSON, c.TipHeight, c.ConfirmationHeight)
	if err != nil {
		return err
	}

	fmt.Printf("eligible:            %v\n", status.Eligible)
	fmt.Printf("blocks_remaining:    %d\n", status.BlocksRemaining)
	fmt.Printf("human_time_estimate: %s\n", status.HumanTimeEstimate)
	fmt.Printf("current_height:      %d\n", status.CurrentHeight)

	return nil
}
