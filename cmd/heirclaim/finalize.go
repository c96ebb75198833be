package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heirvault/core/facade"
)

type finalizeCommand struct {
	PSBTFile string

	cmd *cobra.Command
}

func newFinalizeCommand() *cobra.Command {
	c := &finalizeCommand{}
	c.cmd = &cobra.Command{
		Use:   "finalize",
		Short: "Extracts the consensus transaction from a fully-signed PSBT",
		RunE:  c.execute,
	}
	c.cmd.Flags().StringVar(
		&c.PSBTFile, "psbt", "", "path to the base64-encoded PSBT, or - for stdin",
	)

	return c.cmd
}

func (c *finalizeCommand) execute(cmd *cobra.Command, args []string) error {
	var raw []byte
	var err error

	if c.PSBTFile == "-" {
		raw, err = os.ReadFile("/dev/stdin")
	} else {
		raw, err = os.ReadFile(c.PSBTFile)
	}
	if err != nil {
		return fmt.Errorf("error reading psbt: %w", err)
	}

	result, err := facade.FinalizePSBT(strings.TrimSpace(string(raw)))
	if err != nil {
		return err
	}

	fmt.Printf("txid:        %s\n", result.Txid)
	fmt.Printf("total_out:   %d\n", result.TotalOut)
	fmt.Printf("n_inputs:    %d\n", result.NumInputs)
	fmt.Printf("n_outputs:   %d\n", result.NumOutputs)
	fmt.Printf("tx_hex:      %s\n", result.TxHex)

	return nil
}
