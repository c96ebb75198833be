package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heirvault/core/facade"
)

type validateAddressCommand struct {
	Address string

	cmd *cobra.Command
}

func newValidateAddressCommand() *cobra.Command {
	c := &validateAddressCommand{}
	c.cmd = &cobra.Command{
		Use:   "validate-address",
		Short: "Checks whether an address is syntactically valid and matches the selected network",
		RunE:  c.execute,
	}
	c.cmd.Flags().StringVar(&c.Address, "address", "", "address to validate")

	return c.cmd
}

func (c *validateAddressCommand) execute(cmd *cobra.Command, args []string) error {
	ok, err := facade.ValidateAddress(c.Address, networkTag)
	if err != nil {
		return err
	}

	fmt.Printf("matches_network: %v\n", ok)

	return nil
}
