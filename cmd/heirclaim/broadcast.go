package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/heirvault/core/facade"
	"github.com/heirvault/core/indexer"
)

type broadcastCommand struct {
	TxHex   string
	APIURL  string
	Timeout time.Duration

	cmd *cobra.Command
}

func newBroadcastCommand() *cobra.Command {
	c := &broadcastCommand{}
	c.cmd = &cobra.Command{
		Use:   "broadcast",
		Short: "Broadcasts a finalized transaction through the indexer",
		RunE:  c.execute,
	}
	c.cmd.Flags().StringVar(&c.TxHex, "tx-hex", "", "consensus-encoded transaction hex")
	c.cmd.Flags().StringVar(
		&c.APIURL, "apiurl", defaultAPIURL, "API URL to use (must be esplora compatible)",
	)
	c.cmd.Flags().DurationVar(
		&c.Timeout, "timeout", 30*time.Second, "deadline for the broadcast call",
	)

	return c.cmd
}

func (c *broadcastCommand) execute(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	idx := indexer.NewHTTPClient(c.APIURL)

	result, err := facade.BroadcastTransaction(ctx, c.TxHex, idx)
	if err != nil {
		return err
	}

	fmt.Printf("txid:    %s\n", result.Txid)
	fmt.Printf("success: %v\n", result.Success)

	return nil
}
