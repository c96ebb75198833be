// Package eligibility implements the pure arithmetic of the Eligibility
// Evaluator: given a chain tip, a UTXO's confirmation height, and a vault's
// relative timelock, decide whether a recovery path has matured and how
// much longer it has to wait if not. Nothing here touches the network; the
// tip and confirmation heights are supplied by the caller.
package eligibility

import "fmt"

// Status is the compact eligibility response shared by check_eligibility and
// fetch_vault_status.
type Status struct {
	Eligible        bool
	BlocksRemaining uint32
	HumanTimeEstimate string
	CurrentHeight   uint32
}

// Check evaluates eligibility for a single confirmation height against the
// chain tip and a vault's relative timelock. A tip below confirmation is
// treated as zero elapsed blocks.
func Check(tip, confirmation uint32, timelockBlocks uint16) Status {
	elapsed := int64(tip) - int64(confirmation)
	if elapsed < 0 {
		elapsed = 0
	}

	remaining := int64(timelockBlocks) - elapsed
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		Eligible:          elapsed >= int64(timelockBlocks),
		BlocksRemaining:   uint32(remaining),
		HumanTimeEstimate: humanTimeEstimate(uint32(remaining)),
		CurrentHeight:     tip,
	}
}

// EarliestConfirmation returns the minimum confirmation height among a set
// of UTXO confirmation heights, ignoring unconfirmed entries (height 0).
// Per the resolved reading of the multi-UTXO open question, the evaluator
// always reports eligibility against this minimum height. ok is false when
// every UTXO is unconfirmed, in which case there's nothing to report
// eligibility against yet.
func EarliestConfirmation(confirmationHeights []uint32) (height uint32, ok bool) {
	for _, h := range confirmationHeights {
		if h == 0 {
			continue
		}
		if !ok || h < height {
			height = h
			ok = true
		}
	}
	return height, ok
}

// humanTimeEstimate renders a block count as an approximate wall-clock
// duration, assuming a 10-minute average block interval: minutes up to and
// including an hour, hours up to and including a day, days beyond that.
func humanTimeEstimate(blocksRemaining uint32) string {
	minutes := blocksRemaining * 10

	switch {
	case minutes <= 60:
		return fmt.Sprintf("%d minutes", minutes)
	case minutes <= 1440:
		return fmt.Sprintf("%d hours", minutes/60)
	default:
		return fmt.Sprintf("%d days", minutes/1440)
	}
}
