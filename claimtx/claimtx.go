// Package claimtx implements the Claim PSBT Builder: assembling an unsigned
// PSBT that spends a vault's recovery-path UTXOs to a single destination,
// with every Taproot script-path field the signer needs already populated.
package claimtx

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/input"

	"github.com/heirvault/core/heirlog"
	"github.com/heirvault/core/vault"
)

var log = heirlog.Sub("PSBT")

// UTXO is one spendable output the heir is claiming, as reported by the
// indexer collaborator.
type UTXO struct {
	Outpoint wire.OutPoint
	PrevOut  *wire.TxOut
}

// Result is everything the facade reports back about a built claim PSBT.
type Result struct {
	Packet     *psbt.Packet
	TotalIn    int64
	Fee        int64
	TotalOut   int64
	Destination string
	NumInputs  int
}

// Build assembles the claim PSBT. v must already have been produced by
// vault.Reconstruct; heirIndex selects which recovery leaf every input
// spends through, so every UTXO here must genuinely belong to the same
// recovery path.
func Build(v *vault.Vault, heirIndex int, utxos []UTXO,
	destination btcutil.Address, feeSats int64) (*Result, error) {

	if heirIndex < 0 || heirIndex >= len(v.Leaves) {
		return nil, fmt.Errorf("heir_index %d out of range [0, %d)",
			heirIndex, len(v.Leaves))
	}

	if len(utxos) == 0 {
		return nil, fmt.Errorf("no UTXOs supplied")
	}

	var totalIn int64
	for _, u := range utxos {
		totalIn += u.PrevOut.Value
	}

	if totalIn <= feeSats {
		return nil, fmt.Errorf("total input value %d does not "+
			"exceed fee %d", totalIn, feeSats)
	}

	destScript, err := txscript.PayToAddrScript(destination)
	if err != nil {
		return nil, fmt.Errorf("error building destination script: %w",
			err)
	}

	leaf := v.Leaves[heirIndex]
	controlBlock := v.ControlBlocks[heirIndex]
	sequence := input.LockTimeToSequence(false, uint32(leaf.Timelock))

	tx := wire.NewMsgTx(2)
	tx.LockTime = 0

	for _, u := range utxos {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: u.Outpoint,
			Sequence:         sequence,
		})
	}

	totalOut := totalIn - feeSats
	tx.AddTxOut(&wire.TxOut{
		Value:    totalOut,
		PkScript: destScript,
	})

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, fmt.Errorf("error creating PSBT: %w", err)
	}

	merkleRoot := v.MerkleRoot
	internalKey := v.InternalKey

	for i, u := range utxos {
		packet.Inputs[i] = psbt.PInput{
			WitnessUtxo:        u.PrevOut,
			SighashType:        txscript.SigHashDefault,
			TaprootInternalKey: internalKey[:],
			TaprootMerkleRoot:  merkleRoot[:],
			TaprootLeafScript: []*psbt.TaprootTapLeafScript{{
				ControlBlock: controlBlock,
				Script:       leaf.Script,
				LeafVersion:  txscript.BaseLeafVersion,
			}},
		}
	}

	log.Debugf("built claim psbt for heir_index %d spending %d input(s)",
		heirIndex, len(utxos))

	return &Result{
		Packet:      packet,
		TotalIn:     totalIn,
		Fee:         feeSats,
		TotalOut:    totalOut,
		Destination: destination.EncodeAddress(),
		NumInputs:   len(utxos),
	}, nil
}
