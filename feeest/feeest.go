// Package feeest implements the Fee Estimator: predicting the virtual-byte
// cost of a recovery-path claim transaction so a sat/vB rate turns into a
// concrete fee in sats, and enforcing the safety ceiling on that rate before
// any network I/O happens.
package feeest

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/input"
	"github.com/lightningnetwork/lnd/lnwallet/chainfee"
)

// MaxSatPerVByte is the safety ceiling the facade enforces on the caller-
// supplied fee rate, before any indexer call is made.
const MaxSatPerVByte = 500

// RecoveryInput describes one input's script-path witness shape, used to
// size its witness stack: a signature, the leaf script it reveals, and a
// control block whose size grows with the script tree's merkle depth.
type RecoveryInput struct {
	LeafScript   []byte
	ControlBlock []byte
}

// Estimate computes the virtual size of a claim transaction spending inputs
// via their recovery-path witnesses and paying a single destination output,
// then converts a sat/vB rate into a concrete fee in sats.
func Estimate(inputs []RecoveryInput, destination btcutil.Address,
	satPerVByte int64) (vbytes int64, feeSats int64, err error) {

	estimator := input.TxWeightEstimator{}

	for _, in := range inputs {
		witnessSize := scriptPathWitnessSize(in.LeafScript, in.ControlBlock)
		estimator.AddWitnessInput(witnessSize)
	}

	if err := addOutput(&estimator, destination); err != nil {
		return 0, 0, err
	}

	weight := int64(estimator.Weight())
	vbytes = (weight + 3) / 4

	feeRate := chainfee.SatPerKVByte(1000 * satPerVByte).FeePerKWeight()
	feeSats = int64(feeRate.FeeForWeight(weight))

	return vbytes, feeSats, nil
}

// scriptPathWitnessSize mirrors the witness stack a recovery-path spend
// reveals: a 64-byte Schnorr signature, the leaf script, and a control block
// (1 internal-key byte + 32-byte key + 32 bytes per merkle-proof step),
// each preceded by a compact-size length prefix.
func scriptPathWitnessSize(leafScript, controlBlock []byte) int {
	const schnorrSigSize = 64

	return 1 + schnorrSigSize +
		1 + len(leafScript) +
		1 + len(controlBlock)
}

func addOutput(estimator *input.TxWeightEstimator, addr btcutil.Address) error {
	switch addr.(type) {
	case *btcutil.AddressTaproot:
		estimator.AddP2TROutput()
	case *btcutil.AddressWitnessPubKeyHash:
		estimator.AddP2WKHOutput()
	case *btcutil.AddressWitnessScriptHash:
		estimator.AddP2WSHOutput()
	case *btcutil.AddressPubKeyHash:
		estimator.AddP2PKHOutput()
	case *btcutil.AddressScriptHash:
		estimator.AddP2SHOutput()
	default:
		return fmt.Errorf("unsupported destination address type %T", addr)
	}
	return nil
}

// CheckCeiling enforces the pre-I/O safety ceiling on the caller-supplied
// fee rate. It never inspects the UTXO set or talks to the indexer.
func CheckCeiling(satPerVByte int64) error {
	if satPerVByte > MaxSatPerVByte {
		return fmt.Errorf("sat_per_vb %d exceeds safety ceiling of %d",
			satPerVByte, MaxSatPerVByte)
	}
	return nil
}
