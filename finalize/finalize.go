// Package finalize implements the Finalizer: turning a fully-signed PSBT
// into the consensus transaction it represents, without mutating the PSBT
// itself.
package finalize

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"

	"github.com/heirvault/core/codec"
)

// Result is the finalizer's public output.
type Result struct {
	TxHex           string
	Txid            string
	TotalOutputSats int64
	NumInputs       int
	NumOutputs      int
}

// unsignedErr and partialErr let the facade recover the exact counts the
// error taxonomy requires without re-deriving them.
type unsignedErr struct{ n int }

func (e *unsignedErr) Error() string {
	return fmt.Sprintf("%d input(s) need signing", e.n)
}

func (e *unsignedErr) Count() int { return e.n }

type partialErr struct{ signed, n int }

func (e *partialErr) Error() string {
	return fmt.Sprintf("%d of %d input(s) signed, %d still need signing",
		e.signed, e.n, e.n-e.signed)
}

func (e *partialErr) Counts() (signed, n int) { return e.signed, e.n }

// UnsignedCount recovers the input count from an error returned by Finalize,
// if it represents the all-unsigned precondition failure.
func UnsignedCount(err error) (n int, ok bool) {
	if u, isUnsigned := err.(*unsignedErr); isUnsigned {
		return u.Count(), true
	}
	return 0, false
}

// PartiallySignedCounts recovers signed/total counts from an error returned
// by Finalize, if it represents the partially-signed precondition failure.
func PartiallySignedCounts(err error) (signed, n int, ok bool) {
	if p, isPartial := err.(*partialErr); isPartial {
		s, t := p.Counts()
		return s, t, true
	}
	return 0, 0, false
}

// Finalize decodes b64, checks every input is signed, and extracts the
// consensus transaction. Finalization runs on a packet freshly decoded from
// b64, so the caller's PSBT is left as it was; the only observable effect is
// the returned Result.
func Finalize(b64 string) (*Result, error) {
	packet, err := codec.DecodePSBT(b64)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}

	n := len(packet.Inputs)
	signed := countSigned(packet)

	switch {
	case signed == 0:
		return nil, &unsignedErr{n: n}
	case signed < n:
		return nil, &partialErr{signed: signed, n: n}
	}

	if err := psbt.MaybeFinalizeAll(packet); err != nil {
		return nil, fmt.Errorf("finalization failed: %w", err)
	}

	tx, err := psbt.Extract(packet)
	if err != nil {
		return nil, fmt.Errorf("finalization failed: %w", err)
	}

	txHex, err := codec.EncodeTx(tx)
	if err != nil {
		return nil, fmt.Errorf("finalization failed: %w", err)
	}

	return &Result{
		TxHex:           txHex,
		Txid:            tx.TxID(),
		TotalOutputSats: totalOutput(tx),
		NumInputs:       len(tx.TxIn),
		NumOutputs:      len(tx.TxOut),
	}, nil
}

// countSigned reports how many inputs carry some form of signature data,
// per the exact disjunction the finalizer's precondition is defined over.
func countSigned(packet *psbt.Packet) int {
	signed := 0
	for _, in := range packet.Inputs {
		switch {
		case len(in.FinalScriptWitness) > 0:
			signed++
		case len(in.FinalScriptSig) > 0:
			signed++
		case len(in.TaprootKeySpendSig) > 0:
			signed++
		case len(in.TaprootScriptSpendSig) > 0:
			signed++
		case len(in.PartialSigs) > 0:
			signed++
		}
	}
	return signed
}

func totalOutput(tx *wire.MsgTx) int64 {
	var total int64
	for _, out := range tx.TxOut {
		total += out.Value
	}
	return total
}
