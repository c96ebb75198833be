package finalize

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/heirvault/core/backup"
	"github.com/heirvault/core/claimtx"
	"github.com/heirvault/core/codec"
	"github.com/heirvault/core/internal/testvault"
	"github.com/heirvault/core/vault"
)

const testXpub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhe" +
	"PY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"

func buildClaimPacket(t *testing.T, value int64) (*testvault.Fixture, *psbt.Packet) {
	t.Helper()

	fx, err := testvault.Build(testvault.Opts{
		Params: &chaincfg.RegressionNetParams, Seed: 0x51,
	})
	require.NoError(t, err)

	doc, err := backup.Parse([]byte(fx.BackupJSON("regtest", testXpub)))
	require.NoError(t, err)

	v, err := vault.Reconstruct(doc, &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	utxos := []claimtx.UTXO{{
		Outpoint: wire.OutPoint{Hash: [32]byte{0x42}, Index: 0},
		PrevOut:  &wire.TxOut{Value: value, PkScript: v.ScriptPubKey},
	}}

	result, err := claimtx.Build(v, 0, utxos, fx.Address, 300)
	require.NoError(t, err)

	return fx, result.Packet
}

func TestFinalizeRejectsUnsignedPacket(t *testing.T) {
	_, packet := buildClaimPacket(t, 50_000)

	b64, err := codec.EncodePSBT(packet)
	require.NoError(t, err)

	_, err = Finalize(b64)
	require.Error(t, err)

	n, ok := UnsignedCount(err)
	require.True(t, ok)
	require.Equal(t, 1, n)
}

func TestFinalizeRejectsPartiallySignedPacket(t *testing.T) {
	fx, packet := buildClaimPacket(t, 50_000)
	packet.UnsignedTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: [32]byte{0x43}, Index: 0},
		Sequence:         packet.UnsignedTx.TxIn[0].Sequence,
	})
	packet.Inputs = append(packet.Inputs, psbt.PInput{
		WitnessUtxo: &wire.TxOut{Value: 1000, PkScript: fx.ScriptPubKey},
	})

	// Mark the first input as already signed; the second stays bare, so
	// the packet is partially, not fully or entirely un-, signed. The sig
	// carries a real x-only key and leaf hash so the PSBT still decodes.
	leafHash := txscript.NewBaseTapLeaf(fx.Heirs[0].Script).TapHash()
	packet.Inputs[0].TaprootScriptSpendSig = []*psbt.TaprootScriptSpendSig{{
		XOnlyPubKey: fx.Heirs[0].XOnlyPubkey,
		LeafHash:    leafHash[:],
		Signature:   bytes.Repeat([]byte{0x01}, 64),
	}}

	b64, err := codec.EncodePSBT(packet)
	require.NoError(t, err)

	_, err = Finalize(b64)
	require.Error(t, err)

	signed, n, ok := PartiallySignedCounts(err)
	require.True(t, ok)
	require.Equal(t, 1, signed)
	require.Equal(t, 2, n)
}

func TestFinalizeRejectsInvalidBase64(t *testing.T) {
	_, err := Finalize("not-base64!!")
	require.Error(t, err)
}

func TestFinalizeExtractsFullySignedTransaction(t *testing.T) {
	fx, packet := buildClaimPacket(t, 50_000)

	tx := packet.UnsignedTx
	fetcher := wallet.PsbtPrevOutputFetcher(packet)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	leaf := txscript.TapLeaf{
		LeafVersion: txscript.BaseLeafVersion,
		Script:      fx.Heirs[0].Script,
	}
	rawSig, err := txscript.RawTxInTapscriptSignature(
		tx, sigHashes, 0, packet.Inputs[0].WitnessUtxo.Value,
		packet.Inputs[0].WitnessUtxo.PkScript, leaf,
		txscript.SigHashDefault, fx.Heirs[0].PrivKey,
	)
	require.NoError(t, err)

	witness := wire.TxWitness{
		rawSig,
		fx.Heirs[0].Script,
		fx.ControlBlocks[0],
	}

	var witnessBuf bytes.Buffer
	require.NoError(t, psbt.WriteTxWitness(&witnessBuf, witness))
	packet.Inputs[0].FinalScriptWitness = witnessBuf.Bytes()

	t.Logf("fully signed input: %v", spew.Sdump(packet.Inputs[0]))

	b64, err := codec.EncodePSBT(packet)
	require.NoError(t, err)

	result, err := Finalize(b64)
	require.NoError(t, err)
	require.Equal(t, int64(49_700), result.TotalOutputSats)
	require.Equal(t, 1, result.NumInputs)
	require.Equal(t, 1, result.NumOutputs)

	finalTx, err := codec.DecodeTx(result.TxHex)
	require.NoError(t, err)

	vm, err := txscript.NewEngine(
		fx.ScriptPubKey, finalTx, 0, txscript.StandardVerifyFlags, nil,
		sigHashes, packet.Inputs[0].WitnessUtxo.Value, fetcher,
	)
	require.NoError(t, err)
	require.NoError(t, vm.Execute())
}
