// Package facade is the core's entire public surface: seven stateless
// functions, each validating its arguments, driving the components below in
// the fixed order (argument-validate → reconstruct → index → arithmetic →
// PSBT build), and translating every internal failure into the *heirerr.Error
// taxonomy. No function here retains state across calls.
package facade

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/heirvault/core/backup"
	"github.com/heirvault/core/claimtx"
	"github.com/heirvault/core/codec"
	"github.com/heirvault/core/eligibility"
	"github.com/heirvault/core/feeest"
	"github.com/heirvault/core/finalize"
	"github.com/heirvault/core/heirerr"
	"github.com/heirvault/core/heirlog"
	"github.com/heirvault/core/indexer"
	"github.com/heirvault/core/netparams"
	"github.com/heirvault/core/vault"
)

var log = heirlog.Sub("FCD")

// VaultInfo is import_backup's response.
type VaultInfo struct {
	Network           string
	VaultAddress      string
	TimelockBlocks    uint16
	HeirCount         int
	HeirLabels        []string
	HasRecoveryLeaves bool
	AddressVerified   bool
}

// reconstructFromJSON runs the argument-validate and reconstruct steps
// shared by every facade function that needs a verified vault.
func reconstructFromJSON(backupJSON []byte) (*backup.Document, *vault.Vault, error) {
	doc, err := backup.Parse(backupJSON)
	if err != nil {
		return nil, nil, heirerr.Wrap(heirerr.InvalidBackup, "backup document invalid", err)
	}

	params, err := netparams.Resolve(doc.Network)
	if err != nil {
		return nil, nil, heirerr.Wrap(heirerr.InvalidBackup, "unknown network", err)
	}

	v, err := vault.Reconstruct(doc, params)
	if err != nil {
		return nil, nil, heirerr.Wrap(heirerr.VaultVerification, "vault reconstruction failed", err)
	}

	return doc, v, nil
}

// ImportBackup parses and verifies a backup document without touching the
// network.
func ImportBackup(backupJSON []byte) (*VaultInfo, error) {
	doc, v, err := reconstructFromJSON(backupJSON)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(doc.Heirs))
	for i, h := range doc.Heirs {
		labels[i] = h.Label
	}

	log.Debugf("imported backup for vault %s", v.Address.EncodeAddress())

	return &VaultInfo{
		Network:           netparams.Tag(v.Params),
		VaultAddress:      doc.VaultAddress,
		TimelockBlocks:    doc.TimelockBlocks,
		HeirCount:         len(doc.Heirs),
		HeirLabels:        labels,
		HasRecoveryLeaves: len(doc.RecoveryLeaves) > 0,
		AddressVerified:   true,
	}, nil
}

// CheckEligibility evaluates the pure eligibility arithmetic against a
// single confirmation height, without touching the network.
func CheckEligibility(backupJSON []byte, tipHeight, confirmationHeight uint32) (
	*eligibility.Status, error) {

	doc, err := backup.Parse(backupJSON)
	if err != nil {
		return nil, heirerr.Wrap(heirerr.InvalidBackup, "backup document invalid", err)
	}

	status := eligibility.Check(tipHeight, confirmationHeight, doc.TimelockBlocks)
	return &status, nil
}

// ValidateAddress reports whether addr parses and matches the named
// network, per the Address & Network component.
func ValidateAddress(addr, networkTag string) (bool, error) {
	params, err := netparams.Resolve(networkTag)
	if err != nil {
		return false, heirerr.Wrap(heirerr.InvalidAddress, "unknown network", err)
	}

	ok, err := netparams.ValidateAddress(addr, params)
	if err != nil {
		return false, heirerr.Wrap(heirerr.InvalidAddress, "address is not valid", err)
	}

	return ok, nil
}

// VaultStatus is fetch_vault_status's response.
type VaultStatus struct {
	BalanceSats         int64
	UTXOCount           int
	Tip                 uint32
	EarliestConfirmation uint32
	Eligible            bool
	BlocksRemaining     uint32
}

// FetchVaultStatus reconstructs the vault, then queries the indexer for its
// current on-chain balance and eligibility.
func FetchVaultStatus(ctx context.Context, backupJSON []byte, idx indexer.Client) (
	*VaultStatus, error) {

	doc, v, err := reconstructFromJSON(backupJSON)
	if err != nil {
		return nil, err
	}

	tip, err := idx.Height(ctx)
	if err != nil {
		return nil, heirerr.Wrap(heirerr.Indexer, "error fetching tip height", err)
	}

	utxos, err := idx.ListUTXOs(ctx, v.Address.EncodeAddress())
	if err != nil {
		return nil, heirerr.Wrap(heirerr.Indexer, "error fetching utxos", err)
	}

	var balance int64
	heights := make([]uint32, 0, len(utxos))
	for _, u := range utxos {
		balance += u.ValueSats
		heights = append(heights, u.ConfirmationHeight)
	}

	earliest, ok := eligibility.EarliestConfirmation(heights)
	status := eligibility.Status{Eligible: false, BlocksRemaining: uint32(doc.TimelockBlocks)}
	if ok {
		status = eligibility.Check(tip, earliest, doc.TimelockBlocks)
	}

	return &VaultStatus{
		BalanceSats:          balance,
		UTXOCount:            len(utxos),
		Tip:                  tip,
		EarliestConfirmation: earliest,
		Eligible:             status.Eligible,
		BlocksRemaining:      status.BlocksRemaining,
	}, nil
}

// ClaimPSBTResult is build_claim_psbt's response.
type ClaimPSBTResult struct {
	PSBTBase64  string
	TotalIn     int64
	Fee         int64
	TotalOut    int64
	Destination string
	NumInputs   int
}

// BuildClaimPSBT reconstructs the vault, fetches its UTXOs, and assembles an
// unsigned claim PSBT for the given heir index and destination.
func BuildClaimPSBT(ctx context.Context, backupJSON []byte, idx indexer.Client,
	destination string, heirIndex int, satPerVByte int64) (*ClaimPSBTResult, error) {

	if err := feeest.CheckCeiling(satPerVByte); err != nil {
		return nil, heirerr.Wrap(heirerr.FeeTooHigh, "fee rate rejected", err)
	}

	doc, v, err := reconstructFromJSON(backupJSON)
	if err != nil {
		return nil, err
	}

	params, err := netparams.Resolve(doc.Network)
	if err != nil {
		return nil, heirerr.Wrap(heirerr.InvalidBackup, "unknown network", err)
	}

	destAddr, err := netparams.ParseAddressForNet(destination, params)
	if err != nil {
		return nil, heirerr.Wrap(heirerr.InvalidAddress, "destination address invalid", err)
	}

	if heirIndex < 0 || heirIndex >= len(v.Leaves) {
		return nil, heirerr.New(heirerr.InvalidHeirIndex,
			fmt.Sprintf("heir_index %d out of range [0, %d)", heirIndex, len(v.Leaves)))
	}

	rawUTXOs, err := idx.ListUTXOs(ctx, v.Address.EncodeAddress())
	if err != nil {
		return nil, heirerr.Wrap(heirerr.Indexer, "error fetching utxos", err)
	}

	if len(rawUTXOs) == 0 {
		return nil, heirerr.New(heirerr.EmptyInputs, "vault has no spendable utxos")
	}

	utxos, err := toClaimUTXOs(rawUTXOs, v.ScriptPubKey)
	if err != nil {
		return nil, heirerr.Wrap(heirerr.Codec, "error decoding utxo data", err)
	}

	recoveryInputs := make([]feeest.RecoveryInput, len(utxos))
	for i := range utxos {
		recoveryInputs[i] = feeest.RecoveryInput{
			LeafScript:   v.Leaves[heirIndex].Script,
			ControlBlock: v.ControlBlocks[heirIndex],
		}
	}

	_, fee, err := feeest.Estimate(recoveryInputs, destAddr, satPerVByte)
	if err != nil {
		return nil, heirerr.Wrap(heirerr.Codec, "error estimating fee", err)
	}

	var totalIn int64
	for _, u := range utxos {
		totalIn += u.PrevOut.Value
	}
	if totalIn <= fee {
		return nil, heirerr.New(heirerr.InsufficientFunds,
			fmt.Sprintf("total input value %d sats does not exceed fee %d sats",
				totalIn, fee))
	}

	result, err := claimtx.Build(v, heirIndex, utxos, destAddr, fee)
	if err != nil {
		return nil, heirerr.Wrap(heirerr.Codec, "error building claim psbt", err)
	}

	b64, err := codec.EncodePSBT(result.Packet)
	if err != nil {
		return nil, heirerr.Wrap(heirerr.Codec, "error encoding psbt", err)
	}

	log.Infof("built claim psbt for heir_index %d spending %d input(s)",
		heirIndex, result.NumInputs)

	return &ClaimPSBTResult{
		PSBTBase64:  b64,
		TotalIn:     result.TotalIn,
		Fee:         result.Fee,
		TotalOut:    result.TotalOut,
		Destination: result.Destination,
		NumInputs:   result.NumInputs,
	}, nil
}

// FinalizePSBTResult is finalize_psbt's response.
type FinalizePSBTResult struct {
	TxHex      string
	Txid       string
	TotalOut   int64
	NumInputs  int
	NumOutputs int
}

// FinalizePSBT extracts the consensus transaction from a fully-signed PSBT.
func FinalizePSBT(psbtBase64 string) (*FinalizePSBTResult, error) {
	result, err := finalize.Finalize(psbtBase64)
	if err != nil {
		if n, ok := finalize.UnsignedCount(err); ok {
			return nil, heirerr.WrapUnsigned(n)
		}
		if signed, n, ok := finalize.PartiallySignedCounts(err); ok {
			return nil, heirerr.WrapPartiallySigned(signed, n)
		}
		return nil, classifyFinalizeErr(err)
	}

	return &FinalizePSBTResult{
		TxHex:      result.TxHex,
		Txid:       result.Txid,
		TotalOut:   result.TotalOutputSats,
		NumInputs:  result.NumInputs,
		NumOutputs: result.NumOutputs,
	}, nil
}

func classifyFinalizeErr(err error) *heirerr.Error {
	if strings.HasPrefix(err.Error(), "codec:") {
		return heirerr.Wrap(heirerr.Codec, "psbt decoding failed", err)
	}
	return heirerr.Wrap(heirerr.FinalizationFailed, "psbt finalization failed", err)
}

// BroadcastResult is broadcast_transaction's response.
type BroadcastResult struct {
	Txid    string
	Success bool
}

// BroadcastTransaction decodes a consensus transaction and hands it to the
// indexer.
func BroadcastTransaction(ctx context.Context, txHex string, idx indexer.Client) (
	*BroadcastResult, error) {

	if _, err := codec.DecodeTx(txHex); err != nil {
		return nil, heirerr.Wrap(heirerr.Codec, "invalid transaction hex", err)
	}

	txid, err := idx.Broadcast(ctx, txHex)
	if err != nil {
		return nil, heirerr.Wrap(heirerr.Indexer, "broadcast failed", err)
	}

	return &BroadcastResult{Txid: txid, Success: true}, nil
}

func toClaimUTXOs(raw []indexer.UTXO, expectedScriptPubKey []byte) ([]claimtx.UTXO, error) {
	out := make([]claimtx.UTXO, len(raw))
	for i, u := range raw {
		hash, err := chainhash.NewHashFromStr(u.Txid)
		if err != nil {
			return nil, fmt.Errorf("utxo %d: invalid txid: %w", i, err)
		}

		script, err := hex.DecodeString(u.ScriptPubkeyHex)
		if err != nil {
			return nil, fmt.Errorf("utxo %d: invalid script_pubkey: %w", i, err)
		}

		if !bytes.Equal(script, expectedScriptPubKey) {
			return nil, fmt.Errorf("utxo %d: script_pubkey does not "+
				"match vault's reconstructed script", i)
		}

		out[i] = claimtx.UTXO{
			Outpoint: wire.OutPoint{Hash: *hash, Index: u.Vout},
			PrevOut:  &wire.TxOut{Value: u.ValueSats, PkScript: script},
		}
	}
	return out, nil
}
