// Package backup implements the Codec component: parsing and validating the
// heir's backup document. The wire JSON struct stays separate from the
// richer in-memory types callers operate on, the same split the reference
// tool draws between its JSON dataformat structs and what it builds from
// them.
package backup

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const (
	// SupportedVersion is the only backup document version this core
	// accepts. Per the Open Questions in SPEC_FULL.md, a different
	// version is rejected outright rather than silently upgraded.
	SupportedVersion = 1

	// MaxTimelockBlocks is the largest accepted relative timelock,
	// chosen so it always fits a 16-bit nSequence relative-block field.
	MaxTimelockBlocks = 65535
)

// HeirEntry is one entry of the backup's ordered heirs sequence.
type HeirEntry struct {
	Label          string `json:"label"`
	Xpub           string `json:"xpub"`
	Fingerprint    string `json:"fingerprint"`
	DerivationPath string `json:"derivation_path"`
	RecoveryIndex  int    `json:"recovery_index"`
	Npub           string `json:"npub,omitempty"`
}

// RecoveryLeaf is one entry of the backup's ordered recovery_leaves
// sequence: a tapscript leaf reserved for a recovery path, plus the
// relative timelock it encodes.
type RecoveryLeaf struct {
	Timelock uint16 `json:"timelock"`
	ScriptHex string `json:"script_hex"`
}

// wireDocument is the literal JSON shape of the backup document. Hex and
// base58 fields stay as strings here; Document holds the decoded forms.
type wireDocument struct {
	Version             int            `json:"version"`
	Network             string         `json:"network"`
	OwnerPubkey         string         `json:"owner_pubkey"`
	CosignerPubkey      string         `json:"cosigner_pubkey"`
	ChainCode           string         `json:"chain_code"`
	AddressIndex        uint32         `json:"address_index"`
	TimelockBlocks      int            `json:"timelock_blocks"`
	Threshold           int            `json:"threshold"`
	Heirs               []HeirEntry    `json:"heirs"`
	VaultAddress        string         `json:"vault_address"`
	TaprootInternalKey  string         `json:"taproot_internal_key,omitempty"`
	RecoveryLeaves      []RecoveryLeaf `json:"recovery_leaves"`
	CreatedAt           *int64         `json:"created_at,omitempty"`
}

// Document is the decoded, presence- and length-checked backup document.
// It is immutable after Parse returns it.
type Document struct {
	Network            string
	OwnerPubkey        *btcec.PublicKey
	CosignerPubkey     *btcec.PublicKey
	ChainCode          [32]byte
	AddressIndex       uint32
	TimelockBlocks     uint16
	Threshold          int
	Heirs              []HeirEntry
	VaultAddress       string
	TaprootInternalKey string
	RecoveryLeaves     []RecoveryLeaf
	CreatedAt          *int64

	raw []byte
}

// Raw returns the exact bytes Parse was given, supporting the idempotence
// property (import_backup(import_backup(B).raw) == import_backup(B)).
func (d *Document) Raw() []byte {
	return d.raw
}

// Parse decodes and validates a backup document. Every failure here is
// reported as InvalidBackup by the facade; Parse itself returns plain
// errors so it composes in non-facade callers (e.g. tests) too.
func Parse(jsonBytes []byte) (*Document, error) {
	var wire wireDocument
	if err := json.Unmarshal(jsonBytes, &wire); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if wire.Version != SupportedVersion {
		return nil, fmt.Errorf("unsupported backup version: %d",
			wire.Version)
	}

	switch wire.Network {
	case "mainnet", "bitcoin", "testnet", "signet", "regtest":
	default:
		return nil, fmt.Errorf("unknown network tag %q", wire.Network)
	}

	ownerPubkey, err := decodeCompressedPubkey(wire.OwnerPubkey, "owner_pubkey")
	if err != nil {
		return nil, err
	}

	cosignerPubkey, err := decodeCompressedPubkey(
		wire.CosignerPubkey, "cosigner_pubkey",
	)
	if err != nil {
		return nil, err
	}

	chainCode, err := decodeFixedBytes32(wire.ChainCode, "chain_code")
	if err != nil {
		return nil, err
	}

	if wire.TimelockBlocks < 1 || wire.TimelockBlocks > MaxTimelockBlocks {
		return nil, fmt.Errorf("timelock_blocks %d out of range "+
			"[1, %d]", wire.TimelockBlocks, MaxTimelockBlocks)
	}

	if wire.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %d",
			wire.Threshold)
	}

	if len(wire.Heirs) == 0 {
		return nil, fmt.Errorf("heirs must not be empty")
	}

	if wire.Threshold > len(wire.Heirs) {
		return nil, fmt.Errorf("threshold %d exceeds heir count %d",
			wire.Threshold, len(wire.Heirs))
	}

	if len(wire.RecoveryLeaves) == 0 {
		return nil, fmt.Errorf("recovery_leaves must not be empty")
	}

	for _, h := range wire.Heirs {
		if h.Label == "" {
			return nil, fmt.Errorf("heir entry missing label")
		}
		if h.Xpub == "" {
			return nil, fmt.Errorf("heir %q missing xpub", h.Label)
		}
		if _, err := hdkeychain.NewKeyFromString(h.Xpub); err != nil {
			return nil, fmt.Errorf("heir %q has invalid xpub: %w",
				h.Label, err)
		}
		if h.RecoveryIndex < 0 || h.RecoveryIndex >= len(wire.RecoveryLeaves) {
			return nil, fmt.Errorf("heir %q recovery_index %d out "+
				"of range [0, %d)", h.Label, h.RecoveryIndex,
				len(wire.RecoveryLeaves))
		}
	}

	for i, leaf := range wire.RecoveryLeaves {
		if leaf.Timelock != uint16(wire.TimelockBlocks) {
			return nil, fmt.Errorf("recovery_leaves[%d].timelock "+
				"%d does not match timelock_blocks %d", i,
				leaf.Timelock, wire.TimelockBlocks)
		}
		if _, err := hex.DecodeString(leaf.ScriptHex); err != nil {
			return nil, fmt.Errorf("recovery_leaves[%d].script_hex "+
				"is not valid hex: %w", i, err)
		}
	}

	if wire.VaultAddress == "" {
		return nil, fmt.Errorf("vault_address must not be empty")
	}

	return &Document{
		Network:            wire.Network,
		OwnerPubkey:        ownerPubkey,
		CosignerPubkey:     cosignerPubkey,
		ChainCode:          chainCode,
		AddressIndex:       wire.AddressIndex,
		TimelockBlocks:     uint16(wire.TimelockBlocks),
		Threshold:          wire.Threshold,
		Heirs:              wire.Heirs,
		VaultAddress:       wire.VaultAddress,
		TaprootInternalKey: wire.TaprootInternalKey,
		RecoveryLeaves:     wire.RecoveryLeaves,
		CreatedAt:          wire.CreatedAt,
		raw:                jsonBytes,
	}, nil
}

func decodeCompressedPubkey(s, field string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid hex: %w", field, err)
	}
	if len(b) != 33 {
		return nil, fmt.Errorf("%s must be 33 bytes, got %d", field,
			len(b))
	}
	pubKey, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%s is not a valid pubkey: %w", field,
			err)
	}
	return pubKey, nil
}

func decodeFixedBytes32(s, field string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%s is not valid hex: %w", field, err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("%s must be 32 bytes, got %d", field,
			len(b))
	}
	copy(out[:], b)
	return out, nil
}
