// Package testvault builds self-consistent vault fixtures for tests across
// the module: a vault only the production reconstruction code is meant to
// read, never one it also derives, so fixtures here reimplement the
// aggregation and script-tree construction independently rather than calling
// into package vault. This mirrors how the reference tool's itest package
// builds its own taproot addresses for assertions instead of reusing
// production helpers.
package testvault

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/musig2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightningnetwork/lnd/input"
)

var cosignerIndexTag = []byte("heirvault/cosigner-index")

// Heir is one recovery path's key material, kept around so a test can sign
// a claim through it.
type Heir struct {
	Label         string
	PrivKey       *btcec.PrivateKey
	XOnlyPubkey   []byte
	RecoveryIndex int
	Timelock      uint16
	Script        []byte
}

// Fixture is a fully self-consistent vault: every field the backup JSON
// needs, plus the private material to actually sign a recovery-path spend
// in an end-to-end test.
type Fixture struct {
	Params *chaincfg.Params

	OwnerPrivKey    *btcec.PrivateKey
	OwnerPubkey     *btcec.PublicKey
	CosignerPrivKey *btcec.PrivateKey
	CosignerPubkey  *btcec.PublicKey
	ChainCode       [32]byte
	AddressIndex    uint32

	TimelockBlocks uint16
	Heirs          []Heir

	InternalKey  *btcec.PublicKey
	OutputKey    *btcec.PublicKey
	MerkleRoot   chainhash.Hash
	ScriptPubKey []byte
	Address      btcutil.Address

	ControlBlocks [][]byte
}

// Opts configures a fixture's shape. Zero value yields one heir at a
// 26280-block (roughly six months) timelock, which is what the original
// backup fixtures this core was designed against use.
type Opts struct {
	Params         *chaincfg.Params
	TimelockBlocks uint16
	NumHeirs       int
	Seed           byte
}

// Build constructs a fixture from deterministic, seed-derived keys. Varying
// Seed across calls in the same test file keeps independently built
// fixtures from sharing key material.
func Build(opts Opts) (*Fixture, error) {
	if opts.Params == nil {
		opts.Params = &chaincfg.RegressionNetParams
	}
	if opts.TimelockBlocks == 0 {
		opts.TimelockBlocks = 26280
	}
	if opts.NumHeirs == 0 {
		opts.NumHeirs = 1
	}

	ownerPriv := privKeyFromSeed(opts.Seed, 0x01)
	cosignerPriv := privKeyFromSeed(opts.Seed, 0x02)

	var chainCode [32]byte
	for i := range chainCode {
		chainCode[i] = 0xab
	}

	addressIndex := uint32(0)

	internalKey, err := aggregateInternalKey(
		ownerPriv.PubKey(), cosignerPriv.PubKey(), chainCode, addressIndex,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate internal key: %w", err)
	}

	heirs := make([]Heir, opts.NumHeirs)
	tapLeaves := make([]txscript.TapLeaf, opts.NumHeirs)
	for i := 0; i < opts.NumHeirs; i++ {
		heirPriv := privKeyFromSeed(opts.Seed, byte(0x10+i))
		xonly := schnorr.SerializePubKey(heirPriv.PubKey())

		script, err := recoveryLeafScript(xonly, opts.TimelockBlocks)
		if err != nil {
			return nil, fmt.Errorf("heir %d leaf script: %w", i, err)
		}

		heirs[i] = Heir{
			Label:         fmt.Sprintf("heir-%d", i),
			PrivKey:       heirPriv,
			XOnlyPubkey:   xonly,
			RecoveryIndex: i,
			Timelock:      opts.TimelockBlocks,
			Script:        script,
		}
		tapLeaves[i] = txscript.NewBaseTapLeaf(script)
	}

	tree := txscript.AssembleTaprootScriptTree(tapLeaves...)
	merkleRoot := tree.RootNode.TapHash()

	outputKey := txscript.ComputeTaprootOutputKey(internalKey, merkleRoot[:])

	addr, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(outputKey), opts.Params,
	)
	if err != nil {
		return nil, fmt.Errorf("derive taproot address: %w", err)
	}

	scriptPubKey, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("build script pubkey: %w", err)
	}

	controlBlocks := make([][]byte, opts.NumHeirs)
	for i := range tapLeaves {
		cb := tree.LeafMerkleProofs[i].ToControlBlock(internalKey)
		cbBytes, err := cb.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("control block %d: %w", i, err)
		}
		controlBlocks[i] = cbBytes
	}

	return &Fixture{
		Params:          opts.Params,
		OwnerPrivKey:    ownerPriv,
		OwnerPubkey:     ownerPriv.PubKey(),
		CosignerPrivKey: cosignerPriv,
		CosignerPubkey:  cosignerPriv.PubKey(),
		ChainCode:       chainCode,
		AddressIndex:    addressIndex,
		TimelockBlocks:  opts.TimelockBlocks,
		Heirs:           heirs,
		InternalKey:     internalKey,
		OutputKey:       outputKey,
		MerkleRoot:      merkleRoot,
		ScriptPubKey:    scriptPubKey,
		Address:         addr,
		ControlBlocks:   controlBlocks,
	}, nil
}

// recoveryLeafScript builds <heir_xonly> OP_CHECKSIGVERIFY <timelock>
// OP_CHECKSEQUENCEVERIFY, the tapscript shape every recovery leaf uses.
func recoveryLeafScript(xonlyPubkey []byte, timelock uint16) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(xonlyPubkey).
		AddOp(txscript.OP_CHECKSIGVERIFY).
		AddInt64(int64(timelock)).
		AddOp(txscript.OP_CHECKSEQUENCEVERIFY).
		Script()
}

func aggregateInternalKey(ownerPub, cosignerPub *btcec.PublicKey,
	chainCode [32]byte, addressIndex uint32) (*btcec.PublicKey, error) {

	var indexBytes [4]byte
	indexBytes[0] = byte(addressIndex >> 24)
	indexBytes[1] = byte(addressIndex >> 16)
	indexBytes[2] = byte(addressIndex >> 8)
	indexBytes[3] = byte(addressIndex)

	tweakHash := chainhash.TaggedHash(
		cosignerIndexTag, chainCode[:], indexBytes[:],
	)

	tweakedCosignerKey := input.TweakPubKeyWithTweak(cosignerPub, tweakHash[:])

	aggKey, _, _, err := musig2.AggregateKeys(
		[]*btcec.PublicKey{ownerPub, tweakedCosignerKey}, true,
	)
	if err != nil {
		return nil, fmt.Errorf("musig2 key aggregation failed: %w", err)
	}

	return aggKey.PreTweakedKey, nil
}

func privKeyFromSeed(seed, salt byte) *btcec.PrivateKey {
	var b [32]byte
	for i := range b {
		b[i] = seed ^ salt ^ byte(i+1)
	}
	// Avoid the zero scalar; salt/seed/index are never all zero together
	// for the inputs this package is called with, but guard anyway.
	if b == [32]byte{} {
		b[31] = 1
	}
	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv
}

// BackupJSON renders the fixture as the wire JSON a backup document expects,
// with an xpub-shaped placeholder for each heir (recovery_index and
// script_hex are what reconstruction actually checks; the xpub field only
// needs to parse).
func (f *Fixture) BackupJSON(networkTag, placeholderXpub string) string {
	heirs := ""
	for i, h := range f.Heirs {
		if i > 0 {
			heirs += ","
		}
		heirs += fmt.Sprintf(`{"label":%q,"xpub":%q,"fingerprint":"00000000",`+
			`"derivation_path":"m/84'/0'/0'","recovery_index":%d}`,
			h.Label, placeholderXpub, h.RecoveryIndex)
	}

	leaves := ""
	for i, h := range f.Heirs {
		if i > 0 {
			leaves += ","
		}
		leaves += fmt.Sprintf(`{"timelock":%d,"script_hex":%q}`,
			h.Timelock, hex.EncodeToString(h.Script))
	}

	return fmt.Sprintf(`{
		"version": 1,
		"network": %q,
		"owner_pubkey": %q,
		"cosigner_pubkey": %q,
		"chain_code": %q,
		"address_index": %d,
		"timelock_blocks": %d,
		"threshold": 1,
		"heirs": [%s],
		"vault_address": %q,
		"recovery_leaves": [%s]
	}`,
		networkTag,
		hex.EncodeToString(f.OwnerPubkey.SerializeCompressed()),
		hex.EncodeToString(f.CosignerPubkey.SerializeCompressed()),
		hex.EncodeToString(f.ChainCode[:]),
		f.AddressIndex,
		f.TimelockBlocks,
		heirs,
		f.Address.EncodeAddress(),
		leaves,
	)
}
