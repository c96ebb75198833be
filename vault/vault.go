// Package vault implements the Vault Reconstructor: turning a parsed backup
// document into the exact Taproot output the original vault paid to, with no
// network calls and no private key material involved. Reconstruction must be
// a pure function of the backup document; the same document always yields
// the same address.
package vault

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

	"github.com/heirvault/core/backup"
	"github.com/heirvault/core/heirlog"
)

var log = heirlog.Sub("VLT")

// cosignerIndexTag domain-separates the per-address-index cosigner tweak
// from BIP341's own TagTapTweak, so the two tweak steps can never collide.
var cosignerIndexTag = []byte("heirvault/cosigner-index")

// Leaf is one reconstructed recovery path: the exact tapscript that was
// committed to, and the relative timelock it encodes (duplicated from the
// backup document's recovery_leaves entry for convenience).
type Leaf struct {
	Timelock uint16
	Script   []byte
}

// Vault is the flat, reconstructed view of a vault's Taproot output. It
// carries no pointer back to the Document it was built from; every field a
// caller needs (fee estimation, PSBT building, address display) lives here
// directly.
type Vault struct {
	Params *chaincfg.Params

	// InternalKey is the untweaked MuSig2 aggregate of the owner and
	// (index-tweaked) cosigner keys, serialized x-only.
	InternalKey [32]byte

	// OutputKey is the Taproot output key after the script-tree tweak,
	// serialized x-only. It's the 32 bytes that appear in the address
	// and in the witness program.
	OutputKey [32]byte

	MerkleRoot [32]byte

	// Leaves and ControlBlocks are parallel, indexed exactly like the
	// backup document's recovery_leaves: Leaves[i]/ControlBlocks[i]
	// is heir recovery_index i's spending path.
	Leaves        []Leaf
	ControlBlocks [][]byte

	ScriptPubKey []byte
	Address      btcutil.Address
}

// Reconstruct derives the Taproot output committed to by doc and checks it
// against doc.VaultAddress. A mismatch means the document was tampered with
// or corrupted; Reconstruct returns a plain error describing the mismatch,
// which callers above the facade boundary classify as VaultVerification.
func Reconstruct(doc *backup.Document, params *chaincfg.Params) (*Vault, error) {
	internalKey, err := aggregateInternalKey(doc)
	if err != nil {
		return nil, fmt.Errorf("error deriving internal key: %w", err)
	}

	leaves := make([]Leaf, len(doc.RecoveryLeaves))
	tapLeaves := make([]txscript.TapLeaf, len(doc.RecoveryLeaves))
	for i, rl := range doc.RecoveryLeaves {
		script, err := hex.DecodeString(rl.ScriptHex)
		if err != nil {
			return nil, fmt.Errorf("recovery_leaves[%d]: %w", i, err)
		}

		leaves[i] = Leaf{Timelock: rl.Timelock, Script: script}
		tapLeaves[i] = txscript.NewBaseTapLeaf(script)
	}

	tree := txscript.AssembleTaprootScriptTree(tapLeaves...)
	merkleRoot := tree.RootNode.TapHash()

	outputKey := txscript.ComputeTaprootOutputKey(internalKey, merkleRoot[:])

	addr, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(outputKey), params,
	)
	if err != nil {
		return nil, fmt.Errorf("error deriving taproot address: %w", err)
	}

	if addr.EncodeAddress() != doc.VaultAddress {
		return nil, fmt.Errorf("reconstructed address %s does not "+
			"match backup's vault_address %s", addr.EncodeAddress(),
			doc.VaultAddress)
	}

	scriptPubKey, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("error building script pubkey: %w", err)
	}

	controlBlocks := make([][]byte, len(tapLeaves))
	for i := range tapLeaves {
		cb := tree.LeafMerkleProofs[i].ToControlBlock(internalKey)
		cbBytes, err := cb.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("control block %d: %w", i, err)
		}
		controlBlocks[i] = cbBytes
	}

	log.Debugf("reconstructed vault address %s with %d recovery paths",
		addr.EncodeAddress(), len(leaves))

	var internalKeyArr, outputKeyArr [32]byte
	copy(internalKeyArr[:], schnorr.SerializePubKey(internalKey))
	copy(outputKeyArr[:], schnorr.SerializePubKey(outputKey))

	return &Vault{
		Params:        params,
		InternalKey:   internalKeyArr,
		OutputKey:     outputKeyArr,
		MerkleRoot:    merkleRoot,
		Leaves:        leaves,
		ControlBlocks: controlBlocks,
		ScriptPubKey:  scriptPubKey,
		Address:       addr,
	}, nil
}

// aggregateInternalKey reproduces the key-aggregation schedule described in
// the reconstruction component: the cosigner's key is first tweaked by a
// tagged hash of the chain code and address index (binding the aggregate to
// this specific vault instance), then MuSig2-combined with the owner's key.
// The untweaked aggregate (pre-tweaked by the script-tree commitment) is the
// internal key.
func aggregateInternalKey(doc *backup.Document) (*btcec.PublicKey, error) {
	var indexBytes [4]byte
	indexBytes[0] = byte(doc.AddressIndex >> 24)
	indexBytes[1] = byte(doc.AddressIndex >> 16)
	indexBytes[2] = byte(doc.AddressIndex >> 8)
	indexBytes[3] = byte(doc.AddressIndex)

	tweakHash := chainhash.TaggedHash(
		cosignerIndexTag, doc.ChainCode[:], indexBytes[:],
	)

	tweakedCosignerKey := input.TweakPubKeyWithTweak(
		doc.CosignerPubkey, tweakHash[:],
	)

	aggKey, _, _, err := musig2.AggregateKeys(
		[]*btcec.PublicKey{doc.OwnerPubkey, tweakedCosignerKey}, true,
	)
	if err != nil {
		return nil, fmt.Errorf("musig2 key aggregation failed: %w", err)
	}

	return aggKey.PreTweakedKey, nil
}
