package claimtx

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/heirvault/core/backup"
	"github.com/heirvault/core/internal/testvault"
	"github.com/heirvault/core/vault"
)

const testXpub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhe" +
	"PY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"

func buildVault(t *testing.T, seed byte, numHeirs int) (*testvault.Fixture, *vault.Vault) {
	t.Helper()

	fx, err := testvault.Build(testvault.Opts{
		Params: &chaincfg.RegressionNetParams, Seed: seed, NumHeirs: numHeirs,
	})
	require.NoError(t, err)

	doc, err := backup.Parse([]byte(fx.BackupJSON("regtest", testXpub)))
	require.NoError(t, err)

	v, err := vault.Reconstruct(doc, &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	return fx, v
}

// destAddr returns a taproot address distinct from the vault itself, built
// from a fixture seeded differently, to stand in for the heir's destination
// wallet.
func destAddr(t *testing.T) btcutil.Address {
	t.Helper()

	fx, err := testvault.Build(testvault.Opts{
		Params: &chaincfg.RegressionNetParams, Seed: 0xee,
	})
	require.NoError(t, err)

	return fx.Address
}

func oneUTXO(v *vault.Vault, value int64) []UTXO {
	return []UTXO{{
		Outpoint: wire.OutPoint{Hash: [32]byte{0x42}, Index: 0},
		PrevOut:  &wire.TxOut{Value: value, PkScript: v.ScriptPubKey},
	}}
}

func TestBuildSingleInputSingleOutput(t *testing.T) {
	_, v := buildVault(t, 0x41, 1)
	dest := destAddr(t)

	result, err := Build(v, 0, oneUTXO(v, 50_000), dest, 300)
	require.NoError(t, err)

	require.Equal(t, int64(50_000), result.TotalIn)
	require.Equal(t, int64(300), result.Fee)
	require.Equal(t, int64(49_700), result.TotalOut)
	require.Len(t, result.Packet.UnsignedTx.TxOut, 1)
	require.Len(t, result.Packet.Inputs, 1)

	in := result.Packet.Inputs[0]
	t.Logf("built claim input: %v", spew.Sdump(in))
	require.Equal(t, txscript.SigHashDefault, in.SighashType)
	require.NotEmpty(t, in.TaprootInternalKey)
	require.NotEmpty(t, in.TaprootMerkleRoot)
	require.Len(t, in.TaprootLeafScript, 1)
	require.Equal(t, v.Leaves[0].Script, in.TaprootLeafScript[0].Script)

	require.Equal(t, uint16(26280), v.Leaves[0].Timelock)
	require.Equal(t, uint32(26280), result.Packet.UnsignedTx.TxIn[0].Sequence)
}

func TestBuildSumsInputsMinusFeeEqualsOutput(t *testing.T) {
	_, v := buildVault(t, 0x42, 1)
	dest := destAddr(t)

	utxos := []UTXO{
		{
			Outpoint: wire.OutPoint{Hash: [32]byte{0x01}, Index: 0},
			PrevOut:  &wire.TxOut{Value: 30_000, PkScript: v.ScriptPubKey},
		},
		{
			Outpoint: wire.OutPoint{Hash: [32]byte{0x02}, Index: 1},
			PrevOut:  &wire.TxOut{Value: 20_000, PkScript: v.ScriptPubKey},
		},
	}

	result, err := Build(v, 0, utxos, dest, 500)
	require.NoError(t, err)
	require.Equal(t, int64(50_000), result.TotalIn)
	require.Equal(t, result.TotalIn-result.Fee, result.TotalOut)
	require.Len(t, result.Packet.UnsignedTx.TxIn, 2)
	require.Len(t, result.Packet.UnsignedTx.TxOut, 1)
	for _, in := range result.Packet.UnsignedTx.TxIn {
		require.Equal(t, uint32(26280), in.Sequence)
	}
}

func TestBuildRejectsHeirIndexOutOfRange(t *testing.T) {
	_, v := buildVault(t, 0x43, 1)
	dest := destAddr(t)

	_, err := Build(v, 5, oneUTXO(v, 50_000), dest, 300)
	require.Error(t, err)
}

func TestBuildRejectsEmptyInputs(t *testing.T) {
	_, v := buildVault(t, 0x44, 1)
	dest := destAddr(t)

	_, err := Build(v, 0, nil, dest, 300)
	require.Error(t, err)
}

func TestBuildRejectsInsufficientFunds(t *testing.T) {
	_, v := buildVault(t, 0x45, 1)
	dest := destAddr(t)

	_, err := Build(v, 0, oneUTXO(v, 100), dest, 300)
	require.Error(t, err)
}
