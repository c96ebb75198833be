package vault

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/heirvault/core/backup"
	"github.com/heirvault/core/internal/testvault"
)

const testXpub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhe" +
	"PY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"

func buildDoc(t *testing.T, fx *testvault.Fixture) *backup.Document {
	t.Helper()

	doc, err := backup.Parse([]byte(fx.BackupJSON("regtest", testXpub)))
	require.NoError(t, err)

	return doc
}

func TestReconstructMatchesFixtureAddress(t *testing.T) {
	fx, err := testvault.Build(testvault.Opts{
		Params: &chaincfg.RegressionNetParams, Seed: 0x21,
	})
	require.NoError(t, err)

	doc := buildDoc(t, fx)

	v, err := Reconstruct(doc, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	require.Equal(t, fx.Address.EncodeAddress(), v.Address.EncodeAddress())
	require.Len(t, v.Leaves, 1)
	require.Len(t, v.ControlBlocks, 1)
	require.Equal(t, fx.Heirs[0].Script, v.Leaves[0].Script)
}

func TestReconstructMultipleHeirs(t *testing.T) {
	fx, err := testvault.Build(testvault.Opts{
		Params: &chaincfg.RegressionNetParams, Seed: 0x22, NumHeirs: 3,
	})
	require.NoError(t, err)

	doc := buildDoc(t, fx)

	v, err := Reconstruct(doc, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	require.Len(t, v.Leaves, 3)
	require.Len(t, v.ControlBlocks, 3)
	require.Equal(t, fx.Address.EncodeAddress(), v.Address.EncodeAddress())
}

func TestReconstructDetectsTamperedVaultAddress(t *testing.T) {
	fx, err := testvault.Build(testvault.Opts{
		Params: &chaincfg.RegressionNetParams, Seed: 0x23,
	})
	require.NoError(t, err)

	raw := fx.BackupJSON("regtest", testXpub)
	raw = strings.Replace(
		raw, fx.Address.EncodeAddress(),
		"bcrt1qsflxxxxxxxxxxxxxxxxxxxxxxxxxxxxxu5udxn", 1,
	)

	doc, err := backup.Parse([]byte(raw))
	require.NoError(t, err)

	_, err = Reconstruct(doc, &chaincfg.RegressionNetParams)
	require.Error(t, err)
}

func TestReconstructIsDeterministic(t *testing.T) {
	fx, err := testvault.Build(testvault.Opts{
		Params: &chaincfg.RegressionNetParams, Seed: 0x24,
	})
	require.NoError(t, err)

	doc := buildDoc(t, fx)

	v1, err := Reconstruct(doc, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	v2, err := Reconstruct(doc, &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	require.Equal(t, v1.OutputKey, v2.OutputKey)
	require.Equal(t, v1.InternalKey, v2.InternalKey)
	require.Equal(t, v1.ScriptPubKey, v2.ScriptPubKey)
}
