package feeest

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/heirvault/core/internal/testvault"
)

func TestEstimateSingleInput(t *testing.T) {
	fx, err := testvault.Build(testvault.Opts{
		Params: &chaincfg.RegressionNetParams, Seed: 0x31,
	})
	require.NoError(t, err)

	inputs := []RecoveryInput{
		{
			LeafScript:   fx.Heirs[0].Script,
			ControlBlock: fx.ControlBlocks[0],
		},
	}

	vbytes, fee, err := Estimate(inputs, fx.Address, 10)
	require.NoError(t, err)
	require.Greater(t, vbytes, int64(0))
	require.Greater(t, fee, int64(0))

	// Fee should scale (roughly) linearly with the fee rate.
	_, fee2, err := Estimate(inputs, fx.Address, 20)
	require.NoError(t, err)
	require.Greater(t, fee2, fee)
}

func TestEstimateMoreInputsCostMore(t *testing.T) {
	fx, err := testvault.Build(testvault.Opts{
		Params: &chaincfg.RegressionNetParams, Seed: 0x32, NumHeirs: 2,
	})
	require.NoError(t, err)

	one := []RecoveryInput{
		{LeafScript: fx.Heirs[0].Script, ControlBlock: fx.ControlBlocks[0]},
	}
	two := []RecoveryInput{
		{LeafScript: fx.Heirs[0].Script, ControlBlock: fx.ControlBlocks[0]},
		{LeafScript: fx.Heirs[1].Script, ControlBlock: fx.ControlBlocks[1]},
	}

	_, feeOne, err := Estimate(one, fx.Address, 10)
	require.NoError(t, err)
	_, feeTwo, err := Estimate(two, fx.Address, 10)
	require.NoError(t, err)

	require.Greater(t, feeTwo, feeOne)
}

func TestCheckCeilingAcceptsMax(t *testing.T) {
	require.NoError(t, CheckCeiling(MaxSatPerVByte))
}

func TestCheckCeilingRejectsAboveMax(t *testing.T) {
	require.Error(t, CheckCeiling(MaxSatPerVByte+1))
}

func TestCheckCeilingAcceptsTypicalRate(t *testing.T) {
	require.NoError(t, CheckCeiling(10))
}
