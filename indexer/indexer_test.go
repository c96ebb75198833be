package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errBroadcastRejected = errors.New("broadcast rejected by mock")

func TestMockHeightPassthrough(t *testing.T) {
	m := &Mock{TipHeight: 918_000}
	height, err := m.Height(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(918_000), height)
}

func TestMockListUTXOsPassthrough(t *testing.T) {
	utxos := []UTXO{{Txid: "42", Vout: 0, ValueSats: 50_000}}
	m := &Mock{UTXOsByAddress: map[string][]UTXO{"bcrt1qexample": utxos}}

	got, err := m.ListUTXOs(context.Background(), "bcrt1qexample")
	require.NoError(t, err)
	require.Equal(t, utxos, got)

	got, err = m.ListUTXOs(context.Background(), "bcrt1qunknown")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMockBroadcastIsDeterministic(t *testing.T) {
	m := &Mock{}

	txid1, err := m.Broadcast(context.Background(), "0200000001aabbcc")
	require.NoError(t, err)
	require.NotEmpty(t, txid1)

	txid2, err := m.Broadcast(context.Background(), "0200000001aabbcc")
	require.NoError(t, err)
	require.Equal(t, txid1, txid2)

	require.Len(t, m.Broadcasts, 2)
}

func TestMockBroadcastHandlesShortHex(t *testing.T) {
	m := &Mock{}
	_, err := m.Broadcast(context.Background(), "ab")
	require.NoError(t, err)
}

func TestMockBroadcastSurfacesConfiguredError(t *testing.T) {
	m := &Mock{BroadcastErr: errBroadcastRejected}
	_, err := m.Broadcast(context.Background(), "0200")
	require.ErrorIs(t, err, errBroadcastRejected)
}
