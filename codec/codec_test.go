package codec

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func sampleTx() *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0},
		Sequence:         1,
	})
	tx.AddTxOut(&wire.TxOut{Value: 49_700, PkScript: []byte{0x00, 0x14}})
	return tx
}

func TestEncodeDecodeTxRoundTrip(t *testing.T) {
	tx := sampleTx()

	txHex, err := EncodeTx(tx)
	require.NoError(t, err)
	require.NotEmpty(t, txHex)

	decoded, err := DecodeTx(txHex)
	require.NoError(t, err)
	require.Equal(t, tx.TxID(), decoded.TxID())
}

func TestDecodeTxRejectsInvalidHex(t *testing.T) {
	_, err := DecodeTx("not-hex")
	require.Error(t, err)
}

func TestDecodeTxRejectsTruncatedBytes(t *testing.T) {
	_, err := DecodeTx("0200")
	require.Error(t, err)
}

func TestEncodeDecodePSBTRoundTrip(t *testing.T) {
	tx := sampleTx()
	packet, err := psbt.NewFromUnsignedTx(tx)
	require.NoError(t, err)

	b64, err := EncodePSBT(packet)
	require.NoError(t, err)
	require.NotEmpty(t, b64)

	decoded, err := DecodePSBT(b64)
	require.NoError(t, err)
	require.Equal(t, tx.TxID(), decoded.UnsignedTx.TxID())
}

func TestDecodePSBTRejectsInvalidBase64(t *testing.T) {
	_, err := DecodePSBT("not-base64!!")
	require.Error(t, err)
}

func TestDecodePSBTRejectsInvalidPSBTBytes(t *testing.T) {
	_, err := DecodePSBT("cHNidA==")
	require.Error(t, err)
}
