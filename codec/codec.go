// Package codec holds the Codec component's PSBT/hex/base64 transport
// encoding helpers. Backup document JSON parsing itself lives in package
// backup; this package is the symmetric wire-format layer the PSBT builder
// and finalizer share.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
)

// DecodePSBT base64-decodes and deserializes a PSBT. Both failure modes are
// reported as plain errors; the facade wraps them as Codec.
func DecodePSBT(b64 string) (*psbt.Packet, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}

	packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
	if err != nil {
		return nil, fmt.Errorf("invalid PSBT: %w", err)
	}

	return packet, nil
}

// EncodePSBT serializes a PSBT and base64-encodes it for transport.
func EncodePSBT(packet *psbt.Packet) (string, error) {
	var buf bytes.Buffer
	if err := packet.Serialize(&buf); err != nil {
		return "", fmt.Errorf("error serializing PSBT: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// EncodeTx serializes a transaction to consensus-encoded hex.
func EncodeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("error serializing transaction: %w", err)
	}

	return hex.EncodeToString(buf.Bytes()), nil
}

// DecodeTx parses a consensus-encoded hex transaction.
func DecodeTx(txHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}

	return tx, nil
}
