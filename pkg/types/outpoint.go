package types

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Outpoint references a specific output in a Bitcoin transaction.
type Outpoint struct {
	TxID  chainhash.Hash `json:"txid"`
	Index uint32         `json:"vout"`
}

// ParseOutpoint builds an outpoint from a display-order txid hex string.
func ParseOutpoint(txid string, index uint32) (Outpoint, error) {
	h, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return Outpoint{}, fmt.Errorf("invalid txid %q: %w", txid, err)
	}
	return Outpoint{TxID: *h, Index: index}, nil
}

// IsZero returns true if the outpoint has a zero TxID and zero index.
func (o Outpoint) IsZero() bool {
	return o.TxID == chainhash.Hash{} && o.Index == 0
}

// String returns "txid:index" with the txid in display (reversed) order.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Index)
}
