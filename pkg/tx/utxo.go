// Package tx selects coins for and assembles Bitcoin bridge transactions:
// plans with explicit inputs, outputs and fee, and their PSBT form.
package tx

import (
	"github.com/bitstark/bitstark-wallet/pkg/types"
)

// DustThreshold is the smallest output value, in satoshis, that is not
// dust. Outputs must carry strictly more than this.
const DustThreshold uint64 = 1000

// MaxMemoSize is the largest OP_RETURN payload relayed by default policy.
const MaxMemoSize = 80

// UTXO represents an unspent output available to fund a transaction.
type UTXO struct {
	Outpoint types.Outpoint `json:"outpoint"`
	Value    uint64         `json:"value"`
	Address  string         `json:"address"`
	Script   []byte         `json:"scriptPubKey,omitempty"`
}

// IsDust reports whether value is at or below the dust threshold.
func IsDust(value uint64) bool {
	return value <= DustThreshold
}

func totalValue(utxos []UTXO) uint64 {
	var total uint64
	for _, u := range utxos {
		total += u.Value
	}
	return total
}
