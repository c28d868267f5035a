package tx

import (
	"errors"
	"sort"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoFunds           = errors.New("no spendable outputs available")
)

// SelectInputs greedily picks the largest UTXOs until their sum reaches
// target. It returns nil when the whole set cannot cover target.
// Zero-value UTXOs are ignored.
func SelectInputs(utxos []UTXO, target uint64) []UTXO {
	candidates := spendable(utxos)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Value > candidates[j].Value
	})

	var selected []UTXO
	var total uint64
	for _, u := range candidates {
		selected = append(selected, u)
		total += u.Value
		if total >= target {
			return selected
		}
	}
	return nil
}

func spendable(utxos []UTXO) []UTXO {
	out := make([]UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Value > 0 {
			out = append(out, u)
		}
	}
	return out
}
