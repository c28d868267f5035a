package tx

import (
	"testing"

	"github.com/bitstark/bitstark-wallet/pkg/types"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func makeUTXOs(values ...uint64) []UTXO {
	utxos := make([]UTXO, len(values))
	for i, v := range values {
		utxos[i] = UTXO{
			Outpoint: types.Outpoint{TxID: chainhash.Hash{byte(i + 1)}, Index: 0},
			Value:    v,
		}
	}
	return utxos
}

func TestSelectInputs(t *testing.T) {
	tests := []struct {
		name      string
		values    []uint64
		target    uint64
		wantCount int
		wantTotal uint64
	}{
		{"single largest covers", []uint64{1000, 9000, 3000}, 5000, 1, 9000},
		{"two largest", []uint64{1000, 3000, 5000, 2000}, 7000, 2, 8000},
		{"all needed", []uint64{1000, 2000, 3000}, 6000, 3, 6000},
		{"insufficient", []uint64{1000, 2000}, 5000, 0, 0},
		{"empty", nil, 1, 0, 0},
		{"zero values ignored", []uint64{0, 0, 4000}, 4000, 1, 4000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectInputs(makeUTXOs(tt.values...), tt.target)
			if len(got) != tt.wantCount {
				t.Fatalf("selected %d inputs, want %d", len(got), tt.wantCount)
			}
			if total := totalValue(got); total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestSelectInputs_Sufficiency(t *testing.T) {
	pools := [][]uint64{
		{5},
		{1, 1, 1, 1},
		{100000, 20000, 3000, 400, 50},
		{7, 70, 700, 7000, 70000},
	}
	for _, values := range pools {
		utxos := makeUTXOs(values...)
		sum := totalValue(utxos)
		for _, target := range []uint64{1, sum / 3, sum / 2, sum - 1, sum, sum + 1} {
			if target == 0 {
				continue
			}
			got := SelectInputs(utxos, target)
			if sum >= target {
				if len(got) == 0 || totalValue(got) < target {
					t.Errorf("pool %v target %d: selection %v does not cover", values, target, got)
				}
			} else if len(got) != 0 {
				t.Errorf("pool %v target %d: expected empty selection", values, target)
			}
		}
	}
}

func TestSelectInputs_DoesNotReorderCaller(t *testing.T) {
	utxos := makeUTXOs(1000, 3000, 2000)
	_ = SelectInputs(utxos, 4000)
	if utxos[0].Value != 1000 || utxos[1].Value != 3000 || utxos[2].Value != 2000 {
		t.Error("SelectInputs should not mutate its argument")
	}
}
