package chaindata

import (
	"context"
	"sync"

	"github.com/bitstark/bitstark-wallet/pkg/tx"
)

// Static is an in-memory Provider for offline planning and tests.
type Static struct {
	mu      sync.RWMutex
	utxos   map[string][]tx.UTXO
	feeRate uint64
	err     error
}

var _ Provider = (*Static)(nil)

// NewStatic returns a provider that reports feeRate and no UTXOs.
func NewStatic(feeRate uint64) *Static {
	return &Static{utxos: make(map[string][]tx.UTXO), feeRate: feeRate}
}

// AddUTXO makes u spendable by its address.
func (s *Static) AddUTXO(u tx.UTXO) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.utxos[u.Address] = append(s.utxos[u.Address], u)
}

// Fail makes every subsequent call return err. A nil err restores normal
// operation.
func (s *Static) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// GetUTXOs returns a copy of the outputs added for address.
func (s *Static) GetUTXOs(_ context.Context, address string) ([]tx.UTXO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]tx.UTXO(nil), s.utxos[address]...), nil
}

// GetFeeRate returns the configured fee rate.
func (s *Static) GetFeeRate(context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.feeRate, nil
}

// GetBalance sums the outputs added for address; all are confirmed.
func (s *Static) GetBalance(_ context.Context, address string) (Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return Balance{}, s.err
	}
	var b Balance
	for _, u := range s.utxos[address] {
		b.Confirmed += u.Value
	}
	return b, nil
}
