// Package chaindata fetches UTXOs, balances and fee rates from a Bitcoin
// chain indexer.
package chaindata

import (
	"context"
	"errors"

	"github.com/bitstark/bitstark-wallet/pkg/tx"
)

var (
	// ErrUnavailable wraps transport failures, non-success responses and an
	// open circuit breaker.
	ErrUnavailable = errors.New("chain data unavailable")
	// ErrBadResponse is returned when the indexer answers with malformed data.
	ErrBadResponse = errors.New("malformed chain data response")
)

// Provider supplies the chain state needed to plan a transaction.
type Provider interface {
	tx.Source
	// GetFeeRate returns a fee rate in sat/vB.
	GetFeeRate(ctx context.Context) (uint64, error)
}

// Balance is an address balance split by confirmation state.
type Balance struct {
	Confirmed   uint64 `json:"confirmed"`
	Unconfirmed int64  `json:"unconfirmed"`
}

// Total returns the confirmed balance adjusted by pending mempool activity.
func (b Balance) Total() uint64 {
	if b.Unconfirmed < 0 && uint64(-b.Unconfirmed) > b.Confirmed {
		return 0
	}
	return uint64(int64(b.Confirmed) + b.Unconfirmed)
}

// FeeTarget selects which recommended fee tier GetFeeRate returns.
type FeeTarget string

const (
	FeeFastest  FeeTarget = "fastest"
	FeeHalfHour FeeTarget = "halfhour"
	FeeHour     FeeTarget = "hour"
	FeeEconomy  FeeTarget = "economy"
	FeeMinimum  FeeTarget = "minimum"
)

// ParseFeeTarget converts a tier name to a FeeTarget.
func ParseFeeTarget(s string) (FeeTarget, bool) {
	switch t := FeeTarget(s); t {
	case FeeFastest, FeeHalfHour, FeeHour, FeeEconomy, FeeMinimum:
		return t, true
	case "":
		return FeeHalfHour, true
	}
	return "", false
}

// BalanceSource is implemented by providers that can report balances.
type BalanceSource interface {
	GetBalance(ctx context.Context, address string) (Balance, error)
}
