package tx

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// SatoshiPerBitcoin is the number of satoshis in one BTC.
const SatoshiPerBitcoin = 100_000_000

// MaxSatoshi is the total supply cap, 21 million BTC.
const MaxSatoshi uint64 = 21_000_000 * SatoshiPerBitcoin

// ErrInvalidAmount is returned for unparseable or out-of-range amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseBTC converts a decimal BTC string such as "0.001" to satoshis.
// More than eight fractional digits, negative values and values above
// the supply cap are rejected.
func ParseBTC(s string) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, s)
	}
	sats := d.Shift(8)
	if !sats.Equal(sats.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than 8 decimal places", ErrInvalidAmount, s)
	}
	if sats.GreaterThan(decimal.NewFromInt(int64(MaxSatoshi))) {
		return 0, fmt.Errorf("%w: %s exceeds supply", ErrInvalidAmount, s)
	}
	return uint64(sats.IntPart()), nil
}

// FormatBTC renders satoshis as a BTC amount with eight decimals.
func FormatBTC(sats uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(sats), -8).StringFixed(8)
}
