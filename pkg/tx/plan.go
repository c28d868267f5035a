package tx

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitstark/bitstark-wallet/pkg/types"
)

// Plan errors.
var (
	ErrDustOutput     = errors.New("output value at or below dust threshold")
	ErrInvalidAddress = errors.New("invalid bitcoin address")
	ErrMemoTooLarge   = errors.New("memo too large")
	ErrZeroFeeRate    = errors.New("fee rate must be positive")
	ErrFeeRateTooHigh = errors.New("fee rate too high")
)

// MaxFeeRate bounds the fee rate in sat/vB so fee arithmetic cannot wrap.
const MaxFeeRate uint64 = 1_000_000

// Source supplies the spendable outputs of an address.
type Source interface {
	GetUTXOs(ctx context.Context, address string) ([]UTXO, error)
}

// Output is a value paid to an address.
type Output struct {
	Address string `json:"address"`
	Value   uint64 `json:"value"`
	Change  bool   `json:"change,omitempty"`
}

// Plan is a fully specified, unsigned transaction: inputs, payment
// outputs and fee. The optional memo travels as an extra OP_RETURN
// output that is not listed in Outputs.
type Plan struct {
	Inputs           []UTXO   `json:"inputs"`
	Outputs          []Output `json:"outputs"`
	Fee              uint64   `json:"fee"`
	FeeRate          uint64   `json:"feeRate"`
	TotalInputValue  uint64   `json:"totalInputValue"`
	TotalOutputValue uint64   `json:"totalOutputValue"`
	Memo             string   `json:"memo,omitempty"`
}

// PlanRequest describes a payment to plan.
type PlanRequest struct {
	From    string // funding address, also receives change
	To      string // destination address
	Amount  uint64 // satoshis
	FeeRate uint64 // sat/vB
	Memo    string
}

// BuildPlan selects inputs from the funding address and assembles a plan
// paying req.Amount to req.To. The fee is re-estimated for the number of
// inputs actually selected. Change at or below the dust threshold is
// added to the fee rather than emitted.
func BuildPlan(ctx context.Context, src Source, req PlanRequest) (*Plan, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	utxos, err := src.GetUTXOs(ctx, req.From)
	if err != nil {
		return nil, fmt.Errorf("fetch utxos for %s: %w", req.From, err)
	}
	candidates := spendable(utxos)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFunds, req.From)
	}

	selected, err := selectForPayment(candidates, req)
	if err != nil {
		return nil, err
	}

	n := len(selected)
	total := totalValue(selected)
	plan := &Plan{
		Inputs:          selected,
		Outputs:         []Output{{Address: req.To, Value: req.Amount}},
		FeeRate:         req.FeeRate,
		TotalInputValue: total,
		Memo:            req.Memo,
	}

	feeWithChange := EstimateFee(n, 2, req.Memo, req.FeeRate)
	if total >= req.Amount+feeWithChange && !IsDust(total-req.Amount-feeWithChange) {
		change := total - req.Amount - feeWithChange
		plan.Outputs = append(plan.Outputs, Output{Address: req.From, Value: change, Change: true})
		plan.Fee = feeWithChange
	} else {
		plan.Fee = total - req.Amount
	}

	for _, o := range plan.Outputs {
		plan.TotalOutputValue += o.Value
	}
	if err := plan.Check(); err != nil {
		return nil, err
	}
	return plan, nil
}

// selectForPayment grows the input count estimate until the selection
// for amount+fee is stable. A single-output (no change) fee is tried
// when the two-output fee cannot be covered.
func selectForPayment(candidates []UTXO, req PlanRequest) ([]UTXO, error) {
	for n := 1; n <= len(candidates); {
		selected := SelectInputs(candidates, req.Amount+EstimateFee(n, 2, req.Memo, req.FeeRate))
		if selected == nil {
			selected = SelectInputs(candidates, req.Amount+EstimateFee(n, 1, req.Memo, req.FeeRate))
		}
		if selected == nil {
			break
		}
		if len(selected) <= n {
			return selected, nil
		}
		n = len(selected)
	}

	need := req.Amount + EstimateFee(len(candidates), 1, req.Memo, req.FeeRate)
	return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, totalValue(candidates), need)
}

func checkRequest(req PlanRequest) error {
	if !types.ValidateBitcoinAddress(req.From) {
		return fmt.Errorf("%w: from %q", ErrInvalidAddress, req.From)
	}
	if !types.ValidateBitcoinAddress(req.To) {
		return fmt.Errorf("%w: to %q", ErrInvalidAddress, req.To)
	}
	if IsDust(req.Amount) {
		return fmt.Errorf("%w: amount %d sats", ErrDustOutput, req.Amount)
	}
	if req.Amount > MaxSatoshi {
		return fmt.Errorf("%w: %d sats exceeds supply", ErrInvalidAmount, req.Amount)
	}
	if req.FeeRate == 0 {
		return ErrZeroFeeRate
	}
	if req.FeeRate > MaxFeeRate {
		return fmt.Errorf("%w: %d sat/vB, max %d", ErrFeeRateTooHigh, req.FeeRate, MaxFeeRate)
	}
	if len(req.Memo) > MaxMemoSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrMemoTooLarge, len(req.Memo), MaxMemoSize)
	}
	return nil
}
