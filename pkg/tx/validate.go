package tx

import (
	"errors"
	"fmt"
	"math"
)

// Validation errors.
var (
	ErrNoInputs       = errors.New("plan has no inputs")
	ErrNoOutputs      = errors.New("plan has no outputs")
	ErrDuplicateInput = errors.New("duplicate input")
	ErrValueOverflow  = errors.New("values overflow")
	ErrUnbalanced     = errors.New("inputs do not cover outputs and fee")
	ErrTotalsMismatch = errors.New("declared totals do not match inputs and outputs")
)

// ValidationResult reports whether a plan is well formed. Err is nil
// when Valid is true.
type ValidationResult struct {
	Valid bool
	Err   error
}

// Validate checks p without returning an error, for callers that render
// the outcome inline.
func Validate(p *Plan) ValidationResult {
	if err := p.Check(); err != nil {
		return ValidationResult{Err: err}
	}
	return ValidationResult{Valid: true}
}

// Check verifies plan structure: at least one input and output, no
// duplicate inputs, every output above the dust threshold, declared totals
// consistent, and TotalInputValue >= TotalOutputValue + Fee.
func (p *Plan) Check() error {
	if p == nil || len(p.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(p.Outputs) == 0 {
		return ErrNoOutputs
	}
	if len(p.Memo) > MaxMemoSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrMemoTooLarge, len(p.Memo), MaxMemoSize)
	}

	seen := make(map[string]bool, len(p.Inputs))
	var in uint64
	for i, u := range p.Inputs {
		key := u.Outpoint.String()
		if seen[key] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[key] = true
		if in > math.MaxUint64-u.Value {
			return fmt.Errorf("input %d: %w", i, ErrValueOverflow)
		}
		in += u.Value
	}

	var out uint64
	for i, o := range p.Outputs {
		if IsDust(o.Value) {
			return fmt.Errorf("output %d: %w: %d sats", i, ErrDustOutput, o.Value)
		}
		if out > math.MaxUint64-o.Value {
			return fmt.Errorf("output %d: %w", i, ErrValueOverflow)
		}
		out += o.Value
	}

	if in != p.TotalInputValue || out != p.TotalOutputValue {
		return fmt.Errorf("%w: inputs %d/%d, outputs %d/%d",
			ErrTotalsMismatch, in, p.TotalInputValue, out, p.TotalOutputValue)
	}
	if out > math.MaxUint64-p.Fee || in < out+p.Fee {
		return fmt.Errorf("%w: inputs %d, outputs %d, fee %d", ErrUnbalanced, in, out, p.Fee)
	}
	return nil
}
