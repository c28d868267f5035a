package wallet

import (
	"errors"
	"fmt"
)

// Wallet errors. Validation failures wrap ErrInvalidInput so callers can
// test for the whole family with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidPath     = fmt.Errorf("%w: derivation path", ErrInvalidInput)
	ErrInvalidKey      = fmt.Errorf("%w: private key", ErrInvalidInput)
	ErrInvalidMnemonic = fmt.Errorf("%w: mnemonic", ErrInvalidInput)
	ErrDerivation      = errors.New("key derivation failed")
	ErrNoKey           = errors.New("no private key available")
)
