package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/text/unicode/norm"
)

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

// SeedFromMnemonic derives a 512-bit seed from a mnemonic and optional
// passphrase using PBKDF2-HMAC-SHA512 (2048 rounds, salt "mnemonic"+passphrase)
// as specified in BIP-39. Both inputs are NFKD-normalized first.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, fmt.Errorf("%w: %w", ErrDerivation, ErrInvalidMnemonic)
	}
	seed := bip39.NewSeed(NormalizeMnemonic(mnemonic), norm.NFKD.String(passphrase))
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes", ErrDerivation, len(seed))
	}
	return seed, nil
}
