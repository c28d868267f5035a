// Package wallet implements the key-derivation core: BIP-39 mnemonics,
// BIP-32 key trees, the Starknet identity and BIP-84 Bitcoin addresses.
package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/text/unicode/norm"
)

const (
	// MnemonicWords is the fixed phrase length.
	MnemonicWords = 12

	// MnemonicEntropyBits is the entropy size for 12-word mnemonics.
	MnemonicEntropyBits = 128
)

var englishWords = func() map[string]struct{} {
	m := make(map[string]struct{}, len(wordlists.English))
	for _, w := range wordlists.English {
		m[w] = struct{}{}
	}
	return m
}()

// GenerateMnemonic creates a new 12-word BIP-39 mnemonic from
// crypto/rand entropy. The result carries a valid BIP-39 checksum.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizeMnemonic lower-cases the phrase and collapses whitespace
// to single spaces.
func NormalizeMnemonic(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFKD.String(phrase))), " ")
}

// ValidateMnemonic reports whether phrase has exactly 12 words and every
// word is in the English wordlist, ignoring case. The BIP-39 checksum is
// not required; see MnemonicChecksumValid.
func ValidateMnemonic(phrase string) bool {
	words := strings.Fields(strings.ToLower(phrase))
	if len(words) != MnemonicWords {
		return false
	}
	for _, w := range words {
		if _, ok := englishWords[w]; !ok {
			return false
		}
	}
	return true
}

// MnemonicChecksumValid reports whether phrase also satisfies the BIP-39
// checksum. Other wallets may refuse phrases that fail it.
func MnemonicChecksumValid(phrase string) bool {
	return ValidateMnemonic(phrase) && bip39.IsMnemonicValid(NormalizeMnemonic(phrase))
}
