package wallet

import (
	"strings"
	"testing"
)

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}

	words := strings.Fields(mnemonic)
	if len(words) != MnemonicWords {
		t.Errorf("word count = %d, want %d", len(words), MnemonicWords)
	}
}

func TestGenerateMnemonic_Unique(t *testing.T) {
	m1, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	m2, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}

	if m1 == m2 {
		t.Error("two generated mnemonics should not be identical")
	}
}

func TestGenerateMnemonic_Valid(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}

	if !ValidateMnemonic(mnemonic) {
		t.Error("generated mnemonic should validate")
	}
	if !MnemonicChecksumValid(mnemonic) {
		t.Error("generated mnemonic should carry a valid checksum")
	}
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{
			name:     "12 wordlist words without checksum",
			mnemonic: "abandon ability able about above absent absorb abstract absurd abuse access accident",
			valid:    true,
		},
		{
			name:     "valid 12-word BIP-39",
			mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
			valid:    true,
		},
		{
			name:     "mixed case and extra spaces",
			mnemonic: "  Abandon ABANDON abandon abandon abandon abandon abandon abandon abandon abandon abandon   about ",
			valid:    true,
		},
		{
			name:     "wrong count",
			mnemonic: "abandon ability able",
			valid:    false,
		},
		{
			name:     "invalid word",
			mnemonic: "abandon xyzzy able about above absent absorb abstract absurd abuse access accident",
			valid:    false,
		},
		{
			name:     "24 words",
			mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art",
			valid:    false,
		},
		{
			name:     "empty string",
			mnemonic: "",
			valid:    false,
		},
		{
			name:     "single word",
			mnemonic: "abandon",
			valid:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateMnemonic(tt.mnemonic); got != tt.valid {
				t.Errorf("ValidateMnemonic() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestMnemonicChecksumValid(t *testing.T) {
	if !MnemonicChecksumValid("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about") {
		t.Error("BIP-39 test vector should have a valid checksum")
	}
	if MnemonicChecksumValid("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon") {
		t.Error("12x abandon has a bad checksum")
	}
}

func TestNormalizeMnemonic(t *testing.T) {
	got := NormalizeMnemonic("  Abandon\tABOUT \n zoo ")
	if got != "abandon about zoo" {
		t.Errorf("NormalizeMnemonic() = %q", got)
	}
}
