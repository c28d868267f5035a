package wallet

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/bitstark/bitstark-wallet/pkg/crypto"
	"github.com/tyler-smith/go-bip32"
)

// testSeed returns a deterministic seed for testing.
// Uses the BIP-39 test vector: "abandon" x11 + "about" with passphrase "TREZOR".
func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	return seed
}

func TestNewMasterKey(t *testing.T) {
	seed := testSeed(t)
	master, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}

	priv := master.PrivateKeyBytes()
	if len(priv) != 32 {
		t.Errorf("private key length = %d, want 32", len(priv))
	}

	pub := master.PublicKeyBytes()
	if len(pub) != 33 {
		t.Errorf("public key length = %d, want 33", len(pub))
	}
}

func TestNewMasterKey_InvalidSeedLength(t *testing.T) {
	tests := []struct {
		name string
		seed []byte
	}{
		{"empty", []byte{}},
		{"too short", make([]byte, 32)},
		{"too long", make([]byte, 128)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMasterKey(tt.seed)
			if err == nil {
				t.Error("expected error for invalid seed length")
			}
		})
	}
}

func TestNewMasterKey_Deterministic(t *testing.T) {
	seed := testSeed(t)

	m1, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}
	m2, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}

	if !bytes.Equal(m1.PrivateKeyBytes(), m2.PrivateKeyBytes()) {
		t.Error("same seed should produce same master key")
	}
}

func TestDeriveChild(t *testing.T) {
	seed := testSeed(t)
	master, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}

	child, err := master.DeriveChild(0)
	if err != nil {
		t.Fatalf("DeriveChild(0) error: %v", err)
	}

	if child.PrivateKeyBytes() == nil {
		t.Error("child derived from private key should be private")
	}

	// Different index produces different key
	child2, err := master.DeriveChild(1)
	if err != nil {
		t.Fatalf("DeriveChild(1) error: %v", err)
	}

	if bytes.Equal(child.PrivateKeyBytes(), child2.PrivateKeyBytes()) {
		t.Error("different indices should produce different keys")
	}
}

func TestDeriveChild_Deterministic(t *testing.T) {
	seed := testSeed(t)
	m1, _ := NewMasterKey(seed)
	m2, _ := NewMasterKey(seed)

	c1, _ := m1.DeriveChild(42)
	c2, _ := m2.DeriveChild(42)

	if !bytes.Equal(c1.PrivateKeyBytes(), c2.PrivateKeyBytes()) {
		t.Error("same seed + same index should produce same child")
	}
}

func TestDerivePath(t *testing.T) {
	seed := testSeed(t)
	master, _ := NewMasterKey(seed)

	// Derive step by step
	c1, _ := master.DeriveChild(PurposeBIP44)
	c2, _ := c1.DeriveChild(CoinTypeStarknet)

	// Derive in one call
	combined, err := master.DerivePath(PurposeBIP44, CoinTypeStarknet)
	if err != nil {
		t.Fatalf("DerivePath() error: %v", err)
	}

	if !bytes.Equal(c2.PrivateKeyBytes(), combined.PrivateKeyBytes()) {
		t.Error("DerivePath should equal sequential DeriveChild")
	}
}

func TestDerive_MatchesDerivePath(t *testing.T) {
	seed := testSeed(t)
	master, _ := NewMasterKey(seed)

	want, err := master.DerivePath(StarknetPath...)
	if err != nil {
		t.Fatalf("DerivePath() error: %v", err)
	}
	got, err := Derive(seed, StarknetPath)
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}

	if !bytes.Equal(got.PrivateKeyBytes(), want.PrivateKeyBytes()) {
		t.Error("Derive should equal master.DerivePath")
	}
	if !bytes.Equal(got.key.ChainCode, want.key.ChainCode) {
		t.Error("chain codes should match")
	}
	if len(got.key.ChainCode) != 32 {
		t.Errorf("chain code length = %d, want 32", len(got.key.ChainCode))
	}
}

func TestDerive_OrderIndependent(t *testing.T) {
	seed := testSeed(t)
	btcPath, _ := BitcoinPath("mainnet", 0)

	first, _ := Derive(seed, StarknetPath)
	_, _ = Derive(seed, btcPath)
	_, _ = Derive(seed, DerivationPath{1, 2, 3})
	again, _ := Derive(seed, StarknetPath)

	if !bytes.Equal(first.PrivateKeyBytes(), again.PrivateKeyBytes()) {
		t.Error("prior derivations should not affect the result")
	}
}

func TestDerive_KnownVector(t *testing.T) {
	// BIP-32 test vector 1, chain m/0'.
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		t.Fatalf("bip32.NewMasterKey: %v", err)
	}
	k := &HDKey{key: master}
	child, err := k.DeriveChild(bip32.FirstHardenedChild)
	if err != nil {
		t.Fatalf("DeriveChild: %v", err)
	}
	want := "edb2e14f9ee77d26dd93b4ecede8d16ed408ce149b6cd80b0715a2d911a0afea"
	if got := hex.EncodeToString(child.PrivateKeyBytes()); got != want {
		t.Errorf("m/0' private key = %s, want %s", got, want)
	}
}

func TestSigner(t *testing.T) {
	seed := testSeed(t)
	master, _ := NewMasterKey(seed)
	key, _ := master.DerivePath(PurposeBIP84, bip32.FirstHardenedChild, bip32.FirstHardenedChild, ChangeExternal, 0)

	signer, err := key.Signer()
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}

	hash := crypto.SHA256([]byte("test message"))
	sig, err := signer.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if !crypto.VerifySignature(hash[:], sig, signer.PublicKey()) {
		t.Error("signature from HD-derived key should verify")
	}
}

func TestSigner_PublicKeyOnly(t *testing.T) {
	seed := testSeed(t)
	master, _ := NewMasterKey(seed)
	pub := &HDKey{key: master.key.PublicKey()}

	_, err := pub.Signer()
	if !errors.Is(err, ErrNoKey) {
		t.Errorf("Signer() from public key: expected ErrNoKey, got %v", err)
	}
}

func TestFullWalletFlow(t *testing.T) {
	// Generate mnemonic -> seed -> master -> derive key -> sign -> verify
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}

	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}

	master, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}

	key, err := master.DerivePath(StarknetPath...)
	if err != nil {
		t.Fatalf("DerivePath() error: %v", err)
	}

	signer, err := key.Signer()
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}

	hash := crypto.SHA256([]byte("transaction data"))
	sig, err := signer.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if !crypto.VerifySignature(hash[:], sig, signer.PublicKey()) {
		t.Error("full wallet flow: signature should verify")
	}
}
