package secrets

import (
	"bytes"
	"errors"
	"testing"
)

// fastParams returns low-cost Argon2 params for fast tests.
func fastParams() Params {
	return Params{Memory: 64, Iterations: 1, Parallelism: 1}
}

func TestSealOpen_Roundtrip(t *testing.T) {
	large := make([]byte, 10000)
	for i := range large {
		large[i] = byte(i % 256)
	}
	tests := []struct {
		name string
		data []byte
	}{
		{"mnemonic", []byte("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")},
		{"empty", []byte{}},
		{"large", large},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(tt.data, []byte("pass"), []byte("slot"), fastParams())
			if err != nil {
				t.Fatalf("Seal() error: %v", err)
			}
			got, err := Open(sealed, []byte("pass"), []byte("slot"))
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("Open() = %x, want %x", got, tt.data)
			}
		})
	}
}

func TestOpen_Rejects(t *testing.T) {
	sealed, err := Seal([]byte("secret"), []byte("correct"), []byte("slot"), fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	corrupted := append([]byte(nil), sealed...)
	corrupted[len(corrupted)-1] ^= 0xFF

	tests := []struct {
		name     string
		sealed   []byte
		password string
		ad       string
		want     error
	}{
		{"wrong password", sealed, "wrong", "slot", ErrWrongPassword},
		{"moved to another slot", sealed, "correct", "other", ErrWrongPassword},
		{"corrupted tag", corrupted, "correct", "slot", ErrWrongPassword},
		{"truncated", []byte("too short"), "correct", "slot", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.sealed, []byte(tt.password), []byte(tt.ad))
			if err == nil {
				t.Fatal("Open() should fail")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Open() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSeal_FreshSaltAndNonce(t *testing.T) {
	a, _ := Seal([]byte("same"), []byte("pass"), nil, fastParams())
	b, _ := Seal([]byte("same"), []byte("pass"), nil, fastParams())
	if bytes.Equal(a, b) {
		t.Error("sealing the same data twice produced identical output")
	}
	if want := headerSize + 24 + len("same") + 16; len(a) != want {
		t.Errorf("sealed length = %d, want %d", len(a), want)
	}
	if a[0] != sealVersion {
		t.Errorf("version byte = %d, want %d", a[0], sealVersion)
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("DefaultParams().Validate() = %v", err)
	}
	bad := []Params{
		{Memory: 64, Iterations: 0, Parallelism: 1},
		{Memory: 64, Iterations: 1, Parallelism: 0},
		{Memory: 4, Iterations: 1, Parallelism: 1},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", p)
		}
		if _, err := Seal([]byte("x"), []byte("p"), nil, p); err == nil {
			t.Errorf("Seal with %+v should fail", p)
		}
	}
}
