package crypto

import (
	"encoding/hex"
	"fmt"
	"math/big"

	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/ecdsa"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
)

// StarkKeySize is the byte length of a STARK-curve scalar or coordinate.
const StarkKeySize = 32

// StarkKey is a private scalar on the STARK curve.
type StarkKey struct {
	scalar *big.Int
	priv   ecdsa.PrivateKey
}

// StarkPublicKey is the public point of a StarkKey.
type StarkPublicKey struct {
	pub ecdsa.PublicKey
}

// StarkSignature is an ECDSA signature on the STARK curve.
type StarkSignature struct {
	R [StarkKeySize]byte
	S [StarkKeySize]byte
}

// StarkCurveOrder returns the order of the STARK curve generator.
func StarkCurveOrder() *big.Int {
	return fr.Modulus()
}

// StarkKeyFromBytes builds a key from a 32-byte big-endian scalar.
// Zero and values at or above the curve order are rejected.
func StarkKeyFromBytes(b []byte) (*StarkKey, error) {
	if len(b) != StarkKeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidKey, StarkKeySize, len(b))
	}
	return newStarkKey(new(big.Int).SetBytes(b))
}

// StarkKeyFromHex parses a 64-digit hex scalar, with or without 0x prefix.
func StarkKeyFromHex(s string) (*StarkKey, error) {
	s = trimHexPrefix(s)
	if len(s) != 2*StarkKeySize {
		return nil, fmt.Errorf("%w: want %d hex digits, got %d", ErrInvalidKey, 2*StarkKeySize, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return StarkKeyFromBytes(b)
}

// GrindStarkKey maps arbitrary key material (typically a BIP-32 private key)
// into [1, n) without modulo bias. Candidates are SHA-256(seed || counter)
// with both integers in minimal big-endian form; values in the biased tail
// of the 256-bit range are rejected.
func GrindStarkKey(seed []byte) (*StarkKey, error) {
	n := StarkCurveOrder()
	space := new(big.Int).Lsh(big.NewInt(1), 256)
	limit := new(big.Int).Sub(space, new(big.Int).Mod(space, n))

	seedBytes := minimalBytes(new(big.Int).SetBytes(seed))
	for i := int64(0); i < 1<<16; i++ {
		buf := append(append([]byte{}, seedBytes...), minimalBytes(big.NewInt(i))...)
		digest := SHA256(buf)
		candidate := new(big.Int).SetBytes(digest[:])
		if candidate.Cmp(limit) >= 0 {
			continue
		}
		candidate.Mod(candidate, n)
		if candidate.Sign() == 0 {
			continue
		}
		return newStarkKey(candidate)
	}
	return nil, fmt.Errorf("%w: grinding did not converge", ErrInvalidKey)
}

func minimalBytes(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0}
	}
	return v.Bytes()
}

func newStarkKey(s *big.Int) (*StarkKey, error) {
	if s.Sign() <= 0 || s.Cmp(StarkCurveOrder()) >= 0 {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidKey)
	}

	_, g := starkcurve.Generators()
	k := &StarkKey{scalar: new(big.Int).Set(s)}
	k.priv.PublicKey.A.ScalarMultiplication(&g, s)

	// ecdsa.PrivateKey only exposes its scalar through the binary form:
	// public key bytes followed by the big-endian scalar.
	pubBytes := k.priv.PublicKey.Bytes()
	buf := make([]byte, len(pubBytes)+StarkKeySize)
	copy(buf, pubBytes)
	s.FillBytes(buf[len(pubBytes):])
	if _, err := k.priv.SetBytes(buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return k, nil
}

// Bytes returns the 32-byte big-endian scalar.
func (k *StarkKey) Bytes() []byte {
	out := make([]byte, StarkKeySize)
	k.scalar.FillBytes(out)
	return out
}

// Hex returns the scalar as 0x followed by 64 lower-case hex digits.
func (k *StarkKey) Hex() string {
	return "0x" + hex.EncodeToString(k.Bytes())
}

// Public returns the public point.
func (k *StarkKey) Public() *StarkPublicKey {
	return &StarkPublicKey{pub: k.priv.PublicKey}
}

// Sign signs a 32-byte message hash.
func (k *StarkKey) Sign(hash []byte) (StarkSignature, error) {
	var sig StarkSignature
	if len(hash) != 32 {
		return sig, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	raw, err := k.priv.Sign(hash, nil)
	if err != nil {
		return sig, fmt.Errorf("stark sign: %w", err)
	}
	if len(raw) != 2*StarkKeySize {
		return sig, fmt.Errorf("stark sign: unexpected signature length %d", len(raw))
	}
	copy(sig.R[:], raw[:StarkKeySize])
	copy(sig.S[:], raw[StarkKeySize:])
	return sig, nil
}

// Zero clears the scalar. The key must not be used afterwards.
func (k *StarkKey) Zero() {
	k.scalar.SetInt64(0)
	k.priv = ecdsa.PrivateKey{}
}

// StarkKeyBytes returns the x-coordinate of the public point, which
// Starknet tooling calls the stark key.
func (p *StarkPublicKey) StarkKeyBytes() [StarkKeySize]byte {
	return p.pub.A.X.Bytes()
}

// Hex returns the stark key as 0x followed by 64 lower-case hex digits.
func (p *StarkPublicKey) Hex() string {
	b := p.StarkKeyBytes()
	return "0x" + hex.EncodeToString(b[:])
}

// Verify checks sig over a 32-byte message hash. Returns false on any error.
func (p *StarkPublicKey) Verify(hash []byte, sig StarkSignature) bool {
	if len(hash) != 32 {
		return false
	}
	raw := make([]byte, 0, 2*StarkKeySize)
	raw = append(raw, sig.R[:]...)
	raw = append(raw, sig.S[:]...)
	ok, err := p.pub.Verify(raw, hash, nil)
	return err == nil && ok
}

// Hex renders the signature as 0x followed by r and s, each 64 hex digits.
func (s StarkSignature) Hex() string {
	return "0x" + hex.EncodeToString(s.R[:]) + hex.EncodeToString(s.S[:])
}

// ParseStarkSignature parses the form produced by Hex.
func ParseStarkSignature(s string) (StarkSignature, error) {
	var sig StarkSignature
	s = trimHexPrefix(s)
	if len(s) != 4*StarkKeySize {
		return sig, fmt.Errorf("signature must be %d hex digits, got %d", 4*StarkKeySize, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return sig, fmt.Errorf("decode signature: %w", err)
	}
	copy(sig.R[:], b[:StarkKeySize])
	copy(sig.S[:], b[StarkKeySize:])
	return sig, nil
}

// trimHexPrefix drops a single leading 0x or 0X.
func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
