package types

import (
	"errors"
	"fmt"
	"strings"
)

// Bech32 charset used for encoding (BIP-173).
const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// Checksum constants for the two bech32 variants.
const (
	bech32Const  uint32 = 1          // BIP-173, witness version 0.
	bech32mConst uint32 = 0x2bc830a3 // BIP-350, witness version 1..16.
)

// Length limits from BIP-173.
const (
	bech32MaxLength   = 90
	bech32ChecksumLen = 6
)

// Encoding identifies the checksum variant of a bech32 string.
type Encoding int

const (
	Bech32 Encoding = iota + 1
	Bech32m
)

func (e Encoding) String() string {
	switch e {
	case Bech32:
		return "bech32"
	case Bech32m:
		return "bech32m"
	default:
		return "unknown"
	}
}

func (e Encoding) constant() uint32 {
	if e == Bech32m {
		return bech32mConst
	}
	return bech32Const
}

// ErrInvalidBech32 is returned for any malformed bech32 input.
var ErrInvalidBech32 = errors.New("invalid bech32")

// bech32CharsetRev maps bech32 characters to their 5-bit values. -1 = invalid.
var bech32CharsetRev [128]int8

func init() {
	for i := range bech32CharsetRev {
		bech32CharsetRev[i] = -1
	}
	for i, c := range bech32Charset {
		bech32CharsetRev[c] = int8(i)
	}
}

// Bech32Encode encodes a human-readable part and 5-bit data groups into a
// lower-case bech32 string with the checksum variant enc.
func Bech32Encode(hrp string, data []byte, enc Encoding) (string, error) {
	if len(hrp) == 0 {
		return "", fmt.Errorf("%w: empty HRP", ErrInvalidBech32)
	}
	for _, c := range hrp {
		if c < 33 || c > 126 {
			return "", fmt.Errorf("%w: invalid HRP character %q", ErrInvalidBech32, c)
		}
	}
	for _, b := range data {
		if b > 31 {
			return "", fmt.Errorf("%w: data value %d exceeds 5 bits", ErrInvalidBech32, b)
		}
	}
	hrp = strings.ToLower(hrp)
	if len(hrp)+1+len(data)+bech32ChecksumLen > bech32MaxLength {
		return "", fmt.Errorf("%w: encoded length exceeds %d", ErrInvalidBech32, bech32MaxLength)
	}

	chk := bech32CreateChecksum(hrp, data, enc.constant())

	// Build result: hrp + "1" + data + checksum
	var sb strings.Builder
	sb.Grow(len(hrp) + 1 + len(data) + bech32ChecksumLen)
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, b := range data {
		sb.WriteByte(bech32Charset[b])
	}
	for _, b := range chk {
		sb.WriteByte(bech32Charset[b])
	}
	return sb.String(), nil
}

// Bech32Decode decodes a bech32 or bech32m string into its lower-case
// human-readable part and 5-bit data groups (checksum stripped).
func Bech32Decode(s string) (string, []byte, Encoding, error) {
	if len(s) == 0 {
		return "", nil, 0, fmt.Errorf("%w: empty string", ErrInvalidBech32)
	}
	if len(s) > bech32MaxLength {
		return "", nil, 0, fmt.Errorf("%w: length %d exceeds %d", ErrInvalidBech32, len(s), bech32MaxLength)
	}

	// Reject mixed case.
	hasUpper := false
	hasLower := false
	for _, c := range s {
		if c < 33 || c > 126 {
			return "", nil, 0, fmt.Errorf("%w: invalid character %q", ErrInvalidBech32, c)
		}
		if c >= 'A' && c <= 'Z' {
			hasUpper = true
		}
		if c >= 'a' && c <= 'z' {
			hasLower = true
		}
	}
	if hasUpper && hasLower {
		return "", nil, 0, fmt.Errorf("%w: mixed case", ErrInvalidBech32)
	}

	// Work in lowercase.
	s = strings.ToLower(s)

	// Find the last '1' separator.
	sepIdx := strings.LastIndex(s, "1")
	if sepIdx < 1 {
		return "", nil, 0, fmt.Errorf("%w: missing separator", ErrInvalidBech32)
	}
	if sepIdx+bech32ChecksumLen+1 > len(s) {
		return "", nil, 0, fmt.Errorf("%w: too short", ErrInvalidBech32)
	}

	hrp := s[:sepIdx]
	dataStr := s[sepIdx+1:]

	data5 := make([]byte, len(dataStr))
	for i, c := range dataStr {
		val := bech32CharsetRev[c]
		if val < 0 {
			return "", nil, 0, fmt.Errorf("%w: invalid character %q", ErrInvalidBech32, c)
		}
		data5[i] = byte(val)
	}

	var enc Encoding
	switch bech32Polymod(append(bech32HRPExpand(hrp), data5...)) {
	case bech32Const:
		enc = Bech32
	case bech32mConst:
		enc = Bech32m
	default:
		return "", nil, 0, fmt.Errorf("%w: invalid checksum", ErrInvalidBech32)
	}

	return hrp, data5[:len(data5)-bech32ChecksumLen], enc, nil
}

// bech32Polymod computes the bech32 polynomial modulus.
func bech32Polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

// bech32HRPExpand expands the HRP for checksum computation.
func bech32HRPExpand(hrp string) []byte {
	ret := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		ret = append(ret, byte(c>>5))
	}
	ret = append(ret, 0)
	for _, c := range hrp {
		ret = append(ret, byte(c&31))
	}
	return ret
}

// bech32CreateChecksum creates a 6-group checksum for the given HRP and data.
func bech32CreateChecksum(hrp string, data []byte, constant uint32) []byte {
	values := append(bech32HRPExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	polymod := bech32Polymod(values) ^ constant
	ret := make([]byte, bech32ChecksumLen)
	for i := 0; i < bech32ChecksumLen; i++ {
		ret[i] = byte((polymod >> uint(5*(5-i))) & 31)
	}
	return ret
}

// ConvertBits regroups data between bit widths.
// fromBits/toBits are the source/destination group sizes (e.g. 8 and 5).
// pad controls whether incomplete groups are zero-padded.
func ConvertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	maxv := uint32((1 << toBits) - 1)
	var ret []byte

	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, fmt.Errorf("invalid data byte: %d", b)
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			ret = append(ret, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			ret = append(ret, byte((acc<<(toBits-bits))&maxv))
		}
	} else {
		if bits >= fromBits {
			return nil, fmt.Errorf("non-zero padding")
		}
		if (acc<<(toBits-bits))&maxv != 0 {
			return nil, fmt.Errorf("non-zero padding")
		}
	}

	return ret, nil
}
