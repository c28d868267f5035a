package types

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// WitnessProgramSize is the length of a P2WPKH witness program (HASH160).
const WitnessProgramSize = 20

// Base58 version bytes for legacy addresses.
const (
	mainnetP2PKHVersion = 0x00
	mainnetP2SHVersion  = 0x05
	testnetP2PKHVersion = 0x6f
	testnetP2SHVersion  = 0xc4
)

// EncodeSegwitAddress encodes a witness version and program as a segwit
// address (BIP-173 for version 0, BIP-350 for later versions).
func EncodeSegwitAddress(hrp string, version byte, program []byte) (string, error) {
	if err := checkWitnessProgram(version, program); err != nil {
		return "", err
	}
	conv, err := ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: convert bits: %v", ErrInvalidBech32, err)
	}
	enc := Bech32
	if version > 0 {
		enc = Bech32m
	}
	data := make([]byte, 0, 1+len(conv))
	data = append(data, version)
	data = append(data, conv...)
	return Bech32Encode(hrp, data, enc)
}

// DecodeSegwitAddress decodes a segwit address into its HRP, witness version
// and program bytes. The checksum variant must match the witness version.
func DecodeSegwitAddress(addr string) (hrp string, version byte, program []byte, err error) {
	hrp, data, enc, err := Bech32Decode(addr)
	if err != nil {
		return "", 0, nil, err
	}
	if len(data) < 1 {
		return "", 0, nil, fmt.Errorf("%w: missing witness version", ErrInvalidBech32)
	}
	version = data[0]
	if version > 16 {
		return "", 0, nil, fmt.Errorf("%w: witness version %d", ErrInvalidBech32, version)
	}
	if (version == 0 && enc != Bech32) || (version > 0 && enc != Bech32m) {
		return "", 0, nil, fmt.Errorf("%w: %s checksum for witness version %d", ErrInvalidBech32, enc, version)
	}
	program, err = ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", ErrInvalidBech32, err)
	}
	if err := checkWitnessProgram(version, program); err != nil {
		return "", 0, nil, err
	}
	return hrp, version, program, nil
}

func checkWitnessProgram(version byte, program []byte) error {
	if version > 16 {
		return fmt.Errorf("%w: witness version %d", ErrInvalidBech32, version)
	}
	if len(program) < 2 || len(program) > 40 {
		return fmt.Errorf("%w: witness program length %d", ErrInvalidBech32, len(program))
	}
	if version == 0 && len(program) != 20 && len(program) != 32 {
		return fmt.Errorf("%w: v0 witness program must be 20 or 32 bytes, got %d", ErrInvalidBech32, len(program))
	}
	return nil
}

// ValidateBitcoinAddress reports whether address is structurally valid.
// Segwit addresses ("bc1", "tb1", "bcrt1") are fully decoded including the
// checksum; legacy and P2SH addresses are Base58Check-decoded and their
// version byte matched against the prefix. It never panics.
func ValidateBitcoinAddress(address string) bool {
	lower := strings.ToLower(address)
	switch {
	case strings.HasPrefix(lower, MainnetHRP+"1"),
		strings.HasPrefix(lower, TestnetHRP+"1"),
		strings.HasPrefix(lower, RegtestHRP+"1"):
		hrp, _, _, err := DecodeSegwitAddress(address)
		if err != nil {
			return false
		}
		_, ok := NetworkForHRP(hrp)
		return ok
	case strings.HasPrefix(address, "1"):
		return validateBase58(address, mainnetP2PKHVersion)
	case strings.HasPrefix(address, "3"):
		return validateBase58(address, mainnetP2SHVersion)
	case strings.HasPrefix(address, "m"), strings.HasPrefix(address, "n"):
		return validateBase58(address, testnetP2PKHVersion)
	case strings.HasPrefix(address, "2"):
		return validateBase58(address, testnetP2SHVersion)
	default:
		return false
	}
}

// AddressNetwork returns the network a structurally valid address belongs
// to. Legacy testnet and regtest addresses share version bytes and report
// Testnet.
func AddressNetwork(address string) (Network, bool) {
	if !ValidateBitcoinAddress(address) {
		return "", false
	}
	if hrp, _, _, err := DecodeSegwitAddress(address); err == nil {
		return NetworkForHRP(hrp)
	}
	switch address[0] {
	case '1', '3':
		return Mainnet, true
	default:
		return Testnet, true
	}
}

func validateBase58(address string, version byte) bool {
	if len(address) < 26 || len(address) > 35 {
		return false
	}
	payload, ver, err := base58.CheckDecode(address)
	if err != nil {
		return false
	}
	return ver == version && len(payload) == WitnessProgramSize
}
