package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bitstark/bitstark-wallet/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

// Derivation path constants.
const (
	// PurposeBIP44 is the BIP-44 purpose field (hardened).
	PurposeBIP44 = bip32.FirstHardenedChild + 44

	// PurposeBIP84 is the BIP-84 native segwit purpose field (hardened).
	PurposeBIP84 = bip32.FirstHardenedChild + 84

	// CoinTypeStarknet is the SLIP-44 coin type used for Starknet keys (hardened).
	CoinTypeStarknet = bip32.FirstHardenedChild + 9004

	// ChangeExternal is for receiving addresses.
	ChangeExternal = 0

	// ChangeInternal is for change addresses.
	ChangeInternal = 1
)

// DerivationPath is a sequence of BIP-32 child indices. Hardened indices
// include bip32.FirstHardenedChild.
type DerivationPath []uint32

// StarknetPath is m/44'/9004'/0'/0/0.
var StarknetPath = mustParsePath("m/44'/9004'/0'/0/0")

// BitcoinPath returns m/84'/coin'/0'/0/index, with coin 0 on mainnet and
// 1 on test networks.
func BitcoinPath(net types.Network, index uint32) (DerivationPath, error) {
	if index >= bip32.FirstHardenedChild {
		return nil, fmt.Errorf("%w: address index %d out of range", ErrInvalidPath, index)
	}
	return DerivationPath{
		PurposeBIP84,
		bip32.FirstHardenedChild + net.CoinType(),
		bip32.FirstHardenedChild,
		ChangeExternal,
		index,
	}, nil
}

// ParsePath parses a path such as "m/84'/0'/0'/0/0". Hardened segments
// may be marked with ', h or H.
func ParsePath(s string) (DerivationPath, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) == 0 || (parts[0] != "m" && parts[0] != "M") {
		return nil, fmt.Errorf("%w: %q must start at m", ErrInvalidPath, s)
	}

	path := make(DerivationPath, 0, len(parts)-1)
	for _, seg := range parts[1:] {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		}
		hardened := false
		if last := seg[len(seg)-1]; last == '\'' || last == 'h' || last == 'H' {
			hardened = true
			seg = seg[:len(seg)-1]
		}
		n, err := strconv.ParseUint(seg, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad segment %q in %q", ErrInvalidPath, seg, s)
		}
		idx := uint32(n)
		if idx >= bip32.FirstHardenedChild {
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidPath, idx)
		}
		if hardened {
			idx += bip32.FirstHardenedChild
		}
		path = append(path, idx)
	}
	return path, nil
}

// String renders the path in canonical form with ' for hardened segments.
func (p DerivationPath) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, idx := range p {
		sb.WriteByte('/')
		if idx >= bip32.FirstHardenedChild {
			sb.WriteString(strconv.FormatUint(uint64(idx-bip32.FirstHardenedChild), 10))
			sb.WriteByte('\'')
		} else {
			sb.WriteString(strconv.FormatUint(uint64(idx), 10))
		}
	}
	return sb.String()
}

func mustParsePath(s string) DerivationPath {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}
