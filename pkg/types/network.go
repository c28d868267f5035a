package types

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network identifies the Bitcoin network addresses and transactions target.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Regtest Network = "regtest"
)

// Address HRP (human-readable part) constants for segwit addresses.
const (
	MainnetHRP = "bc"
	TestnetHRP = "tb"
	RegtestHRP = "bcrt"
)

// ParseNetwork converts a network name to a Network.
func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case Mainnet, Testnet, Regtest:
		return Network(s), nil
	case "":
		return Mainnet, nil
	default:
		return "", fmt.Errorf("unknown network %q", s)
	}
}

// HRP returns the segwit human-readable part for the network.
func (n Network) HRP() string {
	switch n {
	case Testnet:
		return TestnetHRP
	case Regtest:
		return RegtestHRP
	default:
		return MainnetHRP
	}
}

// CoinType returns the BIP-44 coin type: 0 on mainnet, 1 on every test network.
func (n Network) CoinType() uint32 {
	if n == Mainnet || n == "" {
		return 0
	}
	return 1
}

// Params returns the btcd chain parameters for the network.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case Testnet:
		return &chaincfg.TestNet3Params
	case Regtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// NetworkForHRP maps a segwit HRP back to its network.
func NetworkForHRP(hrp string) (Network, bool) {
	switch hrp {
	case MainnetHRP:
		return Mainnet, true
	case TestnetHRP:
		return Testnet, true
	case RegtestHRP:
		return Regtest, true
	default:
		return "", false
	}
}
