package config

import (
	"time"

	"github.com/bitstark/bitstark-wallet/internal/secrets"
	"github.com/bitstark/bitstark-wallet/pkg/types"
)

// Default chain API endpoints (mempool.space-compatible Esplora).
const (
	MainnetAPI = "https://mempool.space/api"
	TestnetAPI = "https://mempool.space/testnet/api"
	RegtestAPI = "http://127.0.0.1:3002"
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	p := secrets.DefaultParams()
	return &Config{
		Network: types.Mainnet,
		DataDir: DefaultDataDir(),
		Chain: ChainConfig{
			APIURL:        MainnetAPI,
			Timeout:       10 * time.Second,
			RatePerSecond: 5,
			FeeTarget:     "halfhour",
		},
		Vault: VaultConfig{
			Memory:      p.Memory,
			Iterations:  p.Iterations,
			Parallelism: p.Parallelism,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = types.Testnet
	cfg.Chain.APIURL = TestnetAPI
	return cfg
}

// DefaultRegtest returns the default configuration for a local regtest
// Esplora.
func DefaultRegtest() *Config {
	cfg := DefaultMainnet()
	cfg.Network = types.Regtest
	cfg.Chain.APIURL = RegtestAPI
	cfg.Chain.RatePerSecond = 0
	cfg.Chain.Unconfirmed = true
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network types.Network) *Config {
	switch network {
	case types.Testnet:
		return DefaultTestnet()
	case types.Regtest:
		return DefaultRegtest()
	default:
		return DefaultMainnet()
	}
}
