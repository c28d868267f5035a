package config

import (
	"fmt"
	"net/url"

	"github.com/bitstark/bitstark-wallet/internal/chaindata"
	"github.com/bitstark/bitstark-wallet/internal/log"
	"github.com/bitstark/bitstark-wallet/pkg/types"
)

// Validate checks the configuration for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := types.ParseNetwork(string(cfg.Network)); err != nil || cfg.Network == "" {
		return fmt.Errorf("network must be %q, %q or %q", types.Mainnet, types.Testnet, types.Regtest)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	u, err := url.Parse(cfg.Chain.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("chain.api must be an http(s) URL, got %q", cfg.Chain.APIURL)
	}
	if cfg.Chain.Timeout <= 0 {
		return fmt.Errorf("chain.timeout must be positive")
	}
	if cfg.Chain.RatePerSecond < 0 {
		return fmt.Errorf("chain.rate must not be negative")
	}
	if _, ok := chaindata.ParseFeeTarget(cfg.Chain.FeeTarget); !ok {
		return fmt.Errorf("chain.feetarget %q is not a known fee tier", cfg.Chain.FeeTarget)
	}

	if err := cfg.Vault.Params().Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if cfg.Log.Level != "" && !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}
