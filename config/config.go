// Package config handles bitstark-cli configuration.
//
// Settings come from, in increasing precedence: network defaults, the
// bitstark.conf file in the data directory, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/bitstark/bitstark-wallet/internal/secrets"
	"github.com/bitstark/bitstark-wallet/pkg/types"
)

// ConfigFileName is the name of the config file inside the data directory.
const ConfigFileName = "bitstark.conf"

// Config holds wallet runtime configuration.
type Config struct {
	Network types.Network `conf:"network"`
	DataDir string        `conf:"datadir"`

	// Chain data API
	Chain ChainConfig

	// Secret storage
	Vault VaultConfig

	// Logging
	Log LogConfig
}

// ChainConfig holds chain data API settings.
type ChainConfig struct {
	APIURL        string        `conf:"chain.api"`
	Timeout       time.Duration `conf:"chain.timeout"`
	RatePerSecond int           `conf:"chain.rate"`        // Requests per second, 0 = unpaced
	FeeTarget     string        `conf:"chain.feetarget"`   // fastest, halfhour, hour, economy, minimum
	FeeRate       uint64        `conf:"chain.feerate"`     // Fixed sat/vB, 0 = ask the API
	Unconfirmed   bool          `conf:"chain.unconfirmed"` // Spend mempool outputs
}

// VaultConfig holds the Argon2id parameters used to seal new secrets.
type VaultConfig struct {
	Memory      uint32 `conf:"vault.memory"` // KiB
	Iterations  uint32 `conf:"vault.iterations"`
	Parallelism uint8  `conf:"vault.parallelism"`
}

// Params converts the vault settings to secrets.Params.
func (v VaultConfig) Params() secrets.Params {
	return secrets.Params{
		Memory:      v.Memory,
		Iterations:  v.Iterations,
		Parallelism: v.Parallelism,
	}
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.bitstark
//	macOS:   ~/Library/Application Support/Bitstark
//	Windows: %APPDATA%\Bitstark
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bitstark"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Bitstark")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Bitstark")
		}
		return filepath.Join(home, "AppData", "Roaming", "Bitstark")
	default:
		return filepath.Join(home, ".bitstark")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// VaultDir returns the secrets database directory.
func (c *Config) VaultDir() string {
	return filepath.Join(c.NetworkDataDir(), "vault")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, ConfigFileName)
}
