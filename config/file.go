package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bitstark/bitstark-wallet/pkg/types"
)

// LoadFile reads a key = value config file. Blank lines and lines starting
// with # are skipped. A missing file yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected key = value", path, lineNum)
		}
		values[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return values, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// ApplyFileConfig applies file values to cfg.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets one setting by its conf key. Unknown keys are
// ignored so older binaries accept newer files.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "network":
		n, err := types.ParseNetwork(value)
		if err != nil {
			return err
		}
		cfg.Network = n
	case "datadir":
		cfg.DataDir = value

	case "chain.api":
		cfg.Chain.APIURL = value
	case "chain.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Chain.Timeout = d
	case "chain.rate":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Chain.RatePerSecond = n
	case "chain.feetarget":
		cfg.Chain.FeeTarget = strings.ToLower(value)
	case "chain.feerate":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Chain.FeeRate = n
	case "chain.unconfirmed":
		cfg.Chain.Unconfirmed = parseBool(value)

	case "vault.memory":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Vault.Memory = uint32(n)
	case "vault.iterations":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Vault.Iterations = uint32(n)
	case "vault.parallelism":
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return err
		}
		cfg.Vault.Parallelism = uint8(n)

	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// WriteDefaultConfig writes a commented default config file.
func WriteDefaultConfig(path string, network types.Network) error {
	d := Default(network)
	content := `# bitstark-cli configuration

# Network: mainnet, testnet or regtest. Flags override this.
# network = ` + string(network) + `

# Data directory (default: ~/.bitstark)
# datadir = ~/.bitstark

# ============================================================================
# Chain data (mempool.space-compatible Esplora API)
# ============================================================================

# API root; the default depends on the network
# chain.api = ` + d.Chain.APIURL + `
chain.timeout = ` + d.Chain.Timeout.String() + `
chain.rate = ` + strconv.Itoa(d.Chain.RatePerSecond) + `

# Recommended fee tier: fastest, halfhour, hour, economy, minimum
chain.feetarget = ` + d.Chain.FeeTarget + `

# Fixed fee rate in sat/vB; overrides the API recommendation when set
# chain.feerate = 10

# Spend unconfirmed outputs
# chain.unconfirmed = false

# ============================================================================
# Vault (Argon2id cost for newly sealed secrets)
# ============================================================================

vault.memory = ` + strconv.FormatUint(uint64(d.Vault.Memory), 10) + `
vault.iterations = ` + strconv.FormatUint(uint64(d.Vault.Iterations), 10) + `
vault.parallelism = ` + strconv.FormatUint(uint64(d.Vault.Parallelism), 10) + `

# ============================================================================
# Logging
# ============================================================================

log.level = ` + d.Log.Level + `
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0o600)
}
