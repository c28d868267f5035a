package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitstark/bitstark-wallet/pkg/types"
)

func TestDefaults(t *testing.T) {
	tests := []struct {
		network types.Network
		api     string
	}{
		{types.Mainnet, MainnetAPI},
		{types.Testnet, TestnetAPI},
		{types.Regtest, RegtestAPI},
	}
	for _, tt := range tests {
		cfg := Default(tt.network)
		if cfg.Network != tt.network || cfg.Chain.APIURL != tt.api {
			t.Errorf("Default(%s) = %s / %s", tt.network, cfg.Network, cfg.Chain.APIURL)
		}
		if err := Validate(cfg); err != nil {
			t.Errorf("Validate(Default(%s)) = %v", tt.network, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `# comment
network = testnet
chain.api = "http://localhost:3002"
chain.timeout = 3s
chain.feerate = 12
vault.iterations = 2
log.json = yes
unknown.key = ignored
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if values["chain.api"] != "http://localhost:3002" {
		t.Errorf("quotes not stripped: %q", values["chain.api"])
	}

	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if cfg.Network != types.Testnet {
		t.Errorf("Network = %s", cfg.Network)
	}
	if cfg.Chain.Timeout != 3*time.Second || cfg.Chain.FeeRate != 12 {
		t.Errorf("Chain = %+v", cfg.Chain)
	}
	if cfg.Vault.Iterations != 2 || !cfg.Log.JSON {
		t.Errorf("Vault/Log = %+v / %+v", cfg.Vault, cfg.Log)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil || len(values) != 0 {
		t.Fatalf("LoadFile(missing) = %v, %v", values, err)
	}

	path := filepath.Join(t.TempDir(), "bad.conf")
	os.WriteFile(path, []byte("no equals sign\n"), 0o600)
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile accepted a line without '='")
	}

	for key, value := range map[string]string{
		"network":           "signet",
		"chain.timeout":     "soon",
		"chain.feerate":     "-1",
		"vault.parallelism": "300",
	} {
		if err := ApplyFileConfig(DefaultMainnet(), map[string]string{key: value}); err == nil {
			t.Errorf("ApplyFileConfig(%s = %s) should fail", key, value)
		}
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"--testnet", "--fee-rate=7", "--log-json", "bridge", "plan", "--amount", "0.01"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if f.Network != "testnet" || f.FeeRate != 7 || !f.SetLogJSON {
		t.Errorf("flags = %+v", f)
	}
	if len(f.Args) != 4 || f.Args[0] != "bridge" {
		t.Errorf("Args = %v", f.Args)
	}

	if _, err := ParseFlags([]string{"--testnet", "--regtest"}); err == nil {
		t.Error("--testnet --regtest should fail")
	}
	if _, err := ParseFlags([]string{"--no-such-flag"}); err == nil {
		t.Error("unknown flag should fail")
	}
	if f, err := ParseFlags([]string{"-h"}); err != nil || !f.Help {
		t.Errorf("ParseFlags(-h) = %+v, %v", f, err)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("network = regtest\nchain.feerate = 3\nlog.level = info\n"), 0o600)

	cfg, _, err := Load([]string{"--datadir", dir, "--fee-rate", "9", "account", "show"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network != types.Regtest {
		t.Errorf("Network = %s, want regtest from file", cfg.Network)
	}
	if cfg.Chain.APIURL != RegtestAPI {
		t.Errorf("APIURL = %s, want regtest default", cfg.Chain.APIURL)
	}
	if cfg.Chain.FeeRate != 9 {
		t.Errorf("FeeRate = %d, want flag value 9", cfg.Chain.FeeRate)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %s, want file value", cfg.Log.Level)
	}
	if _, err := os.Stat(cfg.VaultDir()); err != nil {
		t.Errorf("vault dir not created: %v", err)
	}
}

func TestLoad_WritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, _, err := Load([]string{"--datadir", dir, "--testnet"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	values, err := LoadFile(cfg.ConfigFile())
	if err != nil {
		t.Fatalf("LoadFile(default): %v", err)
	}
	if _, ok := values["network"]; ok {
		t.Error("default config pins the network")
	}

	// The written file must load cleanly on the next run.
	again, _, err := Load([]string{"--datadir", dir})
	if err != nil {
		t.Fatalf("Load(second run): %v", err)
	}
	if again.Network != types.Mainnet {
		t.Errorf("second run Network = %s, want mainnet", again.Network)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"network", func(c *Config) { c.Network = "signet" }},
		{"datadir", func(c *Config) { c.DataDir = "" }},
		{"api", func(c *Config) { c.Chain.APIURL = "mempool.space" }},
		{"timeout", func(c *Config) { c.Chain.Timeout = 0 }},
		{"rate", func(c *Config) { c.Chain.RatePerSecond = -1 }},
		{"feetarget", func(c *Config) { c.Chain.FeeTarget = "instant" }},
		{"vault", func(c *Config) { c.Vault.Iterations = 0 }},
		{"log", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		cfg := DefaultMainnet()
		tt.mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("Validate accepted bad %s", tt.name)
		}
	}
}
