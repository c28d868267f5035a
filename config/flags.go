package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bitstark/bitstark-wallet/pkg/types"
)

// Flags holds parsed global command-line flags.
type Flags struct {
	Help    bool
	Version bool

	// Core
	Network string
	Testnet bool
	Regtest bool
	DataDir string
	Config  string

	// Chain data
	ChainAPI     string
	ChainTimeout time.Duration
	FeeRate      uint64
	FeeTarget    string
	Unconfirmed  bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Args holds the command and its arguments.
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetUnconfirmed bool
	SetLogJSON     bool
}

// ParseFlags parses global flags from args (without the program name).
// Parsing stops at the first non-flag argument, which starts the command.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("bitstark-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	fs.StringVar(&f.Network, "network", "", "Network (mainnet, testnet, regtest)")
	fs.BoolVar(&f.Testnet, "testnet", false, "Shorthand for --network=testnet")
	fs.BoolVar(&f.Regtest, "regtest", false, "Shorthand for --network=regtest")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	fs.StringVar(&f.ChainAPI, "chain-api", "", "Esplora API root URL")
	fs.DurationVar(&f.ChainTimeout, "chain-timeout", 0, "Chain API request timeout")
	fs.Uint64Var(&f.FeeRate, "fee-rate", 0, "Fixed fee rate in sat/vB")
	fs.StringVar(&f.FeeTarget, "fee-target", "", "Recommended fee tier")
	fs.BoolVar(&f.Unconfirmed, "unconfirmed", false, "Spend unconfirmed outputs")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	switch {
	case f.Testnet && f.Regtest:
		return nil, fmt.Errorf("--testnet and --regtest are mutually exclusive")
	case f.Testnet:
		f.Network = string(types.Testnet)
	case f.Regtest:
		f.Network = string(types.Regtest)
	}
	f.SetUnconfirmed = isFlagSet(fs, "unconfirmed")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags applies command-line flags to cfg.
func ApplyFlags(cfg *Config, f *Flags) error {
	if f.Network != "" {
		n, err := types.ParseNetwork(f.Network)
		if err != nil {
			return err
		}
		cfg.Network = n
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	if f.ChainAPI != "" {
		cfg.Chain.APIURL = f.ChainAPI
	}
	if f.ChainTimeout != 0 {
		cfg.Chain.Timeout = f.ChainTimeout
	}
	if f.FeeRate != 0 {
		cfg.Chain.FeeRate = f.FeeRate
	}
	if f.FeeTarget != "" {
		cfg.Chain.FeeTarget = f.FeeTarget
	}
	if f.SetUnconfirmed {
		cfg.Chain.Unconfirmed = f.Unconfirmed
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
	return nil
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintOptions writes the global option reference.
func PrintOptions(w io.Writer) {
	fmt.Fprint(w, `Global Options:
  --network       Network: mainnet (default), testnet or regtest
  --testnet       Shorthand for --network=testnet
  --regtest       Shorthand for --network=regtest
  --datadir       Data directory (default: ~/.bitstark)
  --config, -c    Config file path (default: <datadir>/bitstark.conf)

Chain Options:
  --chain-api     Esplora API root (default depends on network)
  --chain-timeout Request timeout, e.g. 10s
  --fee-rate      Fixed fee rate in sat/vB (skips the API recommendation)
  --fee-target    fastest, halfhour (default), hour, economy, minimum
  --unconfirmed   Spend unconfirmed outputs

Logging Options:
  --log-level     debug, info, warn (default), error
  --log-file      Also write JSON logs to this file
  --log-json      Output logs as JSON
`)
}

// Load parses args and builds the configuration with the following
// precedence:
//  1. Network defaults
//  2. Config file
//  3. Command-line flags
//
// The data directory and a default config file are created on first use.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	dataDir := flags.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	configPath := flags.Config
	if configPath == "" {
		configPath = (&Config{DataDir: dataDir}).ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	// The network picks the defaults, so settle it before anything else.
	netName := flags.Network
	if netName == "" {
		netName = fileValues["network"]
	}
	network, err := types.ParseNetwork(netName)
	if err != nil {
		return nil, nil, err
	}

	cfg := Default(network)
	cfg.DataDir = dataDir
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}
	if err := ApplyFlags(cfg, flags); err != nil {
		return nil, nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}
	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Safe to call on every start.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.NetworkDataDir(), cfg.VaultDir(), cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	path := cfg.ConfigFile()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefaultConfig(path, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
