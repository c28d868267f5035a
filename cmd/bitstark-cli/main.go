// bitstark-cli manages a BTC→Starknet bridge wallet: account setup,
// Starknet payload signing and Bitcoin bridge transaction planning.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/bitstark/bitstark-wallet/config"
	"github.com/bitstark/bitstark-wallet/internal/account"
	"github.com/bitstark/bitstark-wallet/internal/chaindata"
	"github.com/bitstark/bitstark-wallet/internal/core"
	"github.com/bitstark/bitstark-wallet/internal/log"
	"github.com/bitstark/bitstark-wallet/internal/secrets"
	"github.com/bitstark/bitstark-wallet/internal/storage"
	"github.com/bitstark/bitstark-wallet/pkg/crypto"
	"github.com/bitstark/bitstark-wallet/pkg/tx"
	"github.com/bitstark/bitstark-wallet/pkg/types"
)

const version = "0.1.0"

// passwordEnv supplies the vault password non-interactively.
const passwordEnv = "BITSTARK_PASSWORD"

// vaultPrefix namespaces vault entries inside the Badger database.
var vaultPrefix = []byte("secrets/")

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}
	if flags.Version {
		fmt.Printf("bitstark-cli version %s\n", version)
		return
	}
	if flags.Help || len(flags.Args) == 0 {
		usage()
		if flags.Help {
			return
		}
		os.Exit(1)
	}

	closer, err := log.Init(log.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, File: cfg.Log.File})
	if err != nil {
		fatal("init logging: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := flags.Args[0], flags.Args[1:]
	switch cmd {
	case "account":
		cmdAccount(ctx, cfg, args)
	case "sign":
		cmdSign(cfg, args)
	case "verify":
		cmdVerify(cfg, args)
	case "bridge":
		cmdBridge(ctx, cfg, args)
	case "address":
		cmdAddress(cfg, args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: bitstark-cli [global options] <command> [flags]

Commands:
  account create [--passphrase]   Generate a new account (prints the mnemonic once)
  account import [--secret <s>]   Import from a 12-word mnemonic or a raw Starknet key
  account show                    Show the Starknet identity and Bitcoin address
  account address                 Show the Bitcoin receive address
  account balance                 Show the Bitcoin balance
  account clear [--incomplete] [--yes]
                                  Remove the stored account (logout)

  sign <json> | --file <path>     Sign a JSON payload with the Starknet key
  verify --sig <hex> <json> | --file <path>
                                  Check a payload signature against the account

  bridge plan --to <bridge> --amount <BTC> [--from <addr>] [--memo <m>]
              [--utxo txid:vout:sats ...]
                                  Plan a bridge transaction (offline with --utxo)
  bridge psbt --to <bridge> --amount <BTC> [--from <addr>] [--memo <m>]
                                  Plan and print an unsigned PSBT
  bridge sign --psbt <base64>     Sign a PSBT with the account's Bitcoin key

  address validate <addr>         Check a Bitcoin address

The vault password is read from the terminal, or from $`+passwordEnv+`.

`)
	config.PrintOptions(os.Stderr)
}

// ── Service wiring ──────────────────────────────────────────────────────

type session struct {
	svc   *core.Service
	db    *storage.BadgerDB
	vault *secrets.Vault
}

func (s *session) Close() {
	s.vault.Lock()
	if err := s.db.Close(); err != nil {
		log.Store.Error().Err(err).Msg("Close vault database")
	}
}

// openSession opens the vault and builds the core service. confirm asks
// for the password twice, for commands that create secrets.
func openSession(cfg *config.Config, confirm bool) *session {
	return openSessionWith(cfg, confirm, nil)
}

// openSessionWith is openSession with a fixed chain provider. A nil chain
// uses the configured Esplora API.
func openSessionWith(cfg *config.Config, confirm bool, chain chaindata.Provider) *session {
	password, err := vaultPassword(confirm)
	if err != nil {
		fatal("read password: %v", err)
	}
	defer wipe(password)

	db, err := storage.NewBadger(cfg.VaultDir())
	if err != nil {
		fatal("%v", err)
	}
	vault := secrets.NewVault(storage.NewPrefixDB(db, vaultPrefix), password, cfg.Vault.Params())
	store := account.NewStore(vault, log.Store)

	if chain == nil {
		chain = newEsplora(cfg)
	}

	svc, err := core.New(core.Config{
		Network: cfg.Network,
		Store:   store,
		Chain:   chain,
		FeeRate: cfg.Chain.FeeRate,
		Logger:  log.Core,
	})
	if err != nil {
		db.Close()
		fatal("%v", err)
	}

	// Drop leftovers of an interrupted setup before doing anything else.
	if cleared, err := svc.ClearIncomplete(); err != nil {
		db.Close()
		fatal("%v", describe(err))
	} else if cleared {
		fmt.Fprintln(os.Stderr, "Warning: removed an incomplete account from a previous setup")
	}
	return &session{svc: svc, db: db, vault: vault}
}

func newEsplora(cfg *config.Config) chaindata.Provider {
	esplora, err := chaindata.NewEsplora(cfg.Chain.APIURL, chaindata.Options{
		Network:            cfg.Network,
		Timeout:            cfg.Chain.Timeout,
		RatePerSecond:      cfg.Chain.RatePerSecond,
		FeeTarget:          chaindata.FeeTarget(cfg.Chain.FeeTarget),
		IncludeUnconfirmed: cfg.Chain.Unconfirmed,
		Logger:             log.Chain,
	})
	if err != nil {
		log.Chain.Warn().Err(err).Msg("Chain API disabled")
		return nil
	}
	return esplora
}

// ── account ─────────────────────────────────────────────────────────────

func cmdAccount(ctx context.Context, cfg *config.Config, args []string) {
	const usageLine = "Usage: bitstark-cli account <create|import|show|address|balance|clear> [flags]"
	if len(args) < 1 {
		fatal("%s", usageLine)
	}
	switch args[0] {
	case "create":
		cmdAccountCreate(cfg, args[1:])
	case "import":
		cmdAccountImport(cfg, args[1:])
	case "show":
		cmdAccountShow(cfg)
	case "address":
		cmdAccountAddress(cfg)
	case "balance":
		cmdAccountBalance(ctx, cfg)
	case "clear":
		cmdAccountClear(cfg, args[1:])
	default:
		fatal("Unknown account command: %s\n%s", args[0], usageLine)
	}
}

func cmdAccountCreate(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("account create", flag.ExitOnError)
	withPassphrase := fs.Bool("passphrase", false, "Prompt for an optional BIP-39 passphrase")
	fs.Parse(args)

	var passphrase string
	if *withPassphrase {
		p, err := readSecret("BIP-39 passphrase: ")
		if err != nil {
			fatal("read passphrase: %v", err)
		}
		passphrase = string(p)
	}

	s := openSession(cfg, true)
	defer s.Close()

	created, err := s.svc.CreateAccount(passphrase)
	if err != nil {
		fatal("create account: %v", describe(err))
	}

	fmt.Println("Mnemonic (write this down, it is shown only once!):")
	fmt.Printf("  %s\n\n", created.Mnemonic)
	if passphrase != "" {
		fmt.Println("A passphrase was used; it is required together with the mnemonic to recover.")
	}
	fmt.Printf("Starknet address: %s\n", created.StarknetAddress)
	fmt.Printf("Bitcoin address:  %s\n", created.BitcoinAddress)
}

func cmdAccountImport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("account import", flag.ExitOnError)
	secret := fs.String("secret", "", "Mnemonic or raw Starknet private key (prompted when omitted)")
	fs.Parse(args)

	if *secret == "" {
		b, err := readSecret("Mnemonic or private key: ")
		if err != nil {
			fatal("read secret: %v", err)
		}
		*secret = string(b)
	}

	s := openSession(cfg, true)
	defer s.Close()

	imported, err := s.svc.ImportAccount(*secret)
	if err != nil {
		fatal("import account: %v", describe(err))
	}
	fmt.Printf("Starknet address: %s\n", imported.StarknetAddress)
	if imported.BitcoinAddress != "" {
		fmt.Printf("Bitcoin address:  %s\n", imported.BitcoinAddress)
	} else {
		fmt.Println("Bitcoin address:  (none, imported from a raw key)")
	}
}

func cmdAccountShow(cfg *config.Config) {
	s := openSession(cfg, false)
	defer s.Close()

	id, err := s.svc.Account()
	if err != nil {
		fatal("%v", describe(err))
	}
	out := struct {
		Starknet any    `json:"starknet"`
		Bitcoin  string `json:"bitcoinAddress,omitempty"`
		Network  string `json:"network"`
	}{Starknet: id, Network: string(cfg.Network)}
	if addr, err := s.svc.GetBitcoinAddress(); err == nil {
		out.Bitcoin = addr
	} else if !errors.Is(err, core.ErrNoMnemonic) {
		fatal("%v", describe(err))
	}
	printJSON(out)
}

func cmdAccountAddress(cfg *config.Config) {
	s := openSession(cfg, false)
	defer s.Close()

	addr, err := s.svc.GetBitcoinAddress()
	if err != nil {
		fatal("%v", describe(err))
	}
	fmt.Println(addr)
}

func cmdAccountBalance(ctx context.Context, cfg *config.Config) {
	s := openSession(cfg, false)
	defer s.Close()

	addr, b, err := s.svc.Balance(ctx)
	if err != nil {
		fatal("%v", describe(err))
	}
	fmt.Printf("Address:     %s\n", addr)
	fmt.Printf("Confirmed:   %s BTC\n", tx.FormatBTC(b.Confirmed))
	if b.Unconfirmed != 0 {
		sign, abs := "+", uint64(b.Unconfirmed)
		if b.Unconfirmed < 0 {
			sign, abs = "-", uint64(-b.Unconfirmed)
		}
		fmt.Printf("Unconfirmed: %s%s BTC\n", sign, tx.FormatBTC(abs))
	}
}

func cmdAccountClear(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("account clear", flag.ExitOnError)
	incomplete := fs.Bool("incomplete", false, "Only remove a partially stored account")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	s := openSession(cfg, false)
	defer s.Close()

	if *incomplete {
		// openSession already ran the cleanup.
		fmt.Println("No incomplete account left.")
		return
	}
	if !*yes && !confirmPrompt("Remove the stored account? Make sure the mnemonic is backed up. [y/N] ") {
		fmt.Println("Aborted.")
		return
	}
	if err := s.svc.Logout(); err != nil {
		fatal("%v", describe(err))
	}
	fmt.Println("Account removed.")
}

// ── sign ────────────────────────────────────────────────────────────────

func cmdSign(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	file := fs.String("file", "", "Read the JSON payload from a file ('-' for stdin)")
	fs.Parse(args)

	raw := readPayload(fs, *file, "Usage: bitstark-cli sign <json> | --file <path>")

	s := openSession(cfg, false)
	defer s.Close()

	sig, err := s.svc.SignPayload(raw)
	if err != nil {
		fatal("sign: %v", describe(err))
	}
	fmt.Println(sig.Hex())
}

func cmdVerify(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	file := fs.String("file", "", "Read the JSON payload from a file ('-' for stdin)")
	sigHex := fs.String("sig", "", "Signature as printed by 'sign'")
	fs.Parse(args)

	const usageLine = "Usage: bitstark-cli verify --sig <hex> <json> | --file <path>"
	if *sigHex == "" {
		fatal("%s", usageLine)
	}
	sig, err := crypto.ParseStarkSignature(*sigHex)
	if err != nil {
		fatal("invalid signature: %v", err)
	}
	raw := readPayload(fs, *file, usageLine)

	s := openSession(cfg, false)
	defer s.Close()

	ok, err := s.svc.VerifyPayload(raw, sig)
	if err != nil {
		fatal("verify: %v", describe(err))
	}
	if !ok {
		fmt.Println("invalid")
		os.Exit(1)
	}
	fmt.Println("valid")
}

// readPayload returns the JSON payload named by --file or the single
// positional argument.
func readPayload(fs *flag.FlagSet, file, usageLine string) json.RawMessage {
	var raw []byte
	var err error
	switch {
	case file == "-":
		raw, err = io.ReadAll(os.Stdin)
	case file != "":
		raw, err = os.ReadFile(file)
	case fs.NArg() == 1:
		raw = []byte(fs.Arg(0))
	default:
		fatal("%s", usageLine)
	}
	if err != nil {
		fatal("read payload: %v", err)
	}
	if !json.Valid(raw) {
		fatal("payload is not valid JSON")
	}
	return json.RawMessage(raw)
}

// ── bridge ──────────────────────────────────────────────────────────────

type bridgeArgs struct {
	from, to, memo string
	amount         uint64
	utxos          utxoList
}

// utxoList collects repeated --utxo txid:vout:sats flags.
type utxoList []tx.UTXO

func (l *utxoList) String() string { return fmt.Sprintf("%d utxos", len(*l)) }

func (l *utxoList) Set(v string) error {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return fmt.Errorf("want txid:vout:sats, got %q", v)
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return fmt.Errorf("bad vout %q", parts[1])
	}
	value, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return fmt.Errorf("bad value %q", parts[2])
	}
	op, err := types.ParseOutpoint(parts[0], uint32(vout))
	if err != nil {
		return err
	}
	*l = append(*l, tx.UTXO{Outpoint: op, Value: value})
	return nil
}

func parseBridgeArgs(name string, args []string) bridgeArgs {
	fs := flag.NewFlagSet("bridge "+name, flag.ExitOnError)
	from := fs.String("from", "", "Funding address (default: the account's Bitcoin address)")
	to := fs.String("to", "", "Bridge deposit address")
	amount := fs.String("amount", "", "Amount in BTC, e.g. 0.001")
	memo := fs.String("memo", "", "OP_RETURN memo, e.g. the Starknet recipient")
	var utxos utxoList
	fs.Var(&utxos, "utxo", "Plan offline from txid:vout:sats (repeatable; needs --fee-rate)")
	fs.Parse(args)

	if *to == "" || *amount == "" {
		fatal("Usage: bitstark-cli bridge %s --to <bridge> --amount <BTC> [--from <addr>] [--memo <m>]", name)
	}
	sats, err := tx.ParseBTC(*amount)
	if err != nil {
		fatal("invalid amount: %v", err)
	}
	return bridgeArgs{from: *from, to: *to, memo: *memo, amount: sats, utxos: utxos}
}

func cmdBridge(ctx context.Context, cfg *config.Config, args []string) {
	const usageLine = "Usage: bitstark-cli bridge <plan|psbt|sign> [flags]"
	if len(args) < 1 {
		fatal("%s", usageLine)
	}
	switch args[0] {
	case "plan", "psbt":
		cmdBridgeBuild(ctx, cfg, args[0], args[1:])
	case "sign":
		cmdBridgeSign(cfg, args[1:])
	default:
		fatal("Unknown bridge command: %s\n%s", args[0], usageLine)
	}
}

func cmdBridgeBuild(ctx context.Context, cfg *config.Config, mode string, args []string) {
	ba := parseBridgeArgs(mode, args)

	var offline *chaindata.Static
	var chain chaindata.Provider
	if len(ba.utxos) > 0 {
		if cfg.Chain.FeeRate == 0 {
			fatal("--utxo plans offline and needs a fixed --fee-rate")
		}
		offline = chaindata.NewStatic(cfg.Chain.FeeRate)
		chain = offline
	}

	s := openSessionWith(cfg, false, chain)
	defer s.Close()

	if ba.from == "" {
		addr, err := s.svc.GetBitcoinAddress()
		if err != nil {
			fatal("funding address: %v", describe(err))
		}
		ba.from = addr
	}
	if offline != nil {
		for _, u := range ba.utxos {
			u.Address = ba.from
			offline.AddUTXO(u)
		}
	}

	if mode == "plan" {
		plan, err := s.svc.BuildBridgeTransactionPlan(ctx, ba.from, ba.to, ba.amount, ba.memo)
		if err != nil {
			fatal("%v", describe(err))
		}
		printPlan(plan)
		return
	}

	plan, b64, err := s.svc.BuildBridgePSBT(ctx, ba.from, ba.to, ba.amount, ba.memo)
	if err != nil {
		fatal("%v", describe(err))
	}
	printPlan(plan)
	fmt.Println()
	fmt.Println(b64)
}

func cmdBridgeSign(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("bridge sign", flag.ExitOnError)
	packet := fs.String("psbt", "", "Base64 PSBT ('-' for stdin)")
	fs.Parse(args)

	if *packet == "" {
		fatal("Usage: bitstark-cli bridge sign --psbt <base64>")
	}
	if *packet == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal("read psbt: %v", err)
		}
		*packet = strings.TrimSpace(string(b))
	}

	s := openSession(cfg, false)
	defer s.Close()

	rawTx, err := s.svc.SignBridgePSBT(*packet)
	if err != nil {
		fatal("sign psbt: %v", describe(err))
	}
	fmt.Println(rawTx)
}

func printPlan(p *tx.Plan) {
	fmt.Printf("Inputs (%d):\n", len(p.Inputs))
	for _, in := range p.Inputs {
		fmt.Printf("  %s  %s BTC\n", in.Outpoint, tx.FormatBTC(in.Value))
	}
	fmt.Printf("Outputs (%d):\n", len(p.Outputs))
	for _, out := range p.Outputs {
		label := ""
		if out.Change {
			label = "  (change)"
		}
		fmt.Printf("  %s  %s BTC%s\n", out.Address, tx.FormatBTC(out.Value), label)
	}
	if p.Memo != "" {
		fmt.Printf("Memo:     %q\n", p.Memo)
	}
	fmt.Printf("Fee:      %s BTC (%d sat/vB)\n", tx.FormatBTC(p.Fee), p.FeeRate)
	fmt.Printf("Total in: %s BTC\n", tx.FormatBTC(p.TotalInputValue))
}

// ── address ─────────────────────────────────────────────────────────────

func cmdAddress(cfg *config.Config, args []string) {
	if len(args) != 2 || args[0] != "validate" {
		fatal("Usage: bitstark-cli address validate <address>")
	}
	addr := args[1]
	n, ok := types.AddressNetwork(addr)
	if !ok {
		fmt.Println("invalid")
		os.Exit(1)
	}
	fmt.Printf("valid (%s)\n", n)
	if n != cfg.Network && !(cfg.Network == types.Regtest && n == types.Testnet) {
		fmt.Fprintf(os.Stderr, "Warning: wallet is configured for %s\n", cfg.Network)
	}
}

// ── Helpers ─────────────────────────────────────────────────────────────

// describe adds a hint to errors users commonly hit.
func describe(err error) error {
	switch {
	case errors.Is(err, secrets.ErrWrongPassword):
		return fmt.Errorf("%w (check the vault password)", err)
	case errors.Is(err, account.ErrNoAccount):
		return fmt.Errorf("%w (run 'bitstark-cli account create' or 'account import')", err)
	case errors.Is(err, core.ErrNoMnemonic):
		return fmt.Errorf("%w: the account was imported from a raw Starknet key", err)
	case errors.Is(err, chaindata.ErrUnavailable):
		return fmt.Errorf("%w (check --chain-api or set --fee-rate)", err)
	}
	return err
}

func vaultPassword(confirm bool) ([]byte, error) {
	if env := os.Getenv(passwordEnv); env != "" {
		return []byte(env), nil
	}
	password, err := readSecret("Vault password: ")
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("empty password")
	}
	if confirm {
		again, err := readSecret("Confirm password: ")
		if err != nil {
			return nil, err
		}
		defer wipe(again)
		if string(password) != string(again) {
			return nil, fmt.Errorf("passwords do not match")
		}
	}
	return password, nil
}

var stdin = bufio.NewReader(os.Stdin)

// readSecret reads a line without echo from a terminal, or a plain line
// when stdin is redirected.
func readSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr) // newline after hidden input
		return b, err
	}
	line, err := stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func confirmPrompt(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	line, _ := stdin.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encode: %v", err)
	}
	fmt.Println(string(data))
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
