// Package core is the wallet's public surface: account lifecycle, Starknet
// signing and bridge transaction planning. All state lives in the injected
// account store and chain provider.
package core

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bitstark/bitstark-wallet/internal/account"
	"github.com/bitstark/bitstark-wallet/internal/chaindata"
	"github.com/bitstark/bitstark-wallet/internal/log"
	"github.com/bitstark/bitstark-wallet/internal/wallet"
	"github.com/bitstark/bitstark-wallet/pkg/crypto"
	"github.com/bitstark/bitstark-wallet/pkg/tx"
	"github.com/bitstark/bitstark-wallet/pkg/types"
)

var (
	// ErrNoMnemonic is returned when the Bitcoin key is needed but the
	// account was imported from a raw Starknet key.
	ErrNoMnemonic = errors.New("no mnemonic stored")
	// ErrNoChain is returned by operations that need chain data when the
	// service runs offline.
	ErrNoChain = errors.New("no chain data provider configured")
	// ErrWrongNetwork is returned for addresses of another network.
	ErrWrongNetwork = errors.New("address belongs to another network")
)

// Config holds the service dependencies.
type Config struct {
	Network types.Network
	Store   *account.Store
	// Chain may be nil; planning operations then fail with ErrNoChain.
	Chain chaindata.Provider
	// FeeRate, when non-zero, is used instead of asking Chain (sat/vB).
	FeeRate uint64
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger zerolog.Logger
}

// Service implements the wallet operations.
type Service struct {
	cfg Config
	log zerolog.Logger

	// setup serializes account creation and import.
	setup sync.Mutex
}

// Created is the result of CreateAccount. Mnemonic must be shown to the
// user for backup and then discarded.
type Created struct {
	Mnemonic        string `json:"mnemonic"`
	StarknetAddress string `json:"starknetAddress"`
	BitcoinAddress  string `json:"bitcoinAddress"`
}

// Imported is the result of ImportAccount. BitcoinAddress is empty when a
// raw Starknet key was imported.
type Imported struct {
	StarknetAddress string `json:"starknetAddress"`
	BitcoinAddress  string `json:"bitcoinAddress,omitempty"`
}

// New creates a service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("core: account store is required")
	}
	if _, err := types.ParseNetwork(string(cfg.Network)); err != nil || cfg.Network == "" {
		return nil, fmt.Errorf("core: invalid network %q", cfg.Network)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{cfg: cfg, log: cfg.Logger}, nil
}

// Network returns the Bitcoin network the service targets.
func (s *Service) Network() types.Network {
	return s.cfg.Network
}

// derived holds the per-chain results of a seed derivation.
type derived struct {
	identity wallet.Identity
	key      *crypto.StarkKey
	btcAddr  string
}

// deriveBoth derives the Starknet identity and Bitcoin address of seed in
// parallel; the two derivations share no state.
func (s *Service) deriveBoth(seed []byte, typ wallet.AccountType) (*derived, error) {
	defer log.Benchmark(s.log, "derive accounts")()

	var d derived
	now := s.cfg.Clock()

	var g errgroup.Group
	g.Go(func() error {
		id, key, err := wallet.GenerateAccount(seed, now)
		if err != nil {
			return fmt.Errorf("starknet: %w", err)
		}
		id.Type = typ
		d.key = key
		d.identity = id
		return nil
	})
	g.Go(func() error {
		addr, err := wallet.DeriveBitcoinAddress(seed, s.cfg.Network, 0)
		if err != nil {
			return fmt.Errorf("bitcoin: %w", err)
		}
		d.btcAddr = addr
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateAccount generates a mnemonic, derives both chain identities and
// stores the account, replacing any existing one.
func (s *Service) CreateAccount(passphrase string) (*Created, error) {
	s.setup.Lock()
	defer s.setup.Unlock()

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		return nil, err
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)

	d, err := s.deriveBoth(seed, wallet.AccountGenerated)
	if err != nil {
		return nil, err
	}
	if err := s.cfg.Store.Save(account.Record{
		Identity:   d.identity,
		PrivateKey: d.key,
		Mnemonic:   mnemonic,
		Passphrase: passphrase,
	}); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("starknet", d.identity.Address).
		Str("bitcoin", d.btcAddr).
		Msg("Account created")
	return &Created{
		Mnemonic:        mnemonic,
		StarknetAddress: d.identity.Address,
		BitcoinAddress:  d.btcAddr,
	}, nil
}

// ImportAccount restores an account from a 12-word mnemonic or a raw
// Starknet private key (64 hex digits, 0x optional).
func (s *Service) ImportAccount(secret string) (*Imported, error) {
	secret = strings.TrimSpace(secret)

	s.setup.Lock()
	defer s.setup.Unlock()

	if !wallet.ValidateMnemonic(secret) {
		id, key, err := wallet.ImportAccount(secret, s.cfg.Clock())
		if err != nil {
			return nil, err
		}
		if err := s.cfg.Store.Save(account.Record{Identity: id, PrivateKey: key}); err != nil {
			return nil, err
		}
		s.log.Info().Str("starknet", id.Address).Msg("Account imported from private key")
		return &Imported{StarknetAddress: id.Address}, nil
	}

	mnemonic := wallet.NormalizeMnemonic(secret)
	if !wallet.MnemonicChecksumValid(mnemonic) {
		s.log.Warn().Msg("Imported mnemonic has an invalid BIP-39 checksum")
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, err
	}
	defer wipe(seed)

	d, err := s.deriveBoth(seed, wallet.AccountImported)
	if err != nil {
		return nil, err
	}
	if err := s.cfg.Store.Save(account.Record{
		Identity:   d.identity,
		PrivateKey: d.key,
		Mnemonic:   mnemonic,
	}); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("starknet", d.identity.Address).
		Str("bitcoin", d.btcAddr).
		Msg("Account imported from mnemonic")
	return &Imported{StarknetAddress: d.identity.Address, BitcoinAddress: d.btcAddr}, nil
}

// Account returns the stored Starknet identity.
func (s *Service) Account() (wallet.Identity, error) {
	return s.cfg.Store.Identity()
}

// seed recomputes the BIP-39 seed from the stored mnemonic.
func (s *Service) seed() ([]byte, error) {
	mnemonic, passphrase, ok, err := s.cfg.Store.Mnemonic()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoMnemonic
	}
	return wallet.SeedFromMnemonic(mnemonic, passphrase)
}

// GetBitcoinAddress returns the account's BIP-84 receive address.
func (s *Service) GetBitcoinAddress() (string, error) {
	seed, err := s.seed()
	if err != nil {
		return "", err
	}
	defer wipe(seed)
	return wallet.DeriveBitcoinAddress(seed, s.cfg.Network, 0)
}

// bitcoinKey returns the signing key behind GetBitcoinAddress.
func (s *Service) bitcoinKey() (*crypto.PrivateKey, error) {
	seed, err := s.seed()
	if err != nil {
		return nil, err
	}
	defer wipe(seed)
	hd, err := wallet.DeriveBitcoinKey(seed, s.cfg.Network, 0)
	if err != nil {
		return nil, err
	}
	return hd.Signer()
}

// SignPayload signs the canonical hash of payload with the Starknet key.
func (s *Service) SignPayload(payload any) (crypto.StarkSignature, error) {
	key, err := s.cfg.Store.PrivateKey()
	if err != nil {
		return crypto.StarkSignature{}, err
	}
	defer key.Zero()
	return wallet.SignPayload(payload, key)
}

// VerifyPayload checks sig over payload against the stored account key.
func (s *Service) VerifyPayload(payload any, sig crypto.StarkSignature) (bool, error) {
	key, err := s.cfg.Store.PrivateKey()
	if err != nil {
		return false, err
	}
	defer key.Zero()
	return wallet.VerifyPayload(payload, sig, key.Public())
}

// checkNetwork rejects addresses of a different network. Legacy regtest
// addresses share testnet version bytes and are accepted for either.
func (s *Service) checkNetwork(address string) error {
	n, ok := types.AddressNetwork(address)
	if !ok {
		return fmt.Errorf("%w: %q", tx.ErrInvalidAddress, address)
	}
	if n == s.cfg.Network {
		return nil
	}
	if s.cfg.Network == types.Regtest && n == types.Testnet && !strings.HasPrefix(strings.ToLower(address), types.TestnetHRP+"1") {
		return nil
	}
	return fmt.Errorf("%w: %s is %s, wallet is %s", ErrWrongNetwork, address, n, s.cfg.Network)
}

// feeRate returns the configured fixed fee rate or asks the chain.
func (s *Service) feeRate(ctx context.Context) (uint64, error) {
	if s.cfg.FeeRate > 0 {
		return s.cfg.FeeRate, nil
	}
	rate, err := s.cfg.Chain.GetFeeRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch fee rate: %w", err)
	}
	return rate, nil
}

// BuildBridgeTransactionPlan selects inputs from the from address and plans
// a payment of amount satoshis to the bridge address, with change back to
// from and an optional OP_RETURN memo.
func (s *Service) BuildBridgeTransactionPlan(ctx context.Context, from, bridge string, amount uint64, memo string) (*tx.Plan, error) {
	if s.cfg.Chain == nil {
		return nil, ErrNoChain
	}
	for _, addr := range []string{from, bridge} {
		if err := s.checkNetwork(addr); err != nil {
			return nil, err
		}
	}
	rate, err := s.feeRate(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := tx.BuildPlan(ctx, s.cfg.Chain, tx.PlanRequest{
		From:    from,
		To:      bridge,
		Amount:  amount,
		FeeRate: rate,
		Memo:    memo,
	})
	if err != nil {
		s.log.Debug().Err(err).Str("from", from).Uint64("amount", amount).Msg("Bridge plan failed")
		return nil, err
	}
	s.log.Info().
		Str("bridge", bridge).
		Uint64("amount", amount).
		Uint64("fee", plan.Fee).
		Int("inputs", len(plan.Inputs)).
		Msg("Bridge plan built")
	return plan, nil
}

// BuildBridgePSBT plans the bridge payment and returns it as a base64 PSBT
// ready for signing.
func (s *Service) BuildBridgePSBT(ctx context.Context, from, bridge string, amount uint64, memo string) (*tx.Plan, string, error) {
	plan, err := s.BuildBridgeTransactionPlan(ctx, from, bridge, amount, memo)
	if err != nil {
		return nil, "", err
	}
	packet, err := tx.ToPSBT(plan, s.cfg.Network)
	if err != nil {
		return nil, "", err
	}
	b64, err := tx.EncodePSBT(packet)
	if err != nil {
		return nil, "", err
	}
	return plan, b64, nil
}

// SignBridgePSBT signs every input of a base64 PSBT that spends the
// account's Bitcoin address and returns the final transaction hex.
func (s *Service) SignBridgePSBT(b64 string) (string, error) {
	packet, err := tx.DecodePSBT(b64)
	if err != nil {
		return "", err
	}
	key, err := s.bitcoinKey()
	if err != nil {
		return "", err
	}
	defer key.Zero()

	final, err := tx.SignPSBT(packet, key)
	if err != nil {
		return "", err
	}
	s.log.Info().
		Str("txid", final.TxHash().String()).
		Int("vsize", tx.VirtualSize(final)).
		Msg("Bridge transaction signed")
	return encodeTx(final)
}

func encodeTx(msg *wire.MsgTx) (string, error) {
	var sb strings.Builder
	if err := msg.Serialize(hex.NewEncoder(&sb)); err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	return sb.String(), nil
}

// Balance returns the balance of the account's Bitcoin address.
func (s *Service) Balance(ctx context.Context) (string, chaindata.Balance, error) {
	src, ok := s.cfg.Chain.(chaindata.BalanceSource)
	if !ok {
		return "", chaindata.Balance{}, ErrNoChain
	}
	addr, err := s.GetBitcoinAddress()
	if err != nil {
		return "", chaindata.Balance{}, err
	}
	b, err := src.GetBalance(ctx, addr)
	return addr, b, err
}

// Logout removes the stored account.
func (s *Service) Logout() error {
	return s.cfg.Store.Clear()
}

// ClearIncomplete removes a partially stored account left by an
// interrupted setup. It reports whether anything was removed.
func (s *Service) ClearIncomplete() (bool, error) {
	return s.cfg.Store.ClearIncomplete()
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
