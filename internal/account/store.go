// Package account persists the wallet's single Starknet account in a
// secrets store: private key, mnemonic and the public identity record.
package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bitstark/bitstark-wallet/internal/secrets"
	"github.com/bitstark/bitstark-wallet/internal/wallet"
	"github.com/bitstark/bitstark-wallet/pkg/crypto"
)

// Secret slot names.
const (
	KeyPrivateKey  = "starknet_private_key"
	KeyMnemonic    = "starknet_mnemonic"
	KeyAccountData = "starknet_account_data"
	KeyPassphrase  = "starknet_passphrase"
)

var allKeys = []string{KeyPrivateKey, KeyMnemonic, KeyAccountData, KeyPassphrase}

var (
	// ErrNoAccount is returned when no account has been saved.
	ErrNoAccount = errors.New("no account")
	// ErrStorage aliases the secrets storage error so callers need only
	// import this package.
	ErrStorage = secrets.ErrStorage
)

// Record is everything persisted for an account.
type Record struct {
	Identity   wallet.Identity
	PrivateKey *crypto.StarkKey
	// Mnemonic is empty for accounts imported from a raw key.
	Mnemonic string
	// Passphrase is the optional BIP-39 passphrase used with Mnemonic.
	Passphrase string
}

// Store reads and writes the account. Writers are serialized.
type Store struct {
	mu      sync.Mutex
	secrets secrets.Store
	log     zerolog.Logger
}

// NewStore returns an account store over s.
func NewStore(s secrets.Store, logger zerolog.Logger) *Store {
	return &Store{secrets: s, log: logger}
}

// Save writes rec, replacing any existing account. Either every slot is
// written or the store is rolled back to empty.
func (s *Store) Save(rec Record) error {
	if rec.PrivateKey == nil {
		return fmt.Errorf("save account: %w", wallet.ErrNoKey)
	}
	rec.Identity.HasMnemonic = rec.Mnemonic != ""
	data, err := json.Marshal(rec.Identity)
	if err != nil {
		return fmt.Errorf("encode account data: %w", err)
	}

	entries := map[string][]byte{
		KeyPrivateKey:  []byte(rec.PrivateKey.Hex()),
		KeyAccountData: data,
	}
	var stale []string
	if rec.Mnemonic != "" {
		entries[KeyMnemonic] = []byte(rec.Mnemonic)
	} else {
		stale = append(stale, KeyMnemonic)
	}
	if rec.Passphrase != "" {
		entries[KeyPassphrase] = []byte(rec.Passphrase)
	} else {
		stale = append(stale, KeyPassphrase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(entries, stale); err != nil {
		s.log.Error().Err(err).Msg("Account save failed, rolling back")
		if rbErr := s.clear(); rbErr != nil {
			s.log.Error().Err(rbErr).Msg("Account rollback failed")
		}
		return err
	}
	s.log.Info().
		Str("address", rec.Identity.Address).
		Str("type", string(rec.Identity.Type)).
		Bool("mnemonic", rec.Mnemonic != "").
		Msg("Account saved")
	return nil
}

func (s *Store) write(entries map[string][]byte, stale []string) error {
	if bs, ok := s.secrets.(secrets.BatchStore); ok {
		if err := bs.DeleteAll(stale...); err != nil {
			return err
		}
		return bs.SetAll(entries)
	}
	for _, k := range stale {
		if err := s.secrets.Delete(k); err != nil {
			return err
		}
	}
	for k, v := range entries {
		if err := s.secrets.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// get reads a slot, mapping a missing value to found=false.
func (s *Store) get(key string) (value []byte, found bool, err error) {
	v, err := s.secrets.Get(key)
	if errors.Is(err, secrets.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, true, nil
}

// Identity returns the saved public identity, or ErrNoAccount.
func (s *Store) Identity() (wallet.Identity, error) {
	data, ok, err := s.get(KeyAccountData)
	if err != nil {
		return wallet.Identity{}, err
	}
	if !ok {
		return wallet.Identity{}, ErrNoAccount
	}
	var id wallet.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return wallet.Identity{}, fmt.Errorf("%w: decode account data: %v", ErrStorage, err)
	}
	return id, nil
}

// PrivateKey returns the Starknet private key, or wallet.ErrNoKey.
func (s *Store) PrivateKey() (*crypto.StarkKey, error) {
	raw, ok, err := s.get(KeyPrivateKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, wallet.ErrNoKey
	}
	key, err := crypto.StarkKeyFromHex(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: stored private key: %v", ErrStorage, err)
	}
	return key, nil
}

// Mnemonic returns the stored mnemonic and passphrase. found is false for
// accounts imported from a raw key.
func (s *Store) Mnemonic() (mnemonic, passphrase string, found bool, err error) {
	m, ok, err := s.get(KeyMnemonic)
	if err != nil || !ok {
		return "", "", false, err
	}
	p, _, err := s.get(KeyPassphrase)
	if err != nil {
		return "", "", false, err
	}
	return string(m), string(p), true, nil
}

// IsSetupComplete reports whether a full account is stored: private key and
// identity record, plus the mnemonic for generated accounts and accounts
// imported from one.
func (s *Store) IsSetupComplete() (bool, error) {
	id, err := s.Identity()
	if errors.Is(err, ErrNoAccount) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, ok, err := s.get(KeyPrivateKey); err != nil || !ok {
		return false, err
	}
	if id.Type == wallet.AccountImported && !id.HasMnemonic {
		return true, nil
	}
	_, ok, err := s.get(KeyMnemonic)
	return ok, err
}

// ClearIncomplete removes a partially written account. A complete account
// is left untouched. It reports whether anything was cleared.
func (s *Store) ClearIncomplete() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	complete, err := s.IsSetupComplete()
	if err != nil {
		return false, err
	}
	if complete {
		return false, nil
	}
	if err := s.clear(); err != nil {
		return false, err
	}
	s.log.Warn().Msg("Cleared incomplete account")
	return true, nil
}

// Clear removes the account (logout). When the secrets store can wipe its
// whole namespace it does, so slots from older layouts go too.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if c, ok := s.secrets.(secrets.Clearer); ok {
		err = c.Clear()
	} else {
		err = s.clear()
	}
	if err != nil {
		return err
	}
	s.log.Info().Msg("Account cleared")
	return nil
}

func (s *Store) clear() error {
	if bs, ok := s.secrets.(secrets.BatchStore); ok {
		return bs.DeleteAll(allKeys...)
	}
	var errs []error
	for _, k := range allKeys {
		if err := s.secrets.Delete(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
