package account

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitstark/bitstark-wallet/internal/secrets"
	"github.com/bitstark/bitstark-wallet/internal/storage"
	"github.com/bitstark/bitstark-wallet/internal/wallet"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var testParams = secrets.Params{Memory: 64, Iterations: 1, Parallelism: 1}

func newVaultStore(t *testing.T) *Store {
	t.Helper()
	db := storage.NewPrefixDB(storage.NewMemory(), []byte("secrets/"))
	return NewStore(secrets.NewVault(db, []byte("pw"), testParams), zerolog.Nop())
}

func generatedRecord(t *testing.T) Record {
	t.Helper()
	seed, err := wallet.SeedFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	id, key, err := wallet.GenerateAccount(seed, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("GenerateAccount: %v", err)
	}
	return Record{Identity: id, PrivateKey: key, Mnemonic: testMnemonic}
}

func TestStore_SaveAndRead(t *testing.T) {
	s := newVaultStore(t)
	rec := generatedRecord(t)

	if err := s.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	id, err := s.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if id.Address != rec.Identity.Address || id.Type != wallet.AccountGenerated {
		t.Errorf("Identity = %+v, want %+v", id, rec.Identity)
	}
	if !id.HasMnemonic {
		t.Error("generated account not marked as mnemonic-backed")
	}
	if !id.CreatedAt.Equal(rec.Identity.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", id.CreatedAt, rec.Identity.CreatedAt)
	}

	key, err := s.PrivateKey()
	if err != nil {
		t.Fatalf("PrivateKey: %v", err)
	}
	if key.Hex() != rec.PrivateKey.Hex() {
		t.Errorf("PrivateKey = %s, want %s", key.Hex(), rec.PrivateKey.Hex())
	}

	m, pass, ok, err := s.Mnemonic()
	if err != nil || !ok {
		t.Fatalf("Mnemonic = %v, %v", ok, err)
	}
	if m != testMnemonic || pass != "" {
		t.Errorf("Mnemonic = %q/%q", m, pass)
	}

	complete, err := s.IsSetupComplete()
	if err != nil || !complete {
		t.Errorf("IsSetupComplete = %v, %v; want true", complete, err)
	}
}

func TestStore_Empty(t *testing.T) {
	s := newVaultStore(t)
	if _, err := s.Identity(); !errors.Is(err, ErrNoAccount) {
		t.Errorf("Identity error = %v, want ErrNoAccount", err)
	}
	if _, err := s.PrivateKey(); !errors.Is(err, wallet.ErrNoKey) {
		t.Errorf("PrivateKey error = %v, want ErrNoKey", err)
	}
	if _, _, ok, err := s.Mnemonic(); ok || err != nil {
		t.Errorf("Mnemonic = %v, %v; want not found", ok, err)
	}
	if complete, _ := s.IsSetupComplete(); complete {
		t.Error("empty store reports complete setup")
	}
}

func TestStore_RawKeyImportReplacesMnemonic(t *testing.T) {
	s := newVaultStore(t)
	rec := generatedRecord(t)
	rec.Passphrase = "extra"
	s.Save(rec)

	id, key, err := wallet.ImportAccount(rec.PrivateKey.Hex(), time.Now())
	if err != nil {
		t.Fatalf("ImportAccount: %v", err)
	}
	if err := s.Save(Record{Identity: id, PrivateKey: key}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, ok, _ := s.Mnemonic(); ok {
		t.Error("stale mnemonic survived raw key import")
	}
	if stored, _ := s.Identity(); stored.HasMnemonic {
		t.Error("raw key import marked as mnemonic-backed")
	}
	complete, err := s.IsSetupComplete()
	if err != nil || !complete {
		t.Errorf("raw key import IsSetupComplete = %v, %v; want true", complete, err)
	}
}

func TestStore_SaveRequiresKey(t *testing.T) {
	s := newVaultStore(t)
	if err := s.Save(Record{}); !errors.Is(err, wallet.ErrNoKey) {
		t.Fatalf("Save(no key) error = %v, want ErrNoKey", err)
	}
}

func TestStore_ClearIncomplete(t *testing.T) {
	s := newVaultStore(t)
	rec := generatedRecord(t)
	s.Save(rec)

	cleared, err := s.ClearIncomplete()
	if err != nil || cleared {
		t.Fatalf("ClearIncomplete on complete account = %v, %v", cleared, err)
	}

	// A generated account without its mnemonic is incomplete.
	s.secrets.Delete(KeyMnemonic)
	cleared, err = s.ClearIncomplete()
	if err != nil || !cleared {
		t.Fatalf("ClearIncomplete = %v, %v; want cleared", cleared, err)
	}
	if _, err := s.PrivateKey(); !errors.Is(err, wallet.ErrNoKey) {
		t.Errorf("private key survived ClearIncomplete: %v", err)
	}
}

func TestStore_MnemonicImportNeedsMnemonic(t *testing.T) {
	s := newVaultStore(t)
	id, key, err := wallet.ImportAccount(testMnemonic, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("ImportAccount: %v", err)
	}
	if err := s.Save(Record{Identity: id, PrivateKey: key, Mnemonic: testMnemonic}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if complete, err := s.IsSetupComplete(); err != nil || !complete {
		t.Fatalf("IsSetupComplete = %v, %v; want true", complete, err)
	}

	s.secrets.Delete(KeyMnemonic)

	complete, err := s.IsSetupComplete()
	if err != nil || complete {
		t.Errorf("IsSetupComplete without mnemonic = %v, %v; want false", complete, err)
	}
	cleared, err := s.ClearIncomplete()
	if err != nil || !cleared {
		t.Fatalf("ClearIncomplete = %v, %v; want cleared", cleared, err)
	}
	if _, err := s.Identity(); !errors.Is(err, ErrNoAccount) {
		t.Errorf("identity survived ClearIncomplete: %v", err)
	}
}

func TestStore_ClearWipesVault(t *testing.T) {
	db := storage.NewPrefixDB(storage.NewMemory(), []byte("secrets/"))
	v := secrets.NewVault(db, []byte("pw"), testParams)
	s := NewStore(v, zerolog.Nop())
	s.Save(generatedRecord(t))
	v.Set("starknet_legacy_slot", []byte("old"))

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := v.Get("starknet_legacy_slot"); !errors.Is(err, secrets.ErrNotFound) {
		t.Errorf("slot outside the account layout survived Clear: %v", err)
	}
	n := 0
	db.ForEach(nil, func(_, _ []byte) error { n++; return nil })
	if n != 0 {
		t.Errorf("%d entries left in the vault namespace", n)
	}
}

func TestStore_Clear(t *testing.T) {
	s := newVaultStore(t)
	s.Save(generatedRecord(t))
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Identity(); !errors.Is(err, ErrNoAccount) {
		t.Errorf("Identity after Clear error = %v", err)
	}
}

// flakyStore is a plain secrets.Store that fails writes to one slot.
type flakyStore struct {
	data   map[string][]byte
	failOn string
}

func (f *flakyStore) Get(key string) ([]byte, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, secrets.ErrNotFound
	}
	return v, nil
}

func (f *flakyStore) Set(key string, value []byte) error {
	if key == f.failOn {
		return errors.Join(secrets.ErrStorage, errors.New("disk full"))
	}
	f.data[key] = value
	return nil
}

func (f *flakyStore) Delete(key string) error {
	delete(f.data, key)
	return nil
}

func TestStore_SaveRollsBack(t *testing.T) {
	for _, slot := range []string{KeyPrivateKey, KeyMnemonic, KeyAccountData} {
		t.Run(slot, func(t *testing.T) {
			fs := &flakyStore{data: map[string][]byte{}, failOn: slot}
			s := NewStore(fs, zerolog.Nop())

			err := s.Save(generatedRecord(t))
			if !errors.Is(err, ErrStorage) {
				t.Fatalf("Save error = %v, want ErrStorage", err)
			}
			if len(fs.data) != 0 {
				t.Errorf("partial account left behind: %d slots", len(fs.data))
			}
		})
	}
}
