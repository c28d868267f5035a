package secrets

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bitstark/bitstark-wallet/internal/storage"
	"github.com/bitstark/bitstark-wallet/pkg/crypto"
)

// Store is a key-value custodian for secret material.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// BatchStore is a Store that can write or delete several keys atomically.
type BatchStore interface {
	Store
	SetAll(entries map[string][]byte) error
	DeleteAll(keys ...string) error
}

// Clearer is a Store that can remove everything it holds.
type Clearer interface {
	Store
	Clear() error
}

// slotKey domain-separates vault slot names from other BLAKE3 uses.
var slotKey = crypto.Hash([]byte("bitstark-wallet/secrets/slot/v1"))

// Vault is a BatchStore that seals every value with a password before it
// reaches the backing DB. Key names are replaced by keyed BLAKE3 digests, so
// neither names nor values appear in the clear on disk.
type Vault struct {
	mu       sync.RWMutex
	db       storage.DB
	password []byte
	params   Params
}

// NewVault returns a vault over db that seals values with password.
func NewVault(db storage.DB, password []byte, params Params) *Vault {
	pw := make([]byte, len(password))
	copy(pw, password)
	return &Vault{db: db, password: pw, params: params}
}

// slot returns the on-disk key for a secret name. It doubles as the
// additional data binding a sealed value to its slot.
func slot(name string) []byte {
	h := crypto.KeyedHash(slotKey, []byte(name))
	return h[:]
}

// Get opens the value stored under key.
func (v *Vault) Get(key string) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.password) == 0 {
		return nil, ErrLocked
	}

	id := slot(key)
	sealed, err := v.db.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorage, key, err)
	}
	return Open(sealed, v.password, id)
}

// Set seals value and stores it under key, replacing any previous value.
func (v *Vault) Set(key string, value []byte) error {
	return v.SetAll(map[string][]byte{key: value})
}

// SetAll seals and stores every entry. When the backing DB supports batches
// either all entries are written or none are.
func (v *Vault) SetAll(entries map[string][]byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.password) == 0 {
		return ErrLocked
	}

	sealed := make(map[string][]byte, len(entries))
	for name, value := range entries {
		s, err := Seal(value, v.password, slot(name), v.params)
		if err != nil {
			return fmt.Errorf("seal %s: %w", name, err)
		}
		sealed[name] = s
	}
	return v.write(func(put func(k, val []byte) error, _ func(k []byte) error) error {
		for name, s := range sealed {
			if err := put(slot(name), s); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
		}
		return nil
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (v *Vault) Delete(key string) error {
	return v.DeleteAll(key)
}

// DeleteAll removes every named key, atomically when the DB supports it.
func (v *Vault) DeleteAll(keys ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.write(func(_ func(k, val []byte) error, del func(k []byte) error) error {
		for _, name := range keys {
			if err := del(slot(name)); err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
		}
		return nil
	})
}

// write runs fn against a batch when available, otherwise against the DB
// directly. Callers hold v.mu.
func (v *Vault) write(fn func(put func(k, val []byte) error, del func(k []byte) error) error) error {
	batcher, ok := v.db.(storage.Batcher)
	if !ok {
		if err := fn(v.db.Put, v.db.Delete); err != nil {
			return fmt.Errorf("%w: %w", ErrStorage, err)
		}
		return nil
	}
	b := batcher.NewBatch()
	if err := fn(b.Put, b.Delete); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStorage, err)
	}
	return nil
}

// Clear removes every value in the vault's namespace. It requires a DB that
// can enumerate its own namespace, such as storage.PrefixDB.
func (v *Vault) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	ns, ok := v.db.(interface{ DeleteAll() error })
	if !ok {
		return fmt.Errorf("%w: backing store %T cannot be cleared", ErrStorage, v.db)
	}
	if err := ns.DeleteAll(); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrStorage, err)
	}
	return nil
}

// Lock wipes the password. Subsequent reads and writes fail with ErrLocked
// until a new vault is opened.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	wipe(v.password)
	v.password = nil
}
