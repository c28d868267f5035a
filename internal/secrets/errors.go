// Package secrets custodies sensitive values (mnemonics, private keys) in an
// encrypted key-value vault.
package secrets

import "errors"

var (
	// ErrNotFound is returned when no value is stored under a key.
	ErrNotFound = errors.New("secret not found")
	// ErrStorage wraps failures of the backing store.
	ErrStorage = errors.New("secret storage failure")
	// ErrWrongPassword is returned when a value cannot be authenticated
	// with the vault password.
	ErrWrongPassword = errors.New("wrong password or corrupted secret")
	// ErrLocked is returned when the vault has no password set.
	ErrLocked = errors.New("vault is locked")
)
