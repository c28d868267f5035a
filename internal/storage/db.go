// Package storage provides the key-value stores behind the secrets vault:
// Badger on disk, a map in memory, and key-prefixed views of either.
package storage

import "errors"

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// DB is the interface for key-value storage.
type DB interface {
	// Get returns a copy of the value, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix.
	// The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Batch collects writes and applies them together on Commit. Either all
// writes become visible or none do.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
}

// Batcher is implemented by stores that support atomic batches.
type Batcher interface {
	NewBatch() Batch
}

// batchOp is a buffered write; a nil value means delete.
type batchOp struct {
	key   []byte
	value []byte
}

// opLog buffers batch writes for stores that apply them under a lock.
type opLog struct {
	ops []batchOp
}

func (l *opLog) Put(key, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	l.ops = append(l.ops, batchOp{key: clone(key), value: v})
	return nil
}

func (l *opLog) Delete(key []byte) error {
	l.ops = append(l.ops, batchOp{key: clone(key)})
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
