package storage

import (
	"errors"
	"sort"
	"testing"
)

// plainDB hides the Batcher implementation of the wrapped DB.
type plainDB struct{ DB }

func TestPrefixDB_Namespaces(t *testing.T) {
	inner := NewMemory()
	secrets := NewPrefixDB(inner, []byte("secrets/"))
	cache := NewPrefixDB(inner, []byte("cache/"))

	secrets.Put([]byte("key"), []byte("sealed"))
	cache.Put([]byte("key"), []byte("utxos"))

	tests := []struct {
		db   *PrefixDB
		want string
	}{
		{secrets, "sealed"},
		{cache, "utxos"},
	}
	for _, tt := range tests {
		got, err := tt.db.Get([]byte("key"))
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("Get = %q, want %q", got, tt.want)
		}
	}

	raw, err := inner.Get([]byte("secrets/key"))
	if err != nil || string(raw) != "sealed" {
		t.Fatalf("inner.Get(secrets/key) = %q, %v", raw, err)
	}
	if ok, _ := secrets.Has([]byte("cache/key")); ok {
		t.Fatal("namespace sees a sibling's raw key")
	}

	secrets.Delete([]byte("key"))
	if _, err := secrets.Get([]byte("key")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete error = %v, want ErrNotFound", err)
	}
	if ok, _ := cache.Has([]byte("key")); !ok {
		t.Fatal("Delete leaked into a sibling namespace")
	}
}

func TestPrefixDB_ForEach(t *testing.T) {
	db := NewPrefixDB(NewMemory(), []byte("ns/"))
	db.Put([]byte("u/k1"), []byte("v1"))
	db.Put([]byte("u/k2"), []byte("v2"))
	db.Put([]byte("b/k3"), []byte("v3"))

	var keys []string
	if err := db.ForEach([]byte("u/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	}); err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "u/k1" || keys[1] != "u/k2" {
		t.Fatalf("ForEach keys = %v, want [u/k1 u/k2]", keys)
	}

	stop := errors.New("stop")
	count := 0
	err := db.ForEach(nil, func(_, _ []byte) error {
		count++
		return stop
	})
	if !errors.Is(err, stop) || count != 1 {
		t.Fatalf("ForEach stop = %v after %d calls, want stop after 1", err, count)
	}
}

func TestPrefixDB_DeleteAll(t *testing.T) {
	for _, tc := range []struct {
		name  string
		inner DB
	}{
		{"batched", NewMemory()},
		{"sequential", plainDB{NewMemory()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := NewPrefixDB(tc.inner, []byte("a/"))
			b := NewPrefixDB(tc.inner, []byte("b/"))
			a.Put([]byte("k1"), []byte("v1"))
			a.Put([]byte("k2"), []byte("v2"))
			b.Put([]byte("k1"), []byte("other"))

			if err := a.DeleteAll(); err != nil {
				t.Fatalf("DeleteAll: %v", err)
			}
			for _, k := range []string{"k1", "k2"} {
				if ok, _ := a.Has([]byte(k)); ok {
					t.Errorf("a still has %q after DeleteAll", k)
				}
			}
			if got, err := b.Get([]byte("k1")); err != nil || string(got) != "other" {
				t.Fatalf("b.Get(k1) = %q, %v; want %q", got, err, "other")
			}
			if err := a.DeleteAll(); err != nil {
				t.Fatalf("DeleteAll on empty namespace: %v", err)
			}
		})
	}
}

func TestPrefixDB_Batch(t *testing.T) {
	for _, tc := range []struct {
		name  string
		inner DB
	}{
		{"batched", NewMemory()},
		{"sequential", plainDB{NewMemory()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db := NewPrefixDB(tc.inner, []byte("acct/"))
			db.Put([]byte("old"), []byte("x"))

			batch := db.NewBatch()
			batch.Put([]byte("starknet_private_key"), []byte("k"))
			batch.Put([]byte("starknet_account_data"), []byte("{}"))
			batch.Delete([]byte("old"))
			if err := batch.Commit(); err != nil {
				t.Fatalf("Commit: %v", err)
			}

			got, err := tc.inner.Get([]byte("acct/starknet_private_key"))
			if err != nil || string(got) != "k" {
				t.Fatalf("inner key = %q, %v; want prefixed write", got, err)
			}
			if ok, _ := db.Has([]byte("old")); ok {
				t.Fatal("batched delete not applied")
			}
		})
	}
}

func TestPrefixDB_CloseIsNoop(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("x/"))
	db.Put([]byte("key"), []byte("val"))

	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got, err := inner.Get([]byte("x/key")); err != nil || string(got) != "val" {
		t.Fatalf("inner.Get after Close = %q, %v", got, err)
	}
}
