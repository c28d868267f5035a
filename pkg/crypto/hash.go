// Package crypto provides the hash functions and key types used by the
// wallet: BLAKE3 for storage key naming, HASH160 for Bitcoin witness
// programs, secp256k1 for Bitcoin keys and the STARK curve for Starknet.
package crypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// KeyedHash computes a BLAKE3 keyed hash, used to derive opaque storage
// names that cannot be linked across vaults with different keys.
func KeyedHash(key [32]byte, data []byte) [32]byte {
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		// Only returned for keys that are not 32 bytes.
		panic(err)
	}
	_, _ = h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// SHA256 computes a single SHA-256 digest.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Hash160 computes RIPEMD-160(SHA-256(data)), the Bitcoin public key hash.
func Hash160(data []byte) []byte {
	return btcutil.Hash160(data)
}
