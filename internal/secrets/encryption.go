package secrets

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SaltSize is the Argon2id salt length.
const SaltSize = 32

// sealVersion tags the sealed format:
// version(1) | salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
const sealVersion = 1

const headerSize = 1 + SaltSize + 4 + 4 + 1

// Params holds Argon2id parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the Argon2id parameters used for new secrets.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

// Validate rejects parameters argon2 cannot run with.
func (p Params) Validate() error {
	if p.Iterations == 0 {
		return fmt.Errorf("argon2 iterations must be positive")
	}
	if p.Parallelism == 0 {
		return fmt.Errorf("argon2 parallelism must be positive")
	}
	if p.Memory < 8*uint32(p.Parallelism) {
		return fmt.Errorf("argon2 memory must be at least %d KiB", 8*uint32(p.Parallelism))
	}
	return nil
}

func deriveKey(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Parallelism, chacha20poly1305.KeySize)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Seal encrypts data under password with Argon2id + XChaCha20-Poly1305.
// The additional data ad is authenticated but not stored; Open must be
// given the same value.
func Seal(data, password, ad []byte, p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(password, salt, p)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, headerSize+len(nonce)+len(data)+aead.Overhead())
	out = append(out, sealVersion)
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, p.Memory)
	out = binary.LittleEndian.AppendUint32(out, p.Iterations)
	out = append(out, p.Parallelism)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, ad), nil
}

// Open decrypts a value produced by Seal. Authentication failures return
// ErrWrongPassword.
func Open(sealed, password, ad []byte) ([]byte, error) {
	minSize := headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(sealed) < minSize {
		return nil, fmt.Errorf("sealed data too short: %d bytes, need at least %d", len(sealed), minSize)
	}
	if sealed[0] != sealVersion {
		return nil, fmt.Errorf("unsupported sealed format version %d", sealed[0])
	}

	hdr := sealed[1:headerSize]
	salt := hdr[:SaltSize]
	p := Params{
		Memory:      binary.LittleEndian.Uint32(hdr[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(hdr[SaltSize+4:]),
		Parallelism: hdr[SaltSize+8],
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("sealed header: %w", err)
	}
	nonce := sealed[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[headerSize+chacha20poly1305.NonceSizeX:]

	key := deriveKey(password, salt, p)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}
