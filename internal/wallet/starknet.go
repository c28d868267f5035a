package wallet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/bitstark/bitstark-wallet/pkg/crypto"
)

// AccountType records how an identity came into existence.
type AccountType string

const (
	AccountGenerated AccountType = "generated"
	AccountImported  AccountType = "imported"
)

// Identity is the public record of a Starknet account. Address equals the
// stark public key; no account contract is deployed.
type Identity struct {
	Address   string      `json:"address"`
	PublicKey string      `json:"publicKey"`
	Type      AccountType `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
	// HasMnemonic is set when the account is backed by a stored mnemonic,
	// whether generated or imported from one.
	HasMnemonic bool `json:"hasMnemonic"`
}

var rawKeyPattern = regexp.MustCompile(`^(0[xX])?[0-9a-fA-F]{64}$`)

// StarknetKey derives the Starknet private key of a seed: BIP-32 at
// StarknetPath, ground into the STARK curve order.
func StarknetKey(seed []byte) (*crypto.StarkKey, error) {
	hd, err := Derive(seed, StarknetPath)
	if err != nil {
		return nil, err
	}
	key, err := crypto.GrindStarkKey(hd.PrivateKeyBytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerivation, err)
	}
	return key, nil
}

// GenerateAccount derives the Starknet identity of seed.
func GenerateAccount(seed []byte, now time.Time) (Identity, *crypto.StarkKey, error) {
	key, err := StarknetKey(seed)
	if err != nil {
		return Identity{}, nil, err
	}
	return NewIdentity(key, AccountGenerated, now), key, nil
}

// ImportAccount accepts either a 12-word mnemonic or a raw 64-digit hex
// private key (0x prefix optional) and returns the resulting identity.
func ImportAccount(secret string, now time.Time) (Identity, *crypto.StarkKey, error) {
	if ValidateMnemonic(secret) {
		seed, err := SeedFromMnemonic(secret, "")
		if err != nil {
			return Identity{}, nil, err
		}
		key, err := StarknetKey(seed)
		if err != nil {
			return Identity{}, nil, err
		}
		return NewIdentity(key, AccountImported, now), key, nil
	}

	key, err := ParsePrivateKey(secret)
	if err != nil {
		return Identity{}, nil, err
	}
	return NewIdentity(key, AccountImported, now), key, nil
}

// ParsePrivateKey parses a raw Starknet private key.
func ParsePrivateKey(s string) (*crypto.StarkKey, error) {
	if !rawKeyPattern.MatchString(s) {
		return nil, fmt.Errorf("%w: expected 64 hex digits", ErrInvalidKey)
	}
	key, err := crypto.StarkKeyFromHex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// NewIdentity builds the identity record for key.
func NewIdentity(key *crypto.StarkKey, typ AccountType, now time.Time) Identity {
	pub := key.Public().Hex()
	return Identity{
		Address:   pub,
		PublicKey: pub,
		Type:      typ,
		CreatedAt: now.UTC(),
	}
}

// HashPayload hashes payload for signing: canonical JSON (object keys
// sorted, no insignificant whitespace), SHA-256, then the top five bits
// cleared so the digest is a valid felt below 2^251.
func HashPayload(payload any) ([32]byte, error) {
	canon, err := canonicalJSON(payload)
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: payload: %v", ErrInvalidInput, err)
	}
	h := crypto.SHA256(canon)
	h[0] &= 0x07
	return h, nil
}

func canonicalJSON(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// Round-trip through a generic value so struct field order and
	// pre-encoded JSON collapse to the same sorted form.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// SignPayload signs the hash of payload with key.
func SignPayload(payload any, key *crypto.StarkKey) (crypto.StarkSignature, error) {
	if key == nil {
		return crypto.StarkSignature{}, ErrNoKey
	}
	h, err := HashPayload(payload)
	if err != nil {
		return crypto.StarkSignature{}, err
	}
	return key.Sign(h[:])
}

// VerifyPayload checks sig over payload against pub.
func VerifyPayload(payload any, sig crypto.StarkSignature, pub *crypto.StarkPublicKey) (bool, error) {
	if pub == nil {
		return false, errors.New("nil public key")
	}
	h, err := HashPayload(payload)
	if err != nil {
		return false, err
	}
	return pub.Verify(h[:], sig), nil
}
