package wallet

import (
	"fmt"

	"github.com/bitstark/bitstark-wallet/pkg/crypto"
	"github.com/bitstark/bitstark-wallet/pkg/types"
)

// DeriveBitcoinKey derives the BIP-84 key for the given address index.
func DeriveBitcoinKey(seed []byte, net types.Network, index uint32) (*HDKey, error) {
	path, err := BitcoinPath(net, index)
	if err != nil {
		return nil, err
	}
	return Derive(seed, path)
}

// DeriveBitcoinAddress derives the native segwit (P2WPKH) address for the
// given address index.
func DeriveBitcoinAddress(seed []byte, net types.Network, index uint32) (string, error) {
	key, err := DeriveBitcoinKey(seed, net, index)
	if err != nil {
		return "", err
	}
	return P2WPKHAddress(key.PublicKeyBytes(), net)
}

// P2WPKHAddress encodes a compressed public key as a witness v0 address:
// bech32(hrp, 0, HASH160(pubkey)).
func P2WPKHAddress(pubKey []byte, net types.Network) (string, error) {
	if len(pubKey) != 33 {
		return "", fmt.Errorf("%w: compressed public key must be 33 bytes, got %d", ErrInvalidKey, len(pubKey))
	}
	addr, err := types.EncodeSegwitAddress(net.HRP(), 0, crypto.Hash160(pubKey))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDerivation, err)
	}
	return addr, nil
}
