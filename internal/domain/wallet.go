package domain

import (
	"errors"
	"strings"

	"ata-reclaim/internal/solana"
)

// ErrInvalidWallet is returned when a string is not a valid wallet address.
var ErrInvalidWallet = errors.New("invalid wallet address")

// WalletAddress is a validated base58 Solana public key.
type WalletAddress struct {
	key solana.PublicKey
}

// ParseWalletAddress validates s as a 32-byte base58 public key.
func ParseWalletAddress(s string) (WalletAddress, error) {
	pk, err := solana.ParsePublicKey(strings.TrimSpace(s))
	if err != nil {
		return WalletAddress{}, ErrInvalidWallet
	}
	return WalletAddress{key: pk}, nil
}

// WalletFromPublicKey wraps an already validated key.
func WalletFromPublicKey(pk solana.PublicKey) WalletAddress {
	return WalletAddress{key: pk}
}

// PublicKey returns the underlying key.
func (w WalletAddress) PublicKey() solana.PublicKey {
	return w.key
}

// String returns the canonical base58 form.
func (w WalletAddress) String() string {
	return w.key.String()
}

// IsZero reports whether w was never set.
func (w WalletAddress) IsZero() bool {
	return w.key.IsZero()
}
