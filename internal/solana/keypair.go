package solana

import (
	"bytes"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

// Keypair is an ed25519 account key in the 64-byte (seed || public key) layout
// the Solana CLI writes to disk.
type Keypair = solanago.PrivateKey

// Signature is a 64-byte ed25519 transaction or message signature.
type Signature = solanago.Signature

// NewKeypair generates a fresh random keypair.
func NewKeypair() (Keypair, error) {
	kp, err := solanago.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return kp, nil
}

// ParseKeypair accepts either the Solana CLI JSON byte-array format or a base58 secret key.
func ParseKeypair(data []byte) (Keypair, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		kp, err := solanago.PrivateKeyFromSolanaKeygenFileBytes(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parse keypair: %w", err)
		}
		return kp, nil
	}
	kp, err := solanago.PrivateKeyFromBase58(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("keypair is neither a JSON byte array nor base58: %w", err)
	}
	return kp, nil
}

// LoadKeypairFile reads a keypair from disk.
func LoadKeypairFile(path string) (Keypair, error) {
	kp, err := solanago.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair file: %w", err)
	}
	return kp, nil
}

// ParseSignature decodes a base58 signature.
func ParseSignature(s string) (Signature, error) {
	return solanago.SignatureFromBase58(s)
}

// VerifySignature checks an ed25519 signature made by pub over message.
func VerifySignature(pub PublicKey, message []byte, signature Signature) bool {
	return signature.Verify(pub, message)
}
