package solana

import (
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

// MaxTransactionLen is the legacy packet limit for a serialized transaction.
const MaxTransactionLen = 1232

var (
	// ErrMissingSigner is returned when a required signer was not supplied.
	ErrMissingSigner = errors.New("missing signer for required signature")

	// ErrTransactionTooLarge is returned when a serialized transaction exceeds the packet limit.
	ErrTransactionTooLarge = errors.New("transaction exceeds maximum size")
)

// Hash is a 32-byte blockhash.
type Hash = solanago.Hash

// Instruction is a single program invocation.
type Instruction = solanago.Instruction

// ParseHash decodes a base58 blockhash.
func ParseHash(s string) (Hash, error) {
	h, err := solanago.HashFromBase58(s)
	if err != nil {
		return Hash{}, fmt.Errorf("decode blockhash: %w", err)
	}
	return h, nil
}

// BuildTransaction compiles instructions into a legacy message paid for by feePayer
// and signs it with every required key in signers.
func BuildTransaction(feePayer PublicKey, blockhash Hash, instructions []Instruction, signers ...Keypair) (*solanago.Transaction, error) {
	if len(instructions) == 0 {
		return nil, errors.New("transaction has no instructions")
	}
	tx, err := solanago.NewTransaction(instructions, blockhash, solanago.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("compile transaction: %w", err)
	}

	byKey := make(map[PublicKey]Keypair, len(signers))
	for _, kp := range signers {
		byKey[kp.PublicKey()] = kp
	}
	for _, pk := range tx.Message.Signers() {
		if _, ok := byKey[pk]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSigner, pk)
		}
	}
	if _, err := tx.Sign(func(pk PublicKey) *solanago.PrivateKey {
		kp, ok := byKey[pk]
		if !ok {
			return nil
		}
		return &kp
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

// EncodeTransaction serializes tx in wire format, rejecting oversized transactions.
func EncodeTransaction(tx *solanago.Transaction) ([]byte, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	if len(raw) > MaxTransactionLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTransactionTooLarge, len(raw))
	}
	return raw, nil
}

// TransactionID returns the fee payer's signature in base58, which is the transaction id.
func TransactionID(tx *solanago.Transaction) string {
	if len(tx.Signatures) == 0 {
		return ""
	}
	return tx.Signatures[0].String()
}

// IsValidSignature reports whether s is a base58 encoded 64-byte signature.
func IsValidSignature(s string) bool {
	_, err := solanago.SignatureFromBase58(s)
	return err == nil
}
