package solana

import (
	"context"

	solanago "github.com/gagliardetto/solana-go"
)

// RPCClient defines the Solana RPC HTTP methods this service uses.
type RPCClient interface {
	// GetTokenAccountsByOwner lists token accounts owned by owner under programID.
	GetTokenAccountsByOwner(ctx context.Context, owner, programID PublicKey) ([]TokenAccount, error)

	// GetTransaction retrieves a confirmed transaction by signature. Returns nil if not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetMultipleAccounts fetches accounts in request order; missing accounts are nil.
	GetMultipleAccounts(ctx context.Context, pubkeys []PublicKey) ([]*AccountInfo, error)

	// GetLatestBlockhash returns a blockhash usable for new transactions.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	// SendTransaction submits a signed transaction and returns its signature.
	SendTransaction(ctx context.Context, tx *solanago.Transaction) (string, error)

	// GetSignatureStatuses looks up the status of each signature; unknown ones are nil.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for size bytes.
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// FeePayer returns the first account key, which pays the transaction fee.
func (t *Transaction) FeePayer() string {
	if t == nil || t.Message == nil || len(t.Message.AccountKeys) == 0 {
		return ""
	}
	return t.Message.AccountKeys[0]
}

// Succeeded reports whether the transaction executed without error.
func (t *Transaction) Succeeded() bool {
	return t != nil && (t.Meta == nil || t.Meta.Err == nil)
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	Fee         uint64
	LogMessages []string
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}
