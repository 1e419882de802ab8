package stub

import (
	"context"
	"errors"
	"sync"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"ata-reclaim/internal/solana"
)

// ErrUnavailable simulates an unreachable RPC node.
var ErrUnavailable = errors.New("stub rpc unavailable")

// RPCClient implements solana.RPCClient and solana.Confirmer in memory for testing.
// Sent transactions are applied: closed token accounts disappear from their owner's
// listing, and the transaction becomes retrievable with its fee payer.
type RPCClient struct {
	mu sync.Mutex

	TokenAccounts map[string][]solana.TokenAccount
	Transactions  map[string]*solana.Transaction
	Accounts      map[solana.PublicKey]*solana.AccountInfo
	Statuses      map[string]*solana.SignatureStatus
	Sent          []*solanago.Transaction

	// Err, when set, fails every call.
	Err error
	// SendErr, when set, fails SendTransaction only.
	SendErr error
	// FailAfterSends makes the nth and later sends land with an execution error (0 disables).
	FailAfterSends int
}

var (
	_ solana.RPCClient = (*RPCClient)(nil)
	_ solana.Confirmer = (*RPCClient)(nil)
)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		TokenAccounts: make(map[string][]solana.TokenAccount),
		Transactions:  make(map[string]*solana.Transaction),
		Accounts:      make(map[solana.PublicKey]*solana.AccountInfo),
		Statuses:      make(map[string]*solana.SignatureStatus),
	}
}

// GetTokenAccountsByOwner returns the accounts registered for owner.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, _ solana.PublicKey) ([]solana.TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	accounts := c.TokenAccounts[owner.String()]
	out := make([]solana.TokenAccount, len(accounts))
	copy(out, accounts)
	return out, nil
}

// GetTransaction retrieves a transaction by signature. Returns nil if not found.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Transactions[signature], nil
}

// GetMultipleAccounts returns registered accounts in request order.
func (c *RPCClient) GetMultipleAccounts(_ context.Context, pubkeys []solana.PublicKey) ([]*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]*solana.AccountInfo, len(pubkeys))
	for i, pk := range pubkeys {
		out[i] = c.Accounts[pk]
	}
	return out, nil
}

// GetLatestBlockhash returns a fixed blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return &solana.Blockhash{Hash: solana.Hash{1}, LastValidBlockHeight: 1000}, nil
}

// SendTransaction records and applies the transaction.
func (c *RPCClient) SendTransaction(_ context.Context, tx *solanago.Transaction) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	if c.SendErr != nil {
		return "", c.SendErr
	}
	if _, err := solana.EncodeTransaction(tx); err != nil {
		return "", err
	}
	if err := tx.VerifySignatures(); err != nil {
		return "", err
	}

	c.Sent = append(c.Sent, tx)
	sig := solana.TransactionID(tx)

	keys := make([]string, len(tx.Message.AccountKeys))
	for i, k := range tx.Message.AccountKeys {
		keys[i] = k.String()
	}

	var execErr interface{}
	if c.FailAfterSends > 0 && len(c.Sent) >= c.FailAfterSends {
		execErr = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
	}

	c.Transactions[sig] = &solana.Transaction{
		Slot:      int64(len(c.Sent)),
		Signature: sig,
		Meta:      &solana.TransactionMeta{Err: execErr, Fee: 5000},
		Message:   &solana.TransactionMessage{AccountKeys: keys},
	}
	c.Statuses[sig] = &solana.SignatureStatus{
		Slot:               int64(len(c.Sent)),
		Err:                execErr,
		ConfirmationStatus: solana.CommitmentConfirmed,
	}

	if execErr == nil {
		c.applyCloses(&tx.Message)
	}
	return sig, nil
}

// applyCloses removes token accounts closed by the message.
func (c *RPCClient) applyCloses(msg *solanago.Message) {
	for _, ci := range msg.Instructions {
		program, err := msg.Program(ci.ProgramIDIndex)
		if err != nil || program != solana.TokenProgramID {
			continue
		}
		accounts, err := ci.ResolveInstructionAccounts(msg)
		if err != nil {
			continue
		}
		decoded, err := token.DecodeInstruction(accounts, ci.Data)
		if err != nil {
			continue
		}
		closeIx, ok := decoded.Impl.(*token.CloseAccount)
		if !ok {
			continue
		}
		closed := closeIx.GetAccount().PublicKey.String()
		owner := closeIx.GetOwnerAccount().PublicKey.String()

		listed := c.TokenAccounts[owner]
		kept := listed[:0]
		for _, a := range listed {
			if a.Address != closed {
				kept = append(kept, a)
			}
		}
		c.TokenAccounts[owner] = kept
	}
}

// GetSignatureStatuses looks up recorded statuses.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		out[i] = c.Statuses[sig]
	}
	return out, nil
}

// GetMinimumBalanceForRentExemption returns the standard rent schedule for the sizes used here.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, size uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	// (128 + size) * 3480 * 2
	return (128 + size) * 6960, nil
}

// Confirm resolves immediately from the recorded status.
func (c *RPCClient) Confirm(_ context.Context, signature string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.Statuses[signature]
	if !ok {
		return solana.ErrConfirmationTimeout
	}
	if status.Err != nil {
		return solana.ErrTransactionFailed
	}
	return nil
}

// AddTokenAccount registers a token account under its owner.
func (c *RPCClient) AddTokenAccount(acct solana.TokenAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenAccounts[acct.Owner] = append(c.TokenAccounts[acct.Owner], acct)
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

// AddAccount registers raw account data.
func (c *RPCClient) AddAccount(pk solana.PublicKey, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pk] = info
}

// AddMetadata registers a metadata account for mint that belongs to collection.
func (c *RPCClient) AddMetadata(mint, collection solana.PublicKey, verified bool) error {
	addr, err := solana.FindMetadataAddress(mint)
	if err != nil {
		return err
	}
	m := &solana.Metadata{
		Mint:       mint,
		Name:       "stub",
		Collection: &solana.Collection{Verified: verified, Key: collection},
	}
	data, err := m.Encode()
	if err != nil {
		return err
	}
	c.AddAccount(addr, &solana.AccountInfo{
		Lamports: 5_616_720,
		Owner:    solana.TokenMetadataProgramID.String(),
		Data:     data,
	})
	return nil
}

// SentCount returns how many transactions were submitted.
func (c *RPCClient) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

// SetErr sets or clears the global failure.
func (c *RPCClient) SetErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Err = err
}
