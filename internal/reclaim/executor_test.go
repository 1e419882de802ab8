package reclaim

import (
	"context"
	"errors"
	"testing"

	"ata-reclaim/internal/apperr"
	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/scanner"
	"ata-reclaim/internal/solana"
	"ata-reclaim/internal/solana/stub"
)

// fundWallet registers n empty canonical accounts for owner and returns them as scanned.
func fundWallet(t *testing.T, rpc *stub.RPCClient, owner solana.PublicKey, n int) []domain.TokenAccount {
	t.Helper()
	for i := 0; i < n; i++ {
		mint, err := solana.NewKeypair()
		if err != nil {
			t.Fatalf("NewKeypair: %v", err)
		}
		ata, err := solana.FindAssociatedTokenAddress(owner, mint.PublicKey())
		if err != nil {
			t.Fatalf("FindAssociatedTokenAddress: %v", err)
		}
		rpc.AddTokenAccount(solana.TokenAccount{
			Address: ata.String(),
			Mint:    mint.PublicKey().String(),
			Owner:   owner.String(),
			Amount:  "0",
			State:   "initialized",
		})
	}
	result, err := scanner.New(rpc, nil).ScanWallet(context.Background(), domain.WalletFromPublicKey(owner))
	if err != nil {
		t.Fatalf("ScanWallet: %v", err)
	}
	return result.Empty
}

func newWallet(t *testing.T) (solana.Keypair, domain.WalletAddress) {
	t.Helper()
	kp, err := solana.NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	return kp, domain.WalletFromPublicKey(kp.PublicKey())
}

func newExecutor(rpc *stub.RPCClient, confirmer solana.Confirmer) *Executor {
	return NewExecutor(DefaultExecutorConfig(), rpc, confirmer, scanner.New(rpc, nil), nil)
}

func TestSplit_PreservesOrder(t *testing.T) {
	accounts := make([]domain.TokenAccount, 13)
	for i := range accounts {
		accounts[i].Address = string(rune('a' + i))
	}

	chunks := Split(accounts, ChunkSize)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	sizes := []int{6, 6, 1}
	next := 0
	for i, c := range chunks {
		if len(c.Accounts) != sizes[i] {
			t.Errorf("chunk %d: expected %d accounts, got %d", i, sizes[i], len(c.Accounts))
		}
		if c.State != ChunkPending {
			t.Errorf("chunk %d: expected pending, got %s", i, c.State)
		}
		for _, a := range c.Accounts {
			if a.Address != accounts[next].Address {
				t.Errorf("order broken at %d", next)
			}
			next++
		}
	}

	if got := Split(nil, ChunkSize); len(got) != 0 {
		t.Errorf("expected no chunks, got %d", len(got))
	}
}

func TestChunk_Transitions(t *testing.T) {
	c := &Chunk{State: ChunkPending}
	c.confirmed()
	if c.State != ChunkPending {
		t.Fatalf("pending chunk must not jump to confirmed, got %s", c.State)
	}
	c.submitted("sig")
	c.confirmed()
	if c.State != ChunkConfirmed || c.Signature != "sig" {
		t.Fatalf("unexpected chunk %+v", c)
	}
	c.failed(errors.New("late"))
	if c.State != ChunkConfirmed {
		t.Errorf("confirmed chunk must stay confirmed, got %s", c.State)
	}
}

func TestReclaim_AllChunksConfirmed(t *testing.T) {
	rpc := stub.NewRPCClient()
	kp, wallet := newWallet(t)
	accounts := fundWallet(t, rpc, kp.PublicKey(), 13)

	outcome, err := newExecutor(rpc, rpc).Reclaim(context.Background(), kp, wallet, accounts)
	if err != nil {
		t.Fatalf("Reclaim: %v", err)
	}
	if !outcome.Completed() {
		t.Fatalf("expected completed outcome, got %+v", outcome)
	}
	if outcome.Confirmed != 3 || len(outcome.Signatures) != 3 {
		t.Errorf("expected 3 confirmed chunks, got %d (%d signatures)", outcome.Confirmed, len(outcome.Signatures))
	}
	if rpc.SentCount() != 3 {
		t.Errorf("expected 3 transactions, got %d", rpc.SentCount())
	}

	// One close per account, fee payer is the wallet.
	for i, tx := range rpc.Sent {
		if tx.Message.AccountKeys[0] != kp.PublicKey() {
			t.Errorf("tx %d: fee payer is %s", i, tx.Message.AccountKeys[0])
		}
		if want := len(outcome.Chunks[i].Accounts); len(tx.Message.Instructions) != want {
			t.Errorf("tx %d: expected %d instructions, got %d", i, want, len(tx.Message.Instructions))
		}
	}

	if outcome.RefreshErr != nil {
		t.Fatalf("refresh scan: %v", outcome.RefreshErr)
	}
	if outcome.Refreshed.TotalATAs() != 0 {
		t.Errorf("expected no accounts after reclaim, got %d", outcome.Refreshed.TotalATAs())
	}
	if outcome.LastSignature() != outcome.Signatures[2] {
		t.Errorf("LastSignature mismatch")
	}
}

func TestReclaim_AbortsOnFailedChunk(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.FailAfterSends = 2
	kp, wallet := newWallet(t)
	accounts := fundWallet(t, rpc, kp.PublicKey(), 13)

	outcome, err := newExecutor(rpc, rpc).Reclaim(context.Background(), kp, wallet, accounts)
	if !errors.Is(err, ErrChunkFailed) {
		t.Fatalf("expected ErrChunkFailed, got %v", err)
	}
	if !errors.Is(err, solana.ErrTransactionFailed) {
		t.Errorf("expected cause ErrTransactionFailed, got %v", err)
	}
	if outcome.Completed() {
		t.Fatal("outcome must not be completed")
	}
	if outcome.Confirmed != 1 {
		t.Errorf("expected 1 confirmed chunk, got %d", outcome.Confirmed)
	}
	if len(outcome.Signatures) != 2 {
		t.Errorf("expected 2 signatures, got %d", len(outcome.Signatures))
	}
	want := []ChunkState{ChunkConfirmed, ChunkFailed, ChunkPending}
	for i, c := range outcome.Chunks {
		if c.State != want[i] {
			t.Errorf("chunk %d: expected %s, got %s", i, want[i], c.State)
		}
	}
	if rpc.SentCount() != 2 {
		t.Errorf("third chunk must not be submitted, got %d sends", rpc.SentCount())
	}

	// The refresh reflects the six accounts closed by the first chunk.
	if outcome.Refreshed == nil || outcome.Refreshed.TotalATAs() != 7 {
		t.Errorf("expected 7 accounts left after partial reclaim, got %+v", outcome.Refreshed)
	}
	if outcome.LastSignature() != outcome.Signatures[0] {
		t.Errorf("LastSignature should be the confirmed chunk's")
	}
}

func TestReclaim_SendFailure(t *testing.T) {
	rpc := stub.NewRPCClient()
	kp, wallet := newWallet(t)
	accounts := fundWallet(t, rpc, kp.PublicKey(), 4)
	rpc.SendErr = stub.ErrUnavailable

	outcome, err := newExecutor(rpc, rpc).Reclaim(context.Background(), kp, wallet, accounts)
	if !apperr.Is(err, apperr.RPCUnavailable) {
		t.Fatalf("expected rpc_unavailable, got %v", err)
	}
	if len(outcome.Signatures) != 0 || outcome.Chunks[0].State != ChunkFailed {
		t.Errorf("unexpected outcome %+v", outcome)
	}
}

// orderingConfirmer checks that each confirmation happens before the next send.
type orderingConfirmer struct {
	t     *testing.T
	rpc   *stub.RPCClient
	calls int
}

func (o *orderingConfirmer) Confirm(ctx context.Context, sig string) error {
	o.calls++
	if sent := o.rpc.SentCount(); sent != o.calls {
		o.t.Errorf("confirm %d ran with %d transactions sent", o.calls, sent)
	}
	return o.rpc.Confirm(ctx, sig)
}

func TestReclaim_StrictlySequential(t *testing.T) {
	rpc := stub.NewRPCClient()
	kp, wallet := newWallet(t)
	accounts := fundWallet(t, rpc, kp.PublicKey(), 20)

	confirmer := &orderingConfirmer{t: t, rpc: rpc}
	if _, err := newExecutor(rpc, confirmer).Reclaim(context.Background(), kp, wallet, accounts); err != nil {
		t.Fatalf("Reclaim: %v", err)
	}
	if confirmer.calls != 4 {
		t.Errorf("expected 4 confirmations, got %d", confirmer.calls)
	}
}

func TestReclaim_Preconditions(t *testing.T) {
	rpc := stub.NewRPCClient()
	kp, wallet := newWallet(t)
	_, other := newWallet(t)
	accounts := fundWallet(t, rpc, kp.PublicKey(), 2)
	exec := newExecutor(rpc, rpc)

	if _, err := exec.Reclaim(context.Background(), kp, other, accounts); !apperr.Is(err, apperr.OwnershipMismatch) {
		t.Errorf("expected ownership_mismatch, got %v", err)
	}
	if _, err := exec.Reclaim(context.Background(), kp, wallet, nil); !apperr.Is(err, apperr.NoAccounts) {
		t.Errorf("expected no_accounts, got %v", err)
	}
	if rpc.SentCount() != 0 {
		t.Errorf("nothing should be sent, got %d", rpc.SentCount())
	}
}
