package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/storage"
)

const testWallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func pendingRecord(id string, createdAt int64) *domain.MintRecord {
	return &domain.MintRecord{
		ID:            id,
		WalletAddress: testWallet,
		Status:        domain.MintStatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestMintRecordStore_InsertAndGet(t *testing.T) {
	store := NewMintRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, pendingRecord("r1", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.WalletAddress != testWallet {
		t.Errorf("WalletAddress mismatch: got %s", got.WalletAddress)
	}
	if got.Status != domain.MintStatusPending {
		t.Errorf("Status mismatch: got %s", got.Status)
	}

	// Mutating the returned copy must not change the store.
	got.Status = domain.MintStatusFailed
	again, _ := store.GetByID(ctx, "r1")
	if again.Status != domain.MintStatusPending {
		t.Error("store returned a shared record")
	}
}

func TestMintRecordStore_InvalidInput(t *testing.T) {
	store := NewMintRecordStore()
	ctx := context.Background()

	cases := []*domain.MintRecord{
		nil,
		{WalletAddress: testWallet, Status: domain.MintStatusPending},
		{ID: "x", Status: domain.MintStatusPending},
		{ID: "x", WalletAddress: testWallet, Status: "minted"},
	}
	for i, r := range cases {
		if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestMintRecordStore_DuplicateKey(t *testing.T) {
	store := NewMintRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, pendingRecord("r1", 1000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, pendingRecord("r1", 2000)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestMintRecordStore_NotFound(t *testing.T) {
	store := NewMintRecordStore()
	ctx := context.Background()

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetLatestByWallet(ctx, testWallet); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetLatestByWallet: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetSuccessByWallet(ctx, testWallet); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSuccessByWallet: expected ErrNotFound, got %v", err)
	}
	if err := store.MarkSuccess(ctx, "missing", "mint", "sig"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("MarkSuccess: expected ErrNotFound, got %v", err)
	}
	if err := store.MarkFailed(ctx, "missing", "boom"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("MarkFailed: expected ErrNotFound, got %v", err)
	}
}

func TestMintRecordStore_GetLatestByWallet(t *testing.T) {
	store := NewMintRecordStore()
	ctx := context.Background()

	_ = store.Insert(ctx, pendingRecord("old", 1000))
	_ = store.Insert(ctx, pendingRecord("new", 3000))
	_ = store.Insert(ctx, pendingRecord("mid", 2000))

	got, err := store.GetLatestByWallet(ctx, testWallet)
	if err != nil {
		t.Fatalf("GetLatestByWallet failed: %v", err)
	}
	if got.ID != "new" {
		t.Errorf("expected latest record 'new', got %s", got.ID)
	}
}

func TestMintRecordStore_MarkSuccess(t *testing.T) {
	store := NewMintRecordStore()
	ctx := context.Background()

	_ = store.Insert(ctx, pendingRecord("r1", 1000))
	if err := store.MarkSuccess(ctx, "r1", "mintAddr", "mintSig"); err != nil {
		t.Fatalf("MarkSuccess failed: %v", err)
	}

	got, err := store.GetSuccessByWallet(ctx, testWallet)
	if err != nil {
		t.Fatalf("GetSuccessByWallet failed: %v", err)
	}
	if got.ID != "r1" {
		t.Errorf("expected r1, got %s", got.ID)
	}
	if got.MintAddress == nil || *got.MintAddress != "mintAddr" {
		t.Errorf("MintAddress not set: %v", got.MintAddress)
	}
	if got.Signature == nil || *got.Signature != "mintSig" {
		t.Errorf("Signature not set: %v", got.Signature)
	}
	if got.UpdatedAt <= got.CreatedAt {
		t.Errorf("UpdatedAt not advanced: %d", got.UpdatedAt)
	}

	// Terminal states do not move again.
	if err := store.MarkSuccess(ctx, "r1", "other", "other"); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if err := store.MarkFailed(ctx, "r1", "late"); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMintRecordStore_SecondSuccessRejected(t *testing.T) {
	store := NewMintRecordStore()
	ctx := context.Background()

	_ = store.Insert(ctx, pendingRecord("a", 1000))
	_ = store.Insert(ctx, pendingRecord("b", 1001))

	if err := store.MarkSuccess(ctx, "a", "mintA", "sigA"); err != nil {
		t.Fatalf("MarkSuccess a failed: %v", err)
	}
	if err := store.MarkSuccess(ctx, "b", "mintB", "sigB"); !errors.Is(err, storage.ErrDuplicateClaim) {
		t.Fatalf("expected ErrDuplicateClaim, got %v", err)
	}

	b, _ := store.GetByID(ctx, "b")
	if b.Status != domain.MintStatusPending {
		t.Errorf("losing record should stay pending, got %s", b.Status)
	}
}

func TestMintRecordStore_MarkFailed(t *testing.T) {
	store := NewMintRecordStore()
	ctx := context.Background()

	_ = store.Insert(ctx, pendingRecord("r1", 1000))
	if err := store.MarkFailed(ctx, "r1", "rpc timeout"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "r1")
	if got.Status != domain.MintStatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "rpc timeout" {
		t.Errorf("ErrorMessage not set: %v", got.ErrorMessage)
	}

	// A failed attempt does not block a later success.
	_ = store.Insert(ctx, pendingRecord("r2", 2000))
	if err := store.MarkSuccess(ctx, "r2", "mint", "sig"); err != nil {
		t.Errorf("MarkSuccess after failure: %v", err)
	}
}

func TestMintRecordStore_ConcurrentMarkSuccess(t *testing.T) {
	store := NewMintRecordStore()
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		_ = store.Insert(ctx, pendingRecord(string(rune('a'+i)), int64(1000+i)))
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := store.MarkSuccess(ctx, id, "mint-"+id, "sig-"+id); err == nil {
				wins.Add(1)
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly one success, got %d", wins.Load())
	}
}
