package memory

import (
	"context"
	"sync"
	"time"

	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/storage"
)

// MintRecordStore is an in-memory implementation of storage.MintRecordStore.
type MintRecordStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.MintRecord // keyed by id
	order []string                      // insertion order, breaks created_at ties
}

// NewMintRecordStore creates a new in-memory mint record store.
func NewMintRecordStore() *MintRecordStore {
	return &MintRecordStore{
		data: make(map[string]*domain.MintRecord),
	}
}

// Insert adds a new pending record. Returns ErrDuplicateKey if id exists.
func (s *MintRecordStore) Insert(_ context.Context, r *domain.MintRecord) error {
	if r == nil || r.ID == "" || r.WalletAddress == "" || !r.Status.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if r.Status == domain.MintStatusSuccess && s.successLocked(r.WalletAddress) != nil {
		return storage.ErrDuplicateClaim
	}

	// Store a copy to prevent external mutation
	recordCopy := *r
	s.data[r.ID] = &recordCopy
	s.order = append(s.order, r.ID)
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *MintRecordStore) GetByID(_ context.Context, id string) (*domain.MintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// GetLatestByWallet retrieves the most recently created record for a wallet.
func (s *MintRecordStore) GetLatestByWallet(_ context.Context, wallet string) (*domain.MintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.MintRecord
	for _, id := range s.order {
		r := s.data[id]
		if r.WalletAddress != wallet {
			continue
		}
		if latest == nil || r.CreatedAt >= latest.CreatedAt {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	recordCopy := *latest
	return &recordCopy, nil
}

// GetSuccessByWallet retrieves the wallet's success record.
func (s *MintRecordStore) GetSuccessByWallet(_ context.Context, wallet string) (*domain.MintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.successLocked(wallet)
	if r == nil {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// MarkSuccess moves a pending record to success.
func (s *MintRecordStore) MarkSuccess(_ context.Context, id, mintAddress, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	if r.Status != domain.MintStatusPending {
		return storage.ErrInvalidTransition
	}
	if s.successLocked(r.WalletAddress) != nil {
		return storage.ErrDuplicateClaim
	}

	r.Status = domain.MintStatusSuccess
	r.MintAddress = &mintAddress
	r.Signature = &signature
	r.UpdatedAt = time.Now().UnixMilli()
	return nil
}

// MarkFailed moves a pending record to failed.
func (s *MintRecordStore) MarkFailed(_ context.Context, id, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	if r.Status != domain.MintStatusPending {
		return storage.ErrInvalidTransition
	}

	r.Status = domain.MintStatusFailed
	r.ErrorMessage = &errorMessage
	r.UpdatedAt = time.Now().UnixMilli()
	return nil
}

// successLocked returns the wallet's success record. Caller holds mu.
func (s *MintRecordStore) successLocked(wallet string) *domain.MintRecord {
	for _, r := range s.data {
		if r.WalletAddress == wallet && r.Status == domain.MintStatusSuccess {
			return r
		}
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.MintRecordStore = (*MintRecordStore)(nil)
