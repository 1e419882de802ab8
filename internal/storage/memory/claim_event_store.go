package memory

import (
	"context"
	"sort"
	"sync"

	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/storage"
)

// ClaimEventStore is an in-memory implementation of storage.ClaimEventStore.
type ClaimEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ClaimEvent // keyed by event_id
}

// NewClaimEventStore creates a new in-memory claim event store.
func NewClaimEventStore() *ClaimEventStore {
	return &ClaimEventStore{
		data: make(map[string]*domain.ClaimEvent),
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *ClaimEventStore) Insert(_ context.Context, e *domain.ClaimEvent) error {
	if e == nil || e.EventID == "" || e.Kind == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.data[e.EventID] = &eventCopy
	return nil
}

// GetByWallet retrieves all events for a wallet, ordered by timestamp ASC.
func (s *ClaimEventStore) GetByWallet(_ context.Context, wallet string) ([]*domain.ClaimEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ClaimEvent
	for _, e := range s.data {
		if e.WalletAddress == wallet {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	// Sort by timestamp ASC, event_id for stability
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].EventID < result[j].EventID
	})

	return result, nil
}

// CountByKind counts events of kind with outcome within [start, end].
func (s *ClaimEventStore) CountByKind(_ context.Context, kind domain.ClaimEventKind, outcome string, start, end int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.data {
		if e.Kind == kind && e.Outcome == outcome && e.Timestamp >= start && e.Timestamp <= end {
			n++
		}
	}
	return n, nil
}

// Verify interface compliance at compile time.
var _ storage.ClaimEventStore = (*ClaimEventStore)(nil)
