package storage

import (
	"context"

	"ata-reclaim/internal/domain"
)

// MintRecordStore provides access to mint_records storage.
// Records are created pending and move to success or failed exactly once.
type MintRecordStore interface {
	// Insert adds a new pending record. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.MintRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.MintRecord, error)

	// GetLatestByWallet retrieves the most recently created record for a wallet.
	// Returns ErrNotFound if the wallet has no records.
	GetLatestByWallet(ctx context.Context, wallet string) (*domain.MintRecord, error)

	// GetSuccessByWallet retrieves the wallet's success record. Returns ErrNotFound if none.
	GetSuccessByWallet(ctx context.Context, wallet string) (*domain.MintRecord, error)

	// MarkSuccess moves a pending record to success with its mint and signature.
	// Returns ErrDuplicateClaim if the wallet already has a success record,
	// ErrInvalidTransition if the record is not pending, ErrNotFound if missing.
	MarkSuccess(ctx context.Context, id, mintAddress, signature string) error

	// MarkFailed moves a pending record to failed with an error message.
	// Returns ErrInvalidTransition if the record is not pending, ErrNotFound if missing.
	MarkFailed(ctx context.Context, id, errorMessage string) error
}

// ClaimEventStore provides access to claim_events storage (append-only).
type ClaimEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, e *domain.ClaimEvent) error

	// GetByWallet retrieves all events for a wallet, ordered by timestamp ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.ClaimEvent, error)

	// CountByKind returns the number of events of kind with the given outcome
	// within [start, end] (inclusive, ms).
	CountByKind(ctx context.Context, kind domain.ClaimEventKind, outcome string, start, end int64) (int64, error)
}
