// Package mintguard admits at most one reward mint per wallet.
package mintguard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ata-reclaim/internal/apperr"
	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/logger"
	"ata-reclaim/internal/storage"
)

// Admission is the guard's decision for one mint request.
type Admission struct {
	AlreadyMinted bool
	// MintAddress is the previously issued reward when AlreadyMinted.
	MintAddress string
	// RecordID is the pending record to update when not AlreadyMinted.
	RecordID string
}

// Guard checks and records mint attempts in a MintRecordStore.
type Guard struct {
	store storage.MintRecordStore
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// New creates a Guard over store.
func New(store storage.MintRecordStore, log *zap.Logger) *Guard {
	return &Guard{
		store: store,
		log:   logger.OrNop(log),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// AdmitOrReject reports an existing success for wallet, or inserts a pending
// record carrying reclaimSignature and returns its id.
// The lookup and insert are not atomic; a concurrent winner is caught by
// the store when the pending record is marked success.
func (g *Guard) AdmitOrReject(ctx context.Context, wallet domain.WalletAddress, reclaimSignature string) (*Admission, error) {
	existing, err := g.Existing(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := g.now().UnixMilli()
	record := &domain.MintRecord{
		ID:            g.newID(),
		WalletAddress: wallet.String(),
		Status:        domain.MintStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if reclaimSignature != "" {
		record.ReclaimSignature = &reclaimSignature
	}

	if err := g.store.Insert(ctx, record); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "could not record mint attempt", err)
	}

	g.log.Debug("mint admitted", zap.String("wallet", wallet.String()), zap.String("record_id", record.ID))
	return &Admission{RecordID: record.ID}, nil
}

// Existing returns an AlreadyMinted admission if wallet holds a success
// record, or nil if it does not.
func (g *Guard) Existing(ctx context.Context, wallet domain.WalletAddress) (*Admission, error) {
	rec, err := g.store.GetSuccessByWallet(ctx, wallet.String())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "could not read mint records", err)
	}

	admission := &Admission{AlreadyMinted: true}
	if rec.MintAddress != nil {
		admission.MintAddress = *rec.MintAddress
	}
	return admission, nil
}
