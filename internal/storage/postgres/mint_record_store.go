package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/observability"
	"ata-reclaim/internal/storage"
)

// uniqueSuccessIndex is the partial unique index allowing one success row per wallet.
const uniqueSuccessIndex = "uq_mint_records_wallet_success"

const mintRecordColumns = `
	id, wallet_address, mint_address, signature, reclaim_signature,
	status, error_message, created_at, updated_at
`

// MintRecordStore implements storage.MintRecordStore using PostgreSQL.
type MintRecordStore struct {
	pool *Pool
	now  func() time.Time
}

// NewMintRecordStore creates a new MintRecordStore.
func NewMintRecordStore(pool *Pool) *MintRecordStore {
	return &MintRecordStore{pool: pool, now: time.Now}
}

// Compile-time interface check.
var _ storage.MintRecordStore = (*MintRecordStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *MintRecordStore) Insert(ctx context.Context, r *domain.MintRecord) (err error) {
	if r == nil || r.ID == "" || r.WalletAddress == "" || !r.Status.Valid() {
		return storage.ErrInvalidInput
	}
	defer s.observe("insert", time.Now(), &err)

	query := `
		INSERT INTO mint_records (` + mintRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.WalletAddress, r.MintAddress, r.Signature, r.ReclaimSignature,
		string(r.Status), r.ErrorMessage, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if serr := storageError(err); serr != nil {
			return serr
		}
		return fmt.Errorf("insert mint record: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *MintRecordStore) GetByID(ctx context.Context, id string) (*domain.MintRecord, error) {
	query := `SELECT ` + mintRecordColumns + ` FROM mint_records WHERE id = $1`
	return s.getOne(ctx, "get_by_id", query, id)
}

// GetLatestByWallet retrieves the most recently created record for a wallet.
func (s *MintRecordStore) GetLatestByWallet(ctx context.Context, wallet string) (*domain.MintRecord, error) {
	query := `
		SELECT ` + mintRecordColumns + `
		FROM mint_records
		WHERE wallet_address = $1
		ORDER BY created_at DESC, updated_at DESC
		LIMIT 1
	`
	return s.getOne(ctx, "get_latest_by_wallet", query, wallet)
}

// GetSuccessByWallet retrieves the wallet's success record.
func (s *MintRecordStore) GetSuccessByWallet(ctx context.Context, wallet string) (*domain.MintRecord, error) {
	query := `
		SELECT ` + mintRecordColumns + `
		FROM mint_records
		WHERE wallet_address = $1 AND status = 'success'
	`
	return s.getOne(ctx, "get_success_by_wallet", query, wallet)
}

// MarkSuccess moves a pending record to success. The partial unique index
// rejects a second success row for the same wallet.
func (s *MintRecordStore) MarkSuccess(ctx context.Context, id, mintAddress, signature string) (err error) {
	defer s.observe("mark_success", time.Now(), &err)

	query := `
		UPDATE mint_records
		SET status = 'success', mint_address = $2, signature = $3, updated_at = $4
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := s.pool.Exec(ctx, query, id, mintAddress, signature, s.now().UnixMilli())
	if err != nil {
		if errors.Is(storageError(err), storage.ErrDuplicateClaim) {
			return storage.ErrDuplicateClaim
		}
		return fmt.Errorf("mark mint record success: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionMiss(ctx, id)
	}
	return nil
}

// MarkFailed moves a pending record to failed.
func (s *MintRecordStore) MarkFailed(ctx context.Context, id, errorMessage string) (err error) {
	defer s.observe("mark_failed", time.Now(), &err)

	query := `
		UPDATE mint_records
		SET status = 'failed', error_message = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := s.pool.Exec(ctx, query, id, errorMessage, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("mark mint record failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionMiss(ctx, id)
	}
	return nil
}

// transitionMiss tells a missing record from one that already left pending.
func (s *MintRecordStore) transitionMiss(ctx context.Context, id string) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM mint_records WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check mint record exists: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrInvalidTransition
}

func (s *MintRecordStore) getOne(ctx context.Context, op, query string, arg string) (r *domain.MintRecord, err error) {
	defer s.observe(op, time.Now(), &err)

	r, err = scanMintRecord(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(storageError(err), storage.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%s mint record: %w", op, err)
	}
	return r, nil
}

func (s *MintRecordStore) observe(op string, start time.Time, errp *error) {
	err := *errp
	// Expected outcomes are not query errors.
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDuplicateClaim) ||
		errors.Is(err, storage.ErrInvalidTransition) {
		err = nil
	}
	observability.RecordDBQuery("postgres", "mint_records_"+op, time.Since(start).Seconds(), err)
}

func scanMintRecord(row pgx.Row) (*domain.MintRecord, error) {
	var (
		r      domain.MintRecord
		status string
	)
	err := row.Scan(
		&r.ID, &r.WalletAddress, &r.MintAddress, &r.Signature, &r.ReclaimSignature,
		&status, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = domain.MintStatus(status)
	return &r, nil
}
