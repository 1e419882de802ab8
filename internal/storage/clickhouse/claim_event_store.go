package clickhouse

import (
	"context"
	"fmt"
	"time"

	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/observability"
	"ata-reclaim/internal/storage"
)

// ClaimEventStore implements storage.ClaimEventStore using ClickHouse.
type ClaimEventStore struct {
	conn *Conn
}

// NewClaimEventStore creates a new ClaimEventStore.
func NewClaimEventStore(conn *Conn) *ClaimEventStore {
	return &ClaimEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ClaimEventStore = (*ClaimEventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *ClaimEventStore) Insert(ctx context.Context, e *domain.ClaimEvent) (err error) {
	if e == nil || e.EventID == "" || e.Kind == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "claim_events_insert", time.Since(start).Seconds(), err)
	}()

	// ReplacingMergeTree would collapse a duplicate silently; keep append-only semantics.
	exists, err := s.exists(ctx, e.EventID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO claim_events (
			event_id, kind, wallet_address, outcome, signature,
			accounts, lamports, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		e.EventID, string(e.Kind), e.WalletAddress, e.Outcome, e.Signature,
		uint32(e.Accounts), e.Lamports, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert claim event: %w", err)
	}
	return nil
}

// GetByWallet retrieves all events for a wallet, ordered by timestamp ASC.
func (s *ClaimEventStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.ClaimEvent, error) {
	query := `
		SELECT
			event_id, kind, wallet_address, outcome, signature,
			accounts, lamports, timestamp
		FROM claim_events FINAL
		WHERE wallet_address = ?
		ORDER BY timestamp ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	return scanClaimEvents(rows)
}

// CountByKind counts events of kind with outcome within [start, end].
func (s *ClaimEventStore) CountByKind(ctx context.Context, kind domain.ClaimEventKind, outcome string, start, end int64) (int64, error) {
	query := `
		SELECT count(*) FROM claim_events FINAL
		WHERE kind = ? AND outcome = ? AND timestamp >= ? AND timestamp <= ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, string(kind), outcome, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by kind: %w", err)
	}
	return int64(count), nil
}

func (s *ClaimEventStore) exists(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT count(*) FROM claim_events WHERE event_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, eventID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanClaimEvents(rows chRows) ([]*domain.ClaimEvent, error) {
	var events []*domain.ClaimEvent

	for rows.Next() {
		var (
			e        domain.ClaimEvent
			kind     string
			accounts uint32
		)
		err := rows.Scan(
			&e.EventID, &kind, &e.WalletAddress, &e.Outcome, &e.Signature,
			&accounts, &e.Lamports, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan claim event row: %w", err)
		}
		e.Kind = domain.ClaimEventKind(kind)
		e.Accounts = int(accounts)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim event rows: %w", err)
	}

	return events, nil
}
