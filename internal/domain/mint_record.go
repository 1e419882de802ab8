package domain

// MintStatus is the lifecycle state of a reward mint attempt.
type MintStatus string

const (
	MintStatusPending MintStatus = "pending"
	MintStatusSuccess MintStatus = "success"
	MintStatusFailed  MintStatus = "failed"
)

// Valid reports whether s is a known status.
func (s MintStatus) Valid() bool {
	switch s {
	case MintStatusPending, MintStatusSuccess, MintStatusFailed:
		return true
	}
	return false
}

// MintRecord tracks one reward mint attempt for a wallet.
// Corresponds to mint_records table in PostgreSQL.
type MintRecord struct {
	ID               string     // PRIMARY KEY, UUID
	WalletAddress    string     // claimant wallet
	MintAddress      *string    // issued reward mint (set on success)
	Signature        *string    // mint transaction signature (set on success)
	ReclaimSignature *string    // reclaim transaction presented as proof
	Status           MintStatus // pending | success | failed
	ErrorMessage     *string    // failure cause (set on failed)
	CreatedAt        int64      // record creation timestamp (ms)
	UpdatedAt        int64      // last status change (ms)
}
