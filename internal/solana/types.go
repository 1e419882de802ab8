package solana

// Commitment levels accepted by the RPC.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// TokenAccount is a parsed SPL token account returned by getTokenAccountsByOwner.
type TokenAccount struct {
	Address  string
	Mint     string
	Owner    string
	Amount   string // raw base units, decimal string
	Decimals uint8
	State    string // "initialized" | "frozen"
	Lamports uint64
}

// IsFrozen reports whether the account is frozen.
func (a TokenAccount) IsFrozen() bool {
	return a.State == "frozen"
}

// Blockhash is a recent blockhash with its expiry height.
type Blockhash struct {
	Hash                 Hash
	LastValidBlockHeight uint64
}

// SignatureStatus from getSignatureStatuses. A nil entry means the signature is unknown.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *uint64
	Err                interface{}
	ConfirmationStatus string
}

// IsConfirmed reports whether the status reached at least confirmed commitment.
func (s *SignatureStatus) IsConfirmed() bool {
	if s == nil {
		return false
	}
	return s.ConfirmationStatus == CommitmentConfirmed || s.ConfirmationStatus == CommitmentFinalized
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte
	Executable bool
	RentEpoch  uint64
}
