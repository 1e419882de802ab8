package domain

// ClaimEventKind identifies which workflow step produced a ClaimEvent.
type ClaimEventKind string

const (
	ClaimEventScan    ClaimEventKind = "scan"
	ClaimEventReclaim ClaimEventKind = "reclaim"
	ClaimEventMint    ClaimEventKind = "mint"
	ClaimEventGrant   ClaimEventKind = "grant"
)

// ClaimEvent is an append-only analytics row for one workflow step.
// Corresponds to claim_events table in ClickHouse.
type ClaimEvent struct {
	EventID       string         // deterministic hash, see idhash.ComputeClaimEventID
	Kind          ClaimEventKind // scan | reclaim | mint | grant
	WalletAddress string         // wallet the step acted on
	Outcome       string         // ok, already_minted, or a failure reason
	Signature     string         // related transaction signature, if any
	Accounts      int            // accounts found (scan) or closed (reclaim)
	Lamports      uint64         // reclaimable or reclaimed lamports
	Timestamp     int64          // Unix timestamp in milliseconds
}
