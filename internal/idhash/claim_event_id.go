package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"ata-reclaim/internal/domain"
)

// ComputeClaimEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(kind|wallet|signature|outcome|timestamp_ms)
// Returns hex-encoded hash (64 characters). Re-recording the same step yields
// the same id, which the ReplacingMergeTree collapses.
func ComputeClaimEventID(
	kind domain.ClaimEventKind,
	wallet string,
	signature string,
	outcome string,
	timestampMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		string(kind),
		wallet,
		signature,
		outcome,
		timestampMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
