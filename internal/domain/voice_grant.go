package domain

import "time"

// VoiceGrantTTL is how long a room access grant remains valid.
const VoiceGrantTTL = 10 * time.Minute

// VoiceGrant is a signed room access token. Never persisted.
type VoiceGrant struct {
	Token     string // signed access token
	URL       string // media server URL
	Room      string // room the token admits to
	Identity  string // wallet address the token is bound to
	ExpiresAt int64  // Unix timestamp in seconds
}
