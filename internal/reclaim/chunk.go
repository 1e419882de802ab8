package reclaim

import "ata-reclaim/internal/domain"

// ChunkSize is the number of CloseAccount instructions per transaction.
const ChunkSize = 6

// ChunkState is the lifecycle state of one chunk.
type ChunkState string

const (
	ChunkPending   ChunkState = "pending"
	ChunkSubmitted ChunkState = "submitted"
	ChunkConfirmed ChunkState = "confirmed"
	ChunkFailed    ChunkState = "failed"
)

// Chunk is a group of accounts closed by a single transaction.
type Chunk struct {
	Index     int
	Accounts  []domain.TokenAccount
	State     ChunkState
	Signature string // set once submitted
	Err       error  // set when failed
}

// Split groups accounts into chunks of size, preserving order.
func Split(accounts []domain.TokenAccount, size int) []*Chunk {
	if size <= 0 {
		size = ChunkSize
	}
	chunks := make([]*Chunk, 0, (len(accounts)+size-1)/size)
	for start := 0; start < len(accounts); start += size {
		end := start + size
		if end > len(accounts) {
			end = len(accounts)
		}
		chunks = append(chunks, &Chunk{
			Index:    len(chunks),
			Accounts: accounts[start:end],
			State:    ChunkPending,
		})
	}
	return chunks
}

// submitted moves a pending chunk to submitted.
func (c *Chunk) submitted(signature string) {
	if c.State == ChunkPending {
		c.State = ChunkSubmitted
		c.Signature = signature
	}
}

// confirmed moves a submitted chunk to confirmed.
func (c *Chunk) confirmed() {
	if c.State == ChunkSubmitted {
		c.State = ChunkConfirmed
	}
}

// failed moves a pending or submitted chunk to failed.
func (c *Chunk) failed(err error) {
	if c.State == ChunkPending || c.State == ChunkSubmitted {
		c.State = ChunkFailed
		c.Err = err
	}
}
