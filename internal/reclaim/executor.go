// Package reclaim closes empty token accounts in sequential fixed-size chunks.
package reclaim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ata-reclaim/internal/apperr"
	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/logger"
	"ata-reclaim/internal/observability"
	"ata-reclaim/internal/scanner"
	"ata-reclaim/internal/solana"
)

// ErrChunkFailed marks an outcome whose run stopped at a failed chunk.
var ErrChunkFailed = errors.New("reclaim chunk failed")

// WalletScanner refreshes a wallet's accounts after a run.
type WalletScanner interface {
	ScanWallet(ctx context.Context, w domain.WalletAddress) (*scanner.Result, error)
}

// Outcome reports a reclaim run. Chunks after a failure stay pending.
type Outcome struct {
	Wallet     domain.WalletAddress
	Chunks     []*Chunk
	Signatures []string // submitted signatures in chunk order
	Confirmed  int      // number of confirmed chunks
	Err        error    // first failure, nil when every chunk confirmed

	// Refreshed is the post-run scan. RefreshErr is set if it failed.
	Refreshed  *scanner.Result
	RefreshErr error
}

// Completed reports whether every chunk confirmed.
func (o *Outcome) Completed() bool {
	return o.Err == nil && o.Confirmed == len(o.Chunks)
}

// LastSignature returns the most recent confirmed chunk's signature.
func (o *Outcome) LastSignature() string {
	for i := len(o.Chunks) - 1; i >= 0; i-- {
		if o.Chunks[i].State == ChunkConfirmed {
			return o.Chunks[i].Signature
		}
	}
	return ""
}

// ExecutorConfig holds executor parameters.
type ExecutorConfig struct {
	ChunkSize int
}

// DefaultExecutorConfig returns the standard chunking.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{ChunkSize: ChunkSize}
}

// Executor submits close transactions for a signing wallet.
type Executor struct {
	config    ExecutorConfig
	rpc       solana.RPCClient
	confirmer solana.Confirmer
	scanner   WalletScanner
	log       *zap.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(config ExecutorConfig, rpc solana.RPCClient, confirmer solana.Confirmer, scanner WalletScanner, log *zap.Logger) *Executor {
	if config.ChunkSize <= 0 {
		config.ChunkSize = ChunkSize
	}
	return &Executor{
		config:    config,
		rpc:       rpc,
		confirmer: confirmer,
		scanner:   scanner,
		log:       logger.OrNop(log),
	}
}

// Reclaim closes accounts owned by wallet, returning their rent to it.
// signer must be wallet's key. Chunks are submitted one at a time and each is
// confirmed before the next is built; the first failure ends the run.
// A partial run returns its Outcome together with the failure.
func (e *Executor) Reclaim(ctx context.Context, signer solana.Keypair, wallet domain.WalletAddress, accounts []domain.TokenAccount) (*Outcome, error) {
	if signer.PublicKey() != wallet.PublicKey() {
		return nil, apperr.New(apperr.OwnershipMismatch,
			fmt.Sprintf("signer %s does not own the scanned wallet %s", signer.PublicKey(), wallet))
	}
	if len(accounts) == 0 {
		return nil, apperr.New(apperr.NoAccounts, "no empty token accounts to close")
	}

	outcome := &Outcome{
		Wallet: wallet,
		Chunks: Split(accounts, e.config.ChunkSize),
	}

	for _, chunk := range outcome.Chunks {
		if err := e.runChunk(ctx, signer, chunk); err != nil {
			chunk.failed(err)
			outcome.Err = fmt.Errorf("%w: chunk %d of %d: %w", ErrChunkFailed, chunk.Index+1, len(outcome.Chunks), err)
			observability.RecordChunk(string(ChunkFailed), len(chunk.Accounts))
			e.log.Warn("reclaim chunk failed",
				zap.String("wallet", wallet.String()),
				zap.Int("chunk", chunk.Index),
				zap.String("signature", chunk.Signature),
				zap.Error(err),
			)
		}
		if chunk.Signature != "" {
			outcome.Signatures = append(outcome.Signatures, chunk.Signature)
		}
		if outcome.Err != nil {
			break
		}
		outcome.Confirmed++
		observability.RecordChunk(string(ChunkConfirmed), len(chunk.Accounts))
	}

	// Refresh from chain state regardless of how the run ended.
	if e.scanner != nil {
		outcome.Refreshed, outcome.RefreshErr = e.scanner.ScanWallet(context.WithoutCancel(ctx), wallet)
	}

	e.log.Info("reclaim finished",
		zap.String("wallet", wallet.String()),
		zap.Int("chunks", len(outcome.Chunks)),
		zap.Int("confirmed", outcome.Confirmed),
	)
	return outcome, outcome.Err
}

func (e *Executor) runChunk(ctx context.Context, signer solana.Keypair, chunk *Chunk) error {
	owner := signer.PublicKey()

	instructions := make([]solana.Instruction, 0, len(chunk.Accounts))
	for _, acct := range chunk.Accounts {
		addr, err := solana.ParsePublicKey(acct.Address)
		if err != nil {
			return fmt.Errorf("account %q: %w", acct.Address, err)
		}
		instructions = append(instructions, solana.NewCloseAccountInstruction(addr, owner, owner))
	}

	blockhash, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return apperr.Wrap(apperr.RPCUnavailable, "fetch blockhash", err)
	}

	tx, err := solana.BuildTransaction(owner, blockhash.Hash, instructions, signer)
	if err != nil {
		return fmt.Errorf("build transaction: %w", err)
	}

	sig, err := e.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return apperr.Wrap(apperr.RPCUnavailable, "send transaction", err)
	}
	chunk.submitted(sig)

	start := time.Now()
	if err := e.confirmer.Confirm(ctx, sig); err != nil {
		return fmt.Errorf("confirm %s: %w", sig, err)
	}
	observability.RecordConfirmation("reclaim", time.Since(start).Seconds())
	chunk.confirmed()
	return nil
}
