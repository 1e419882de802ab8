// Package reward mints the one-per-wallet collectible for a verified reclaim.
package reward

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"ata-reclaim/internal/apperr"
	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/logger"
	"ata-reclaim/internal/mintguard"
	"ata-reclaim/internal/observability"
	"ata-reclaim/internal/solana"
	"ata-reclaim/internal/storage"
)

// Mint statuses returned to callers.
const (
	StatusMinted        = "minted"
	StatusAlreadyMinted = "already_minted"
)

// Result is the outcome of a mint request.
type Result struct {
	Status      string
	MintAddress string
	Signature   string // empty when already minted
}

// Minter verifies a reclaim and issues the reward at most once per wallet.
type Minter struct {
	rpc    solana.RPCClient
	guard  *mintguard.Guard
	store  storage.MintRecordStore
	issuer Issuer
	log    *zap.Logger
}

// NewMinter creates a Minter.
func NewMinter(rpc solana.RPCClient, guard *mintguard.Guard, store storage.MintRecordStore, issuer Issuer, log *zap.Logger) *Minter {
	return &Minter{
		rpc:    rpc,
		guard:  guard,
		store:  store,
		issuer: issuer,
		log:    logger.OrNop(log),
	}
}

// Mint rewards wallet for the reclaim transaction reclaimSignature.
// A wallet that already holds a reward gets it back without re-verification.
func (m *Minter) Mint(ctx context.Context, wallet, reclaimSignature string) (*Result, error) {
	res, err := m.mint(ctx, wallet, reclaimSignature)
	if err != nil {
		observability.RecordMint(string(apperr.ReasonOf(err)))
		return nil, err
	}
	observability.RecordMint(res.Status)
	return res, nil
}

func (m *Minter) mint(ctx context.Context, wallet, reclaimSignature string) (*Result, error) {
	w, err := domain.ParseWalletAddress(wallet)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidWallet, "wallet address is not a valid public key", err)
	}
	if !solana.IsValidSignature(reclaimSignature) {
		return nil, apperr.New(apperr.InvalidRequest, "reclaimSignature is not a valid transaction signature")
	}

	existing, err := m.guard.Existing(ctx, w)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return alreadyMinted(existing), nil
	}

	if err := m.verifyReclaim(ctx, w, reclaimSignature); err != nil {
		return nil, err
	}

	admission, err := m.guard.AdmitOrReject(ctx, w, reclaimSignature)
	if err != nil {
		return nil, err
	}
	if admission.AlreadyMinted {
		return alreadyMinted(admission), nil
	}

	start := time.Now()
	issued, err := m.issuer.Issue(ctx, w.PublicKey())
	if err != nil {
		m.log.Error("reward issuance failed",
			zap.String("wallet", w.String()),
			zap.String("record_id", admission.RecordID),
			zap.Error(err),
		)
		if ferr := m.store.MarkFailed(context.WithoutCancel(ctx), admission.RecordID, err.Error()); ferr != nil {
			m.log.Error("mark mint record failed", zap.String("record_id", admission.RecordID), zap.Error(ferr))
		}
		return nil, apperr.Wrap(apperr.MintFailed, "reward mint failed", err)
	}
	observability.RecordMintIssued(time.Since(start).Seconds(), time.Now().Unix())

	err = m.store.MarkSuccess(context.WithoutCancel(ctx), admission.RecordID, issued.Mint, issued.Signature)
	switch {
	case errors.Is(err, storage.ErrDuplicateClaim):
		// A concurrent request for the same wallet recorded its reward first.
		m.log.Warn("concurrent mint lost the success race",
			zap.String("wallet", w.String()),
			zap.String("orphan_mint", issued.Mint),
		)
		if ferr := m.store.MarkFailed(context.WithoutCancel(ctx), admission.RecordID, "duplicate claim: "+issued.Mint); ferr != nil {
			m.log.Error("mark mint record failed", zap.String("record_id", admission.RecordID), zap.Error(ferr))
		}
		winner, werr := m.guard.Existing(context.WithoutCancel(ctx), w)
		if werr != nil {
			return nil, apperr.Wrap(apperr.PersistenceFailure, "look up the winning mint record", werr)
		}
		if winner == nil {
			return nil, apperr.New(apperr.PersistenceFailure, "winning mint record not found after duplicate claim")
		}
		return alreadyMinted(winner), nil
	case err != nil:
		m.log.Error("mark mint record success",
			zap.String("record_id", admission.RecordID),
			zap.String("mint", issued.Mint),
			zap.Error(err),
		)
	}

	return &Result{Status: StatusMinted, MintAddress: issued.Mint, Signature: issued.Signature}, nil
}

// verifyReclaim requires signature to be a successful transaction paid by w.
func (m *Minter) verifyReclaim(ctx context.Context, w domain.WalletAddress, signature string) error {
	tx, err := m.rpc.GetTransaction(ctx, signature)
	if err != nil {
		m.log.Error("reclaim lookup failed", zap.String("signature", signature), zap.Error(err))
		return apperr.Wrap(apperr.RPCUnavailable, "could not reach the Solana RPC", err)
	}

	var reason string
	switch {
	case tx == nil:
		reason = "reclaim transaction not found or not confirmed"
	case !tx.Succeeded():
		reason = "reclaim transaction failed on chain"
	case tx.FeePayer() != w.String():
		reason = "reclaim transaction was not paid by this wallet"
	}
	if reason != "" {
		m.log.Warn("reclaim verification failed",
			zap.String("wallet", w.String()),
			zap.String("signature", signature),
			zap.String("reason", reason),
		)
		return apperr.New(apperr.ReclaimVerificationFailed, reason)
	}
	return nil
}

func alreadyMinted(a *mintguard.Admission) *Result {
	return &Result{Status: StatusAlreadyMinted, MintAddress: a.MintAddress}
}
