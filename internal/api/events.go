package api

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/idhash"
	"ata-reclaim/internal/storage"
)

// recordEvent appends a claim event. Requests whose wallet does not parse are
// not recorded. Failures are logged and never affect the response.
func (s *Server) recordEvent(c *gin.Context, kind domain.ClaimEventKind, rawWallet, outcome, signature string, accounts int, lamports uint64) {
	if s.events == nil {
		return
	}
	w, err := domain.ParseWalletAddress(rawWallet)
	if err != nil {
		return
	}
	wallet := w.String()
	if !isValidSignatureOrEmpty(signature) {
		signature = ""
	}

	ts := s.now().UnixMilli()
	e := &domain.ClaimEvent{
		EventID:       idhash.ComputeClaimEventID(kind, wallet, signature, outcome, ts),
		Kind:          kind,
		WalletAddress: wallet,
		Outcome:       outcome,
		Signature:     signature,
		Accounts:      accounts,
		Lamports:      lamports,
		Timestamp:     ts,
	}

	err = s.events.Insert(context.WithoutCancel(c.Request.Context()), e)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		s.log.Warn("failed to record claim event",
			zap.String("kind", string(kind)),
			zap.String("wallet", wallet),
			zap.Error(err),
		)
	}
}
