package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ata-reclaim/internal/apperr"
	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/reward"
	"ata-reclaim/internal/scanner"
	"ata-reclaim/internal/solana"
	"ata-reclaim/internal/voice"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// scan handles POST /api/scan.
func (s *Server) scan(c *gin.Context) {
	var req scanRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.scanner.Scan(c.Request.Context(), req.WalletAddress)
	if err != nil {
		s.recordEvent(c, domain.ClaimEventScan, req.WalletAddress, string(apperr.ReasonOf(err)), "", 0, 0)
		s.fail(c, err)
		return
	}
	s.recordEvent(c, domain.ClaimEventScan, res.Wallet.String(), "ok", "", res.EmptyATAs(), res.ReclaimableLamports)

	sol := res.ReclaimableSOL()
	c.JSON(http.StatusOK, scanResponse{
		Success:                 true,
		WalletAddress:           res.Wallet.String(),
		TotalATAs:               res.TotalATAs(),
		EmptyATAs:               res.EmptyATAs(),
		ReclaimableSOL:          sol.InexactFloat64(),
		ReclaimableSOLFormatted: sol.StringFixed(6),
		RentPerATA:              scanner.RentPerAccountSOL.InexactFloat64(),
		Accounts:                toTokenAccountDTOs(res.Accounts),
	})
}

// mint handles POST /api/mint.
func (s *Server) mint(c *gin.Context) {
	var req mintRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.minter.Mint(c.Request.Context(), req.WalletAddress, req.ReclaimSignature)
	if err != nil {
		s.recordEvent(c, domain.ClaimEventMint, req.WalletAddress, string(apperr.ReasonOf(err)), req.ReclaimSignature, 0, 0)
		s.fail(c, err)
		return
	}

	if res.Status == reward.StatusMinted {
		// The reclaim itself runs client-side; a fresh mint is the first point
		// its transaction has been verified.
		s.recordEvent(c, domain.ClaimEventReclaim, req.WalletAddress, "ok", req.ReclaimSignature, 0, 0)
	}
	s.recordEvent(c, domain.ClaimEventMint, req.WalletAddress, res.Status, res.Signature, 0, 0)

	c.JSON(http.StatusOK, mintResponse{
		Success:     true,
		Status:      res.Status,
		MintAddress: res.MintAddress,
		Signature:   res.Signature,
	})
}

// voiceToken handles POST /api/voice/token.
func (s *Server) voiceToken(c *gin.Context) {
	var req voiceTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	grant, err := s.authorizer.Authorize(c.Request.Context(), voice.Request{
		WalletAddress: req.WalletAddress,
		Signature:     req.Signature,
		Message:       req.Message,
		Room:          req.Room,
	})
	if err != nil {
		s.recordEvent(c, domain.ClaimEventGrant, req.WalletAddress, string(apperr.ReasonOf(err)), "", 0, 0)
		s.fail(c, err)
		return
	}
	s.recordEvent(c, domain.ClaimEventGrant, grant.Identity, "ok", "", 0, 0)

	c.JSON(http.StatusOK, voiceTokenResponse{
		Success: true,
		Token:   grant.Token,
		URL:     grant.URL,
		Room:    grant.Room,
	})
}

// bindJSON decodes the request body, responding with invalid_request on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.Wrap(apperr.InvalidRequest, "request body must be valid JSON", err))
		return false
	}
	return true
}

// fail logs server-side failures with their cause and writes the failure body.
func (s *Server) fail(c *gin.Context, err error) {
	if apperr.HTTPStatus(apperr.ReasonOf(err)) >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("reason", string(apperr.ReasonOf(err))),
			zap.Error(err),
		)
	}
	respondError(c, err)
}

// respondError writes the uniform failure body. Only the public message of an
// *apperr.Error reaches the client.
func respondError(c *gin.Context, err error) {
	reason := apperr.ReasonOf(err)
	message := "internal server error"

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	c.JSON(apperr.HTTPStatus(reason), failureResponse{
		Success: false,
		Reason:  reason,
		Message: message,
	})
}

// isValidSignatureOrEmpty reports whether sig may be stored on an event row.
func isValidSignatureOrEmpty(sig string) bool {
	return sig == "" || solana.IsValidSignature(sig)
}
