// Package voice admits reward holders to voice rooms.
package voice

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ata-reclaim/internal/apperr"
	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/logger"
	"ata-reclaim/internal/observability"
	"ata-reclaim/internal/solana"
)

// State is a step of one authorization.
type State int

const (
	Unauthenticated State = iota
	SignatureVerified
	OwnershipVerified
	TokenIssued
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case SignatureVerified:
		return "signature_verified"
	case OwnershipVerified:
		return "ownership_verified"
	case TokenIssued:
		return "token_issued"
	}
	return "unknown"
}

// Request asks for access to a room.
type Request struct {
	WalletAddress string
	Signature     string // base64 ed25519 signature over Message
	Message       string
	Room          string // empty selects the default room
}

// Config holds authorizer settings.
type Config struct {
	ServerURL   string
	DefaultRoom string
}

// Authorizer verifies a signed join message and reward ownership, then issues a grant.
type Authorizer struct {
	config Config
	checks []OwnershipCheck
	signer GrantSigner
	log    *zap.Logger
}

// NewAuthorizer creates an Authorizer. checks run in order; the first that
// reports ownership ends the search.
func NewAuthorizer(config Config, checks []OwnershipCheck, signer GrantSigner, log *zap.Logger) *Authorizer {
	return &Authorizer{
		config: config,
		checks: checks,
		signer: signer,
		log:    logger.OrNop(log),
	}
}

// Authorize runs Unauthenticated -> SignatureVerified -> OwnershipVerified -> TokenIssued.
// Any failed step rejects the request; nothing is retained between calls.
func (a *Authorizer) Authorize(ctx context.Context, req Request) (*domain.VoiceGrant, error) {
	state := Unauthenticated
	grant, err := a.authorize(ctx, req, &state)
	if err != nil {
		reason := apperr.ReasonOf(err)
		observability.RecordGrant(string(reason))
		a.log.Warn("voice access rejected",
			zap.String("wallet", req.WalletAddress),
			zap.String("reason", string(reason)),
			zap.Stringer("reached", state),
			zap.Error(err),
		)
		return nil, err
	}
	observability.RecordGrant("ok")
	return grant, nil
}

func (a *Authorizer) authorize(ctx context.Context, req Request, state *State) (*domain.VoiceGrant, error) {
	wallet, err := domain.ParseWalletAddress(req.WalletAddress)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidWallet, "wallet address is not a valid public key", err)
	}

	room := strings.TrimSpace(req.Room)
	if room == "" {
		room = a.config.DefaultRoom
	}
	msg, err := ParseJoinMessage(req.Message)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidMessage, err.Error(), err)
	}
	if msg.Room != room {
		return nil, apperr.New(apperr.InvalidMessage, "signed message is for a different room")
	}

	sig, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidSignature, "signature is not valid base64", err)
	}
	if len(sig) != len(solana.Signature{}) {
		return nil, apperr.New(apperr.InvalidSignature, fmt.Sprintf("signature is %d bytes", len(sig)))
	}
	if !solana.VerifySignature(wallet.PublicKey(), []byte(req.Message), solana.Signature(sig)) {
		return nil, apperr.New(apperr.InvalidSignature, "signature does not match wallet")
	}
	*state = SignatureVerified

	if err := a.checkOwnership(ctx, wallet); err != nil {
		return nil, err
	}
	*state = OwnershipVerified

	token, expiresAt, err := a.signer.SignGrant(wallet.String(), room, domain.VoiceGrantTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.TokenError, "could not issue access token", err)
	}
	*state = TokenIssued

	return &domain.VoiceGrant{
		Token:     token,
		URL:       a.config.ServerURL,
		Room:      room,
		Identity:  wallet.String(),
		ExpiresAt: expiresAt.Unix(),
	}, nil
}

func (a *Authorizer) checkOwnership(ctx context.Context, wallet domain.WalletAddress) error {
	var failed int
	var lastErr error
	for _, check := range a.checks {
		owns, err := check.Owns(ctx, wallet)
		if err != nil {
			failed++
			lastErr = err
			a.log.Error("ownership check failed",
				zap.String("check", check.Name()),
				zap.String("wallet", wallet.String()),
				zap.Error(err),
			)
			continue
		}
		if owns {
			a.log.Debug("ownership verified", zap.String("check", check.Name()), zap.String("wallet", wallet.String()))
			return nil
		}
	}
	if len(a.checks) > 0 && failed == len(a.checks) {
		return apperr.Wrap(apperr.OwnershipCheckFailed, "could not verify reward ownership", lastErr)
	}
	return apperr.New(apperr.MissingReward, "wallet does not hold the reclaim reward")
}
