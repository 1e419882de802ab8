package voice

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"ata-reclaim/internal/apperr"
	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/solana"
	"ata-reclaim/internal/solana/stub"
	"ata-reclaim/internal/storage/memory"
)

var testCollection = solana.MustPublicKey("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

type env struct {
	rpc    *stub.RPCClient
	store  *memory.MintRecordStore
	signer *JWTGrantSigner
	auth   *Authorizer
	wallet solana.Keypair
}

func newEnv(t *testing.T) *env {
	t.Helper()
	rpc := stub.NewRPCClient()
	store := memory.NewMintRecordStore()
	signer, err := NewJWTGrantSigner("key", "secret")
	if err != nil {
		t.Fatalf("NewJWTGrantSigner: %v", err)
	}
	wallet, err := solana.NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	checks := []OwnershipCheck{
		NewStoreOwnership(store),
		NewOnChainOwnership(rpc, testCollection),
	}
	auth := NewAuthorizer(Config{ServerURL: "wss://voice.example.com", DefaultRoom: "reclaimers"}, checks, signer, nil)
	return &env{rpc: rpc, store: store, signer: signer, auth: auth, wallet: wallet}
}

func (e *env) request(t *testing.T, room, msg string) Request {
	t.Helper()
	sig, err := e.wallet.Sign([]byte(msg))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return Request{
		WalletAddress: e.wallet.PublicKey().String(),
		Signature:     base64.StdEncoding.EncodeToString(sig[:]),
		Message:       msg,
		Room:          room,
	}
}

func (e *env) recordSuccess(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	rec := &domain.MintRecord{
		ID:            "r1",
		WalletAddress: e.wallet.PublicKey().String(),
		Status:        domain.MintStatusPending,
		CreatedAt:     1,
		UpdatedAt:     1,
	}
	if err := e.store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := e.store.MarkSuccess(ctx, "r1", "mint", "sig"); err != nil {
		t.Fatalf("MarkSuccess: %v", err)
	}
}

// holdNFT gives the wallet one unit of a mint whose metadata links to collection.
func (e *env) holdNFT(t *testing.T, collection solana.PublicKey, verified bool) {
	t.Helper()
	mint, _ := solana.NewKeypair()
	ata, _ := solana.FindAssociatedTokenAddress(e.wallet.PublicKey(), mint.PublicKey())
	e.rpc.AddTokenAccount(solana.TokenAccount{
		Address: ata.String(),
		Mint:    mint.PublicKey().String(),
		Owner:   e.wallet.PublicKey().String(),
		Amount:  "1",
		State:   "initialized",
	})
	if err := e.rpc.AddMetadata(mint.PublicKey(), collection, verified); err != nil {
		t.Fatalf("AddMetadata: %v", err)
	}
}

func TestAuthorize_StoreOwnership(t *testing.T) {
	e := newEnv(t)
	e.recordSuccess(t)

	grant, err := e.auth.Authorize(context.Background(), e.request(t, "reclaimers", "ATA_VOICE_JOIN:reclaimers:42"))
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if grant.Room != "reclaimers" || grant.URL != "wss://voice.example.com" {
		t.Errorf("unexpected grant %+v", grant)
	}
	if grant.Identity != e.wallet.PublicKey().String() {
		t.Errorf("identity mismatch: %s", grant.Identity)
	}

	claims, err := e.signer.ParseGrant(grant.Token)
	if err != nil {
		t.Fatalf("ParseGrant: %v", err)
	}
	ttl := claims.ExpiresAt.Sub(claims.NotBefore.Time)
	if ttl != domain.VoiceGrantTTL {
		t.Errorf("expected %s ttl, got %s", domain.VoiceGrantTTL, ttl)
	}
	if claims.Video.Room != "reclaimers" {
		t.Errorf("token scoped to %q", claims.Video.Room)
	}
}

func TestAuthorize_DefaultRoom(t *testing.T) {
	e := newEnv(t)
	e.recordSuccess(t)

	grant, err := e.auth.Authorize(context.Background(), e.request(t, "", "ATA_VOICE_JOIN:reclaimers:1"))
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if grant.Room != "reclaimers" {
		t.Errorf("expected default room, got %s", grant.Room)
	}
}

func TestAuthorize_OnChainFallback(t *testing.T) {
	e := newEnv(t)
	e.holdNFT(t, testCollection, true)

	if _, err := e.auth.Authorize(context.Background(), e.request(t, "reclaimers", "ATA_VOICE_JOIN:reclaimers:1")); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
}

func TestAuthorize_MissingReward(t *testing.T) {
	other, _ := solana.NewKeypair()
	cases := map[string]func(e *env){
		"nothing held":      func(e *env) {},
		"unverified member": func(e *env) { e.holdNFT(t, testCollection, false) },
		"other collection":  func(e *env) { e.holdNFT(t, other.PublicKey(), true) },
	}
	for name, setup := range cases {
		e := newEnv(t)
		setup(e)
		_, err := e.auth.Authorize(context.Background(), e.request(t, "reclaimers", "ATA_VOICE_JOIN:reclaimers:1"))
		if !apperr.Is(err, apperr.MissingReward) {
			t.Errorf("%s: expected missing_reward, got %v", name, err)
		}
	}
}

func TestAuthorize_InvalidMessage(t *testing.T) {
	e := newEnv(t)
	e.recordSuccess(t)

	for _, tc := range []struct{ room, msg string }{
		{"reclaimers", "JOIN:reclaimers:1"},
		{"reclaimers", "ATA_VOICE_JOIN:reclaimers"},
		{"reclaimers", "ATA_VOICE_JOIN:other-room:1"},
		{"", "ATA_VOICE_JOIN:other-room:1"},
	} {
		_, err := e.auth.Authorize(context.Background(), e.request(t, tc.room, tc.msg))
		if !apperr.Is(err, apperr.InvalidMessage) {
			t.Errorf("%q in %q: expected invalid_message, got %v", tc.msg, tc.room, err)
		}
	}
}

func TestAuthorize_InvalidSignature(t *testing.T) {
	e := newEnv(t)
	e.recordSuccess(t)
	ctx := context.Background()

	req := e.request(t, "reclaimers", "ATA_VOICE_JOIN:reclaimers:1")
	req.Message = "ATA_VOICE_JOIN:reclaimers:2"
	if _, err := e.auth.Authorize(ctx, req); !apperr.Is(err, apperr.InvalidSignature) {
		t.Errorf("tampered message: expected invalid_signature, got %v", err)
	}

	req = e.request(t, "reclaimers", "ATA_VOICE_JOIN:reclaimers:1")
	req.Signature = "%%%not-base64"
	if _, err := e.auth.Authorize(ctx, req); !apperr.Is(err, apperr.InvalidSignature) {
		t.Errorf("malformed signature: expected invalid_signature, got %v", err)
	}

	req = e.request(t, "reclaimers", "ATA_VOICE_JOIN:reclaimers:1")
	req.Signature = base64.StdEncoding.EncodeToString(make([]byte, ed25519.SignatureSize-1))
	if _, err := e.auth.Authorize(ctx, req); !apperr.Is(err, apperr.InvalidSignature) {
		t.Errorf("short signature: expected invalid_signature, got %v", err)
	}
}

func TestAuthorize_InvalidWallet(t *testing.T) {
	e := newEnv(t)
	req := e.request(t, "reclaimers", "ATA_VOICE_JOIN:reclaimers:1")
	req.WalletAddress = "not-a-key"

	if _, err := e.auth.Authorize(context.Background(), req); !apperr.Is(err, apperr.InvalidWallet) {
		t.Fatalf("expected invalid_wallet, got %v", err)
	}
}

type erroringCheck struct{}

func (erroringCheck) Name() string { return "broken" }

func (erroringCheck) Owns(context.Context, domain.WalletAddress) (bool, error) {
	return false, errors.New("unreachable")
}

func TestAuthorize_OwnershipChecks(t *testing.T) {
	e := newEnv(t)
	signer := e.signer

	// A failing check falls through to the next one.
	e.holdNFT(t, testCollection, true)
	auth := NewAuthorizer(Config{DefaultRoom: "r"}, []OwnershipCheck{erroringCheck{}, NewOnChainOwnership(e.rpc, testCollection)}, signer, nil)
	if _, err := auth.Authorize(context.Background(), e.request(t, "r", "ATA_VOICE_JOIN:r:1")); err != nil {
		t.Fatalf("expected fallback to pass, got %v", err)
	}

	// Every check failing is an internal error, not a missing reward.
	auth = NewAuthorizer(Config{DefaultRoom: "r"}, []OwnershipCheck{erroringCheck{}, erroringCheck{}}, signer, nil)
	_, err := auth.Authorize(context.Background(), e.request(t, "r", "ATA_VOICE_JOIN:r:1"))
	if !apperr.Is(err, apperr.OwnershipCheckFailed) {
		t.Fatalf("expected ownership_check_failed, got %v", err)
	}
}

type failingSigner struct{}

func (failingSigner) SignGrant(string, string, time.Duration) (string, time.Time, error) {
	return "", time.Time{}, errors.New("hsm offline")
}

func TestAuthorize_TokenError(t *testing.T) {
	e := newEnv(t)
	e.recordSuccess(t)
	auth := NewAuthorizer(Config{DefaultRoom: "reclaimers"}, []OwnershipCheck{NewStoreOwnership(e.store)}, failingSigner{}, nil)

	_, err := auth.Authorize(context.Background(), e.request(t, "", "ATA_VOICE_JOIN:reclaimers:1"))
	if !apperr.Is(err, apperr.TokenError) {
		t.Fatalf("expected token_error, got %v", err)
	}
}
