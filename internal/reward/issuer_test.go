package reward

import (
	"context"
	"errors"
	"testing"

	"ata-reclaim/internal/solana"
	"ata-reclaim/internal/solana/stub"
)

var testCollection = solana.MustPublicKey("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

func testCollectionConfig() CollectionConfig {
	return CollectionConfig{
		CollectionMint: testCollection,
		Name:           "ATA Reclaimer",
		Symbol:         "RECLAIM",
		URI:            "https://arweave.net/8mDPRxKkxGVMNdQmWyoVy7dLH1JgmBDV6VwhwCj9Bk1c",
	}
}

func newTestIssuer(t *testing.T, rpc *stub.RPCClient) (*OnChainIssuer, solana.Keypair) {
	t.Helper()
	authority, err := solana.NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	return NewOnChainIssuer(testCollectionConfig(), authority, rpc, rpc, nil), authority
}

func TestOnChainIssuer_Issue(t *testing.T) {
	rpc := stub.NewRPCClient()
	issuer, authority := newTestIssuer(t, rpc)
	owner, _ := solana.NewKeypair()

	issued, err := issuer.Issue(context.Background(), owner.PublicKey())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if rpc.SentCount() != 1 {
		t.Fatalf("expected one transaction, got %d", rpc.SentCount())
	}

	tx := rpc.Sent[0]
	if issued.Signature != solana.TransactionID(tx) {
		t.Errorf("signature mismatch: %s vs %s", issued.Signature, solana.TransactionID(tx))
	}
	if tx.Message.AccountKeys[0] != authority.PublicKey() {
		t.Errorf("authority must pay fees, got %s", tx.Message.AccountKeys[0])
	}
	if len(tx.Signatures) != 2 {
		t.Errorf("expected authority and mint signatures, got %d", len(tx.Signatures))
	}
	if len(tx.Message.Instructions) != 7 {
		t.Errorf("expected 7 instructions, got %d", len(tx.Message.Instructions))
	}

	mint := solana.MustPublicKey(issued.Mint)
	ata, _ := solana.FindAssociatedTokenAddress(owner.PublicKey(), mint)
	metadata, _ := solana.FindMetadataAddress(mint)
	edition, _ := solana.FindMasterEditionAddress(mint)
	for _, want := range []solana.PublicKey{mint, ata, metadata, edition, owner.PublicKey(), testCollection} {
		found := false
		for _, k := range tx.Message.AccountKeys {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("account %s missing from transaction", want)
		}
	}

	// Exactly one unit is minted.
	minted := 0
	for _, ix := range tx.Message.Instructions {
		program, err := tx.Message.Program(ix.ProgramIDIndex)
		if err != nil {
			t.Fatalf("Program: %v", err)
		}
		if program == solana.TokenProgramID && len(ix.Data) == 9 && ix.Data[0] == 7 {
			minted++
			if ix.Data[1] != 1 {
				t.Errorf("expected MintTo amount 1, got %v", ix.Data[1:])
			}
		}
	}
	if minted != 1 {
		t.Errorf("expected one MintTo instruction, got %d", minted)
	}
}

func TestOnChainIssuer_FailedConfirmation(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.FailAfterSends = 1
	issuer, _ := newTestIssuer(t, rpc)
	owner, _ := solana.NewKeypair()

	_, err := issuer.Issue(context.Background(), owner.PublicKey())
	if !errors.Is(err, solana.ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}
}

func TestOnChainIssuer_RPCFailure(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.SetErr(stub.ErrUnavailable)
	issuer, _ := newTestIssuer(t, rpc)
	owner, _ := solana.NewKeypair()

	if _, err := issuer.Issue(context.Background(), owner.PublicKey()); !errors.Is(err, stub.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
