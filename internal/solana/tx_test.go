package solana

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestBuildTransaction_Signers(t *testing.T) {
	payer, _ := NewKeypair()
	owner, _ := NewKeypair()
	ix := NewCloseAccountInstruction(MustPublicKey(testMint), payer.PublicKey(), owner.PublicKey())

	if _, err := BuildTransaction(payer.PublicKey(), Hash{7}, []Instruction{ix}, payer); !errors.Is(err, ErrMissingSigner) {
		t.Fatalf("expected ErrMissingSigner, got %v", err)
	}

	tx, err := BuildTransaction(payer.PublicKey(), Hash{7}, []Instruction{ix}, owner, payer)
	if err != nil {
		t.Fatalf("BuildTransaction: %v", err)
	}
	if tx.Message.AccountKeys[0] != payer.PublicKey() {
		t.Errorf("fee payer must be the first account, got %s", tx.Message.AccountKeys[0])
	}
	if tx.Message.Header.NumRequiredSignatures != 2 {
		t.Fatalf("expected 2 required signatures, got %d", tx.Message.Header.NumRequiredSignatures)
	}
	if len(tx.Signatures) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(tx.Signatures))
	}

	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if !VerifySignature(payer.PublicKey(), payload, tx.Signatures[0]) {
		t.Error("payer signature must come first and verify")
	}
	if !VerifySignature(owner.PublicKey(), payload, tx.Signatures[1]) {
		t.Error("owner signature does not verify")
	}
	if !IsValidSignature(TransactionID(tx)) {
		t.Errorf("transaction id %q is not a valid signature", TransactionID(tx))
	}

	raw, err := EncodeTransaction(tx)
	if err != nil {
		t.Fatalf("EncodeTransaction: %v", err)
	}
	if raw[0] != 2 {
		t.Errorf("signature count prefix: got %d", raw[0])
	}
	if !bytes.Equal(raw[1:65], tx.Signatures[0][:]) {
		t.Error("first signature not at offset 1")
	}
	if !bytes.Equal(raw[1+2*64:], payload) {
		t.Error("message does not follow signatures")
	}
}

func TestBuildTransaction_MergesDuplicateKeys(t *testing.T) {
	payer, _ := NewKeypair()
	ixs := []Instruction{
		NewCloseAccountInstruction(MustPublicKey(testMint), payer.PublicKey(), payer.PublicKey()),
		NewCloseAccountInstruction(MustPublicKey(testWallet), payer.PublicKey(), payer.PublicKey()),
	}
	tx, err := BuildTransaction(payer.PublicKey(), Hash{}, ixs, payer)
	if err != nil {
		t.Fatalf("BuildTransaction: %v", err)
	}
	if len(tx.Message.AccountKeys) != 4 {
		t.Errorf("expected 4 unique keys, got %d", len(tx.Message.AccountKeys))
	}
	if tx.Message.Header.NumRequiredSignatures != 1 {
		t.Errorf("expected single signer, got %d", tx.Message.Header.NumRequiredSignatures)
	}
}

func TestBuildTransaction_NoInstructions(t *testing.T) {
	payer, _ := NewKeypair()
	if _, err := BuildTransaction(payer.PublicKey(), Hash{}, nil, payer); err == nil {
		t.Error("expected error for empty transaction")
	}
}

func TestEncodeTransaction_TooLarge(t *testing.T) {
	payer, _ := NewKeypair()
	var ixs []Instruction
	for i := 0; i < 40; i++ {
		var pk PublicKey
		pk[0] = byte(i + 1)
		ixs = append(ixs, NewCloseAccountInstruction(pk, payer.PublicKey(), payer.PublicKey()))
	}
	tx, err := BuildTransaction(payer.PublicKey(), Hash{}, ixs, payer)
	if err != nil {
		t.Fatalf("BuildTransaction: %v", err)
	}
	if _, err := EncodeTransaction(tx); !errors.Is(err, ErrTransactionTooLarge) {
		t.Errorf("expected ErrTransactionTooLarge, got %v", err)
	}
}

func TestTokenInstructions_Data(t *testing.T) {
	mint := MustPublicKey(testMint)
	owner := MustPublicKey(testWallet)

	closeData, err := NewCloseAccountInstruction(mint, owner, owner).Data()
	if err != nil {
		t.Fatalf("close data: %v", err)
	}
	if !bytes.Equal(closeData, []byte{9}) {
		t.Errorf("close account data = %x", closeData)
	}

	mintTo := NewMintToInstruction(mint, owner, owner, 1)
	mintData, err := mintTo.Data()
	if err != nil {
		t.Fatalf("mint data: %v", err)
	}
	if len(mintData) != 9 || mintData[0] != 7 || binary.LittleEndian.Uint64(mintData[1:]) != 1 {
		t.Errorf("mint to data = %x", mintData)
	}
	if accts := mintTo.Accounts(); len(accts) != 3 || !accts[2].IsSigner {
		t.Errorf("mint authority must sign: %+v", accts)
	}

	initData, err := NewInitializeMint2Instruction(mint, 0, owner, nil).Data()
	if err != nil {
		t.Fatalf("init mint data: %v", err)
	}
	if initData[0] != 20 || initData[1] != 0 || !bytes.Equal(initData[2:34], owner[:]) {
		t.Errorf("initialize mint data = %x", initData)
	}
}

func TestIsValidSignature(t *testing.T) {
	if IsValidSignature("") {
		t.Error("empty string accepted")
	}
	if IsValidSignature(testWallet) {
		t.Error("32-byte value accepted as signature")
	}
}
