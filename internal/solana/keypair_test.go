package solana

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
)

func keygenJSON(t *testing.T, kp Keypair) []byte {
	t.Helper()
	ints := make([]int, len(kp))
	for i, b := range kp {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		t.Fatalf("marshal keypair: %v", err)
	}
	return data
}

func TestParseKeypair_Formats(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	fromJSON, err := ParseKeypair(keygenJSON(t, kp))
	if err != nil {
		t.Fatalf("ParseKeypair(json): %v", err)
	}
	if fromJSON.PublicKey() != kp.PublicKey() {
		t.Errorf("json keypair mismatch: %s vs %s", fromJSON.PublicKey(), kp.PublicKey())
	}

	fromB58, err := ParseKeypair([]byte(base58.Encode(kp) + "\n"))
	if err != nil {
		t.Fatalf("ParseKeypair(base58): %v", err)
	}
	if fromB58.PublicKey() != kp.PublicKey() {
		t.Errorf("base58 keypair mismatch")
	}
}

func TestParseKeypair_Invalid(t *testing.T) {
	if _, err := ParseKeypair([]byte("[1,2,3]")); err == nil {
		t.Error("expected error for short key")
	}
	if _, err := ParseKeypair([]byte("[300]")); err == nil {
		t.Error("expected error for out of range byte")
	}
	if _, err := ParseKeypair([]byte("not base58 0OIl")); err == nil {
		t.Error("expected error for garbage")
	}
}

func TestLoadKeypairFile(t *testing.T) {
	kp, _ := NewKeypair()

	path := filepath.Join(t.TempDir(), "id.json")
	if err := os.WriteFile(path, keygenJSON(t, kp), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := LoadKeypairFile(path)
	if err != nil {
		t.Fatalf("LoadKeypairFile: %v", err)
	}
	if loaded.PublicKey() != kp.PublicKey() {
		t.Errorf("loaded keypair mismatch")
	}

	if _, err := LoadKeypairFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVerifySignature(t *testing.T) {
	kp, _ := NewKeypair()
	msg := []byte("ATA_VOICE_JOIN:lobby:1")

	sig, err := kp.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !VerifySignature(kp.PublicKey(), msg, sig) {
		t.Error("valid signature rejected")
	}
	if VerifySignature(kp.PublicKey(), []byte("ATA_VOICE_JOIN:lobby:2"), sig) {
		t.Error("signature over different message accepted")
	}

	other, _ := NewKeypair()
	if VerifySignature(other.PublicKey(), msg, sig) {
		t.Error("signature accepted for wrong key")
	}

	parsed, err := ParseSignature(sig.String())
	if err != nil || parsed != sig {
		t.Errorf("ParseSignature round trip failed: %v", err)
	}
	if _, err := ParseSignature(base58.Encode(sig[:10])); err == nil {
		t.Error("truncated signature accepted")
	}
}
