package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	solanago "github.com/gagliardetto/solana-go"
)

// PublicKeyLength is the size of an ed25519 public key / account address.
const PublicKeyLength = solanago.PublicKeyLength

// PDA limits enforced by the runtime.
const (
	maxSeeds      = 16
	maxSeedLength = 32
	pdaMarker     = "ProgramDerivedAddress"
)

// Well-known program and sysvar addresses.
var (
	SystemProgramID          = solanago.SystemProgramID
	TokenProgramID           = solanago.TokenProgramID
	AssociatedTokenProgramID = solanago.SPLAssociatedTokenAccountProgramID
	TokenMetadataProgramID   = solanago.TokenMetadataProgramID
	SysvarRentID             = solanago.SysVarRentPubkey
)

var (
	// ErrInvalidPublicKey is returned when a string is not a base58 encoded 32-byte key.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrOnCurve is returned when a derived address lands on the ed25519 curve.
	ErrOnCurve = errors.New("derived address is on curve")

	// ErrNoViableBump is returned when no bump seed yields an off-curve address.
	ErrNoViableBump = errors.New("unable to find a viable program address bump seed")
)

// PublicKey is a Solana account address.
type PublicKey = solanago.PublicKey

// ParsePublicKey decodes a base58 address.
func ParsePublicKey(s string) (PublicKey, error) {
	if s == "" {
		return PublicKey{}, ErrInvalidPublicKey
	}
	pk, err := solanago.PublicKeyFromBase58(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return pk, nil
}

// MustPublicKey is ParsePublicKey for constants; it panics on bad input.
func MustPublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(fmt.Sprintf("solana: bad public key %q: %v", s, err))
	}
	return pk
}

// IsOnCurve reports whether the bytes decode to a point on the ed25519 curve.
func IsOnCurve(b []byte) bool {
	if len(b) != PublicKeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress hashes seeds with the program id and rejects on-curve results.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	if len(seeds) > maxSeeds {
		return PublicKey{}, fmt.Errorf("too many seeds: %d", len(seeds))
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return PublicKey{}, fmt.Errorf("seed too long: %d bytes", len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	out := solanago.PublicKeyFromBytes(h.Sum(nil))
	if IsOnCurve(out[:]) {
		return PublicKey{}, ErrOnCurve
	}
	return out, nil
}

// FindProgramAddress searches bump seeds from 255 down for the first off-curve address.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return PublicKey{}, 0, err
		}
	}
	return PublicKey{}, 0, ErrNoViableBump
}

// FindAssociatedTokenAddress derives the canonical token account for (wallet, mint)
// under the classic token program. The scanner compares listed accounts against it.
func FindAssociatedTokenAddress(wallet, mint PublicKey) (PublicKey, error) {
	addr, _, err := FindProgramAddress(
		[][]byte{wallet[:], TokenProgramID[:], mint[:]},
		AssociatedTokenProgramID,
	)
	return addr, err
}

// FindMetadataAddress derives the token-metadata account for a mint.
func FindMetadataAddress(mint PublicKey) (PublicKey, error) {
	addr, _, err := solanago.FindTokenMetadataAddress(mint)
	return addr, err
}

// FindMasterEditionAddress derives the master-edition account for a mint.
func FindMasterEditionAddress(mint PublicKey) (PublicKey, error) {
	addr, _, err := solanago.FindProgramAddress(
		[][]byte{[]byte("metadata"), TokenMetadataProgramID[:], mint[:], []byte("edition")},
		TokenMetadataProgramID,
	)
	return addr, err
}
