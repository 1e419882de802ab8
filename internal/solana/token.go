package solana

import (
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// Account sizes used for rent calculations.
const (
	TokenAccountSize = 165
	MintAccountSize  = 82
)

// TokenAccountRentLamports is the rent-exempt minimum for a 165-byte token account.
const TokenAccountRentLamports uint64 = 2_039_280

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// NewCloseAccountInstruction closes a zero-balance token account, sending its rent to destination.
func NewCloseAccountInstruction(account, destination, owner PublicKey) Instruction {
	return token.NewCloseAccountInstruction(account, destination, owner, nil).Build()
}

// NewInitializeMint2Instruction initializes a mint without the rent sysvar.
// A nil freezeAuthority leaves the mint without one.
func NewInitializeMint2Instruction(mint PublicKey, decimals uint8, mintAuthority PublicKey, freezeAuthority *PublicKey) Instruction {
	ix := token.NewInitializeMint2InstructionBuilder().
		SetDecimals(decimals).
		SetMintAuthority(mintAuthority).
		SetMintAccount(mint)
	if freezeAuthority != nil {
		ix.SetFreezeAuthority(*freezeAuthority)
	}
	return ix.Build()
}

// NewMintToInstruction mints amount base units into destination.
func NewMintToInstruction(mint, destination, authority PublicKey, amount uint64) Instruction {
	return token.NewMintToInstruction(amount, mint, destination, authority, nil).Build()
}

// NewCreateAssociatedTokenAccountInstruction creates owner's canonical account for mint.
func NewCreateAssociatedTokenAccountInstruction(payer, owner, mint PublicKey) Instruction {
	return associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
}

// NewCreateAccountInstruction allocates a new system account owned by owner.
func NewCreateAccountInstruction(from, newAccount PublicKey, lamports, space uint64, owner PublicKey) Instruction {
	return system.NewCreateAccountInstruction(lamports, space, owner, from, newAccount).Build()
}
