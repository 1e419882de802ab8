package reward

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ata-reclaim/internal/logger"
	"ata-reclaim/internal/observability"
	"ata-reclaim/internal/solana"
)

// Issued describes a reward token minted to a wallet.
type Issued struct {
	Mint      string
	Signature string
}

// Issuer mints one reward token to owner.
type Issuer interface {
	Issue(ctx context.Context, owner solana.PublicKey) (*Issued, error)
}

// CollectionConfig describes the reward collection and its token metadata.
type CollectionConfig struct {
	CollectionMint solana.PublicKey
	Name           string
	Symbol         string
	URI            string
}

// OnChainIssuer mints a one-of-one NFT in a single transaction: mint account,
// owner's associated account, one unit, immutable metadata, a master edition
// with no prints, and collection verification by the authority.
type OnChainIssuer struct {
	config    CollectionConfig
	authority solana.Keypair
	rpc       solana.RPCClient
	confirmer solana.Confirmer
	log       *zap.Logger
	newMint   func() (solana.Keypair, error)
}

var _ Issuer = (*OnChainIssuer)(nil)

// NewOnChainIssuer creates an issuer. authority pays fees and holds the
// update and collection authority.
func NewOnChainIssuer(config CollectionConfig, authority solana.Keypair, rpc solana.RPCClient, confirmer solana.Confirmer, log *zap.Logger) *OnChainIssuer {
	return &OnChainIssuer{
		config:    config,
		authority: authority,
		rpc:       rpc,
		confirmer: confirmer,
		log:       logger.OrNop(log),
		newMint:   solana.NewKeypair,
	}
}

// Issue mints the reward to owner and waits for confirmation.
func (i *OnChainIssuer) Issue(ctx context.Context, owner solana.PublicKey) (*Issued, error) {
	mint, err := i.newMint()
	if err != nil {
		return nil, err
	}

	rent, err := i.rpc.GetMinimumBalanceForRentExemption(ctx, solana.MintAccountSize)
	if err != nil {
		return nil, fmt.Errorf("mint rent: %w", err)
	}

	instructions, err := i.instructions(mint.PublicKey(), owner, rent)
	if err != nil {
		return nil, err
	}

	blockhash, err := i.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}
	tx, err := solana.BuildTransaction(i.authority.PublicKey(), blockhash.Hash, instructions, i.authority, mint)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}

	sig, err := i.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	start := time.Now()
	if err := i.confirmer.Confirm(ctx, sig); err != nil {
		return nil, fmt.Errorf("confirm %s: %w", sig, err)
	}
	observability.RecordConfirmation("mint", time.Since(start).Seconds())

	i.log.Info("reward issued",
		zap.String("owner", owner.String()),
		zap.String("mint", mint.PublicKey().String()),
		zap.String("signature", sig),
	)
	return &Issued{Mint: mint.PublicKey().String(), Signature: sig}, nil
}

func (i *OnChainIssuer) instructions(mint, owner solana.PublicKey, rent uint64) ([]solana.Instruction, error) {
	authority := i.authority.PublicKey()

	ata, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	collection := i.config.CollectionMint
	createMetadata, err := solana.NewCreateMetadataAccountV3Instruction(mint, authority, authority, authority, solana.MetadataArgs{
		Name:       i.config.Name,
		Symbol:     i.config.Symbol,
		URI:        i.config.URI,
		Collection: &collection,
		IsMutable:  false,
	})
	if err != nil {
		return nil, err
	}
	createEdition, err := solana.NewCreateMasterEditionV3Instruction(mint, authority, authority, authority, 0)
	if err != nil {
		return nil, err
	}
	verify, err := solana.NewVerifySizedCollectionItemInstruction(mint, authority, authority, collection)
	if err != nil {
		return nil, err
	}

	return []solana.Instruction{
		solana.NewCreateAccountInstruction(authority, mint, rent, solana.MintAccountSize, solana.TokenProgramID),
		solana.NewInitializeMint2Instruction(mint, 0, authority, &authority),
		solana.NewCreateAssociatedTokenAccountInstruction(authority, owner, mint),
		solana.NewMintToInstruction(mint, ata, authority, 1),
		createMetadata,
		createEdition,
		verify,
	}, nil
}
