package voice

import (
	"context"
	"errors"

	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/solana"
	"ata-reclaim/internal/storage"
)

// OwnershipCheck reports whether a wallet holds the reward.
type OwnershipCheck interface {
	Name() string
	Owns(ctx context.Context, wallet domain.WalletAddress) (bool, error)
}

// StoreOwnership trusts a success record in the mint record store.
type StoreOwnership struct {
	store storage.MintRecordStore
}

// NewStoreOwnership creates a store-backed check.
func NewStoreOwnership(store storage.MintRecordStore) *StoreOwnership {
	return &StoreOwnership{store: store}
}

func (c *StoreOwnership) Name() string { return "store" }

func (c *StoreOwnership) Owns(ctx context.Context, wallet domain.WalletAddress) (bool, error) {
	_, err := c.store.GetSuccessByWallet(ctx, wallet.String())
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// OnChainOwnership looks for a held token whose metadata is a verified member
// of the reward collection.
type OnChainOwnership struct {
	rpc        solana.RPCClient
	collection solana.PublicKey
}

// NewOnChainOwnership creates a chain-backed check for collection.
func NewOnChainOwnership(rpc solana.RPCClient, collection solana.PublicKey) *OnChainOwnership {
	return &OnChainOwnership{rpc: rpc, collection: collection}
}

func (c *OnChainOwnership) Name() string { return "chain" }

func (c *OnChainOwnership) Owns(ctx context.Context, wallet domain.WalletAddress) (bool, error) {
	accounts, err := c.rpc.GetTokenAccountsByOwner(ctx, wallet.PublicKey(), solana.TokenProgramID)
	if err != nil {
		return false, err
	}

	var metadataKeys []solana.PublicKey
	for _, acct := range accounts {
		if acct.Amount == "0" || acct.Amount == "" {
			continue
		}
		mint, err := solana.ParsePublicKey(acct.Mint)
		if err != nil {
			continue
		}
		pda, err := solana.FindMetadataAddress(mint)
		if err != nil {
			continue
		}
		metadataKeys = append(metadataKeys, pda)
	}
	if len(metadataKeys) == 0 {
		return false, nil
	}

	infos, err := c.rpc.GetMultipleAccounts(ctx, metadataKeys)
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if info == nil || info.Owner != solana.TokenMetadataProgramID.String() {
			continue
		}
		md, err := solana.ParseMetadata(info.Data)
		if err != nil {
			continue
		}
		if md.InCollection(c.collection) {
			return true, nil
		}
	}
	return false, nil
}
