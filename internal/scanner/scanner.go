// Package scanner lists a wallet's canonical token accounts and the rent they hold.
package scanner

import (
	"context"
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ata-reclaim/internal/apperr"
	"ata-reclaim/internal/domain"
	"ata-reclaim/internal/logger"
	"ata-reclaim/internal/observability"
	"ata-reclaim/internal/solana"
)

// solDecimals is the number of fractional digits in one SOL.
const solDecimals = 9

// RentPerAccountSOL is the rent deposit of one token account in SOL.
var RentPerAccountSOL = LamportsToSOL(solana.TokenAccountRentLamports)

// Result is the outcome of one wallet scan.
type Result struct {
	Wallet domain.WalletAddress
	// Accounts holds every canonical token account of the wallet.
	Accounts []domain.TokenAccount
	// Empty holds the subset that can be closed, in Accounts order.
	Empty []domain.TokenAccount
	// ReclaimableLamports is len(Empty) times the per-account rent.
	ReclaimableLamports uint64
}

// TotalATAs returns the number of canonical accounts.
func (r *Result) TotalATAs() int { return len(r.Accounts) }

// EmptyATAs returns the number of reclaimable accounts.
func (r *Result) EmptyATAs() int { return len(r.Empty) }

// ReclaimableSOL returns the recoverable rent in SOL.
func (r *Result) ReclaimableSOL() decimal.Decimal {
	return LamportsToSOL(r.ReclaimableLamports)
}

// LamportsToSOL converts lamports to SOL without floating-point rounding.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -solDecimals)
}

// Scanner reads token accounts through an RPC client.
type Scanner struct {
	rpc solana.RPCClient
	log *zap.Logger
}

// New creates a Scanner. A nil logger disables logging.
func New(rpc solana.RPCClient, log *zap.Logger) *Scanner {
	return &Scanner{rpc: rpc, log: logger.OrNop(log)}
}

// Scan validates wallet and scans it.
func (s *Scanner) Scan(ctx context.Context, wallet string) (*Result, error) {
	w, err := domain.ParseWalletAddress(wallet)
	if err != nil {
		observability.RecordScan(string(apperr.InvalidWallet), 0)
		return nil, apperr.Wrap(apperr.InvalidWallet, "wallet address is not a valid public key", err)
	}
	return s.ScanWallet(ctx, w)
}

// ScanWallet lists w's token accounts, drops any whose address is not the
// associated token address for (w, mint) and partitions out the empty ones.
func (s *Scanner) ScanWallet(ctx context.Context, w domain.WalletAddress) (*Result, error) {
	raw, err := s.rpc.GetTokenAccountsByOwner(ctx, w.PublicKey(), solana.TokenProgramID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		observability.RecordScan(string(apperr.RPCUnavailable), 0)
		s.log.Error("token account listing failed", zap.String("wallet", w.String()), zap.Error(err))
		return nil, apperr.Wrap(apperr.RPCUnavailable, "could not reach the Solana RPC", err)
	}

	result := &Result{Wallet: w}
	for _, acct := range raw {
		canonical, ok := s.canonical(w, acct)
		if !ok {
			continue
		}
		result.Accounts = append(result.Accounts, canonical)
		if canonical.IsReclaimable() {
			result.Empty = append(result.Empty, canonical)
		}
	}
	result.ReclaimableLamports = uint64(len(result.Empty)) * solana.TokenAccountRentLamports

	observability.RecordScan("ok", len(result.Empty))
	s.log.Debug("wallet scanned",
		zap.String("wallet", w.String()),
		zap.Int("listed", len(raw)),
		zap.Int("canonical", len(result.Accounts)),
		zap.Int("empty", len(result.Empty)),
	)
	return result, nil
}

func (s *Scanner) canonical(w domain.WalletAddress, acct solana.TokenAccount) (domain.TokenAccount, bool) {
	mint, err := solana.ParsePublicKey(acct.Mint)
	if err != nil {
		s.log.Debug("skipping account with unparsable mint", zap.String("account", acct.Address))
		return domain.TokenAccount{}, false
	}
	expected, err := solana.FindAssociatedTokenAddress(w.PublicKey(), mint)
	if err != nil || expected.String() != acct.Address {
		s.log.Debug("skipping non-canonical token account",
			zap.String("account", acct.Address),
			zap.String("mint", acct.Mint),
		)
		return domain.TokenAccount{}, false
	}

	return domain.TokenAccount{
		Address:  acct.Address,
		Mint:     acct.Mint,
		Amount:   acct.Amount,
		Decimals: acct.Decimals,
		IsFrozen: acct.IsFrozen(),
		State:    acct.State,
	}, true
}
