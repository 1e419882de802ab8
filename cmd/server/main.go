// Package main runs the reclaim HTTP server: wallet scans, reward mints and
// voice room access.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ata-reclaim/internal/api"
	"ata-reclaim/internal/config"
	"ata-reclaim/internal/logger"
	"ata-reclaim/internal/mintguard"
	"ata-reclaim/internal/reward"
	"ata-reclaim/internal/scanner"
	"ata-reclaim/internal/solana"
	"ata-reclaim/internal/storage"
	chstore "ata-reclaim/internal/storage/clickhouse"
	"ata-reclaim/internal/storage/memory"
	"ata-reclaim/internal/storage/migrations"
	pgstore "ata-reclaim/internal/storage/postgres"
	"ata-reclaim/internal/voice"
)

// stores holds the storage implementations selected at startup.
type stores struct {
	mintRecords storage.MintRecordStore
	claimEvents storage.ClaimEventStore
}

func main() {
	configFile := flag.String("config", "", "Path to config file")
	envPath := flag.String("env-dir", "config/", "Directory containing .env files")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations before serving")
	flag.Parse()

	cfg, err := config.Load(*configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(logger.Config{
		Debug:  cfg.Debug,
		Fields: map[string]string{"service": "ata-reclaim"},
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg, *migrate)
	if err != nil {
		logger.Fatal("Failed to create stores", zap.Error(err))
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint, solana.WithCommitment(cfg.Solana.Commitment))
	confirmer, closeConfirmer := createConfirmer(ctx, cfg, rpc)
	defer closeConfirmer()

	authority, err := solana.LoadKeypairFile(cfg.Reward.AuthorityKeypair)
	if err != nil {
		logger.Fatal("Failed to load mint authority keypair", zap.Error(err))
	}
	collection, err := solana.ParsePublicKey(cfg.Reward.CollectionMint)
	if err != nil {
		logger.Fatal("Invalid reward collection mint", zap.Error(err))
	}

	grantSigner, err := voice.NewJWTGrantSigner(cfg.Voice.APIKey, cfg.Voice.APISecret)
	if err != nil {
		logger.Fatal("Failed to create grant signer", zap.Error(err))
	}

	issuer := reward.NewOnChainIssuer(reward.CollectionConfig{
		CollectionMint: collection,
		Name:           cfg.Reward.Name,
		Symbol:         cfg.Reward.Symbol,
		URI:            cfg.Reward.URI,
	}, authority, rpc, confirmer, logger.Named("issuer"))

	guard := mintguard.New(st.mintRecords, logger.Named("mintguard"))
	minter := reward.NewMinter(rpc, guard, st.mintRecords, issuer, logger.Named("minter"))
	authorizer := voice.NewAuthorizer(
		voice.Config{ServerURL: cfg.Voice.ServerURL, DefaultRoom: cfg.Voice.DefaultRoom},
		[]voice.OwnershipCheck{
			voice.NewStoreOwnership(st.mintRecords),
			voice.NewOnChainOwnership(rpc, collection),
		},
		grantSigner,
		logger.Named("voice"),
	)

	server := api.New(api.Config{
		Debug:          cfg.Debug,
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, scanner.New(rpc, logger.Named("scanner")), minter, authorizer, st.claimEvents, logger.Named("api"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("Server started",
		zap.String("addr", cfg.Server.Addr),
		zap.String("authority", authority.PublicKey().String()),
		zap.String("collection", collection.String()),
		zap.Bool("memory_stores", cfg.UseMemory),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error(err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
	}

	logger.Info("Shutdown complete")
}

// createStores connects the configured stores. Without a ClickHouse DSN claim
// events are kept in memory.
func createStores(ctx context.Context, cfg *config.Config, migrate bool) (*stores, func(), error) {
	if cfg.UseMemory {
		return &stores{
			mintRecords: memory.NewMintRecordStore(),
			claimEvents: memory.NewClaimEventStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}

	st := &stores{mintRecords: pgstore.NewMintRecordStore(pool)}
	cleanup := func() { pool.Close() }

	if cfg.ClickHouse.DSN == "" {
		st.claimEvents = memory.NewClaimEventStore()
		return st, cleanup, nil
	}

	var chConn *chstore.Conn
	if migrate {
		chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
	} else {
		chConn, err = chstore.NewConn(ctx, cfg.ClickHouse.DSN)
	}
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	st.claimEvents = chstore.NewClaimEventStore(chConn)

	return st, func() {
		chConn.Close()
		pool.Close()
	}, nil
}

// createConfirmer prefers signature subscriptions and falls back to polling
// when no WebSocket endpoint is configured or it cannot be reached.
func createConfirmer(ctx context.Context, cfg *config.Config, rpc solana.RPCClient) (solana.Confirmer, func()) {
	polling := solana.NewPollingConfirmer(rpc, &solana.PollingConfirmerConfig{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     3 * time.Second,
		Timeout:         cfg.Solana.ConfirmTimeout,
	})
	if cfg.Solana.WSEndpoint == "" {
		return polling, func() {}
	}

	ws, err := solana.NewWSClient(ctx, cfg.Solana.WSEndpoint, nil)
	if err != nil {
		logger.Warn("WebSocket unavailable, confirming by polling", zap.Error(err))
		return polling, func() {}
	}
	return solana.NewWSConfirmer(ws, polling, cfg.Solana.ConfirmTimeout), func() { ws.Close() }
}
