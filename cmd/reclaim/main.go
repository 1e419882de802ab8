// Package main closes a wallet's empty token accounts from the command line
// and optionally claims the reward from a running server.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ata-reclaim/internal/config"
	"ata-reclaim/internal/logger"
	"ata-reclaim/internal/reclaim"
	"ata-reclaim/internal/scanner"
	"ata-reclaim/internal/solana"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "Path to config file")
	envPath := flag.String("env-dir", "config/", "Directory containing .env files")
	keypairPath := flag.String("keypair", "", "Path to the wallet keypair file (Solana CLI JSON)")
	rpcEndpoint := flag.String("rpc-endpoint", "", "Solana RPC HTTP endpoint (overrides solana.rpc_endpoint)")
	wsEndpoint := flag.String("ws-endpoint", "", "Solana WebSocket endpoint (overrides solana.ws_endpoint; polling when empty)")
	serverURL := flag.String("server", "", "Reclaim server base URL; when set the reward is claimed after a successful run")
	dryRun := flag.Bool("dry-run", false, "Scan only, do not close accounts")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *keypairPath == "" {
		return errors.New("--keypair is required")
	}

	cfg, err := config.Load(*configFile, *envPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *rpcEndpoint != "" {
		cfg.Solana.RPCEndpoint = *rpcEndpoint
	}
	if *wsEndpoint != "" {
		cfg.Solana.WSEndpoint = *wsEndpoint
	}

	if err := logger.Initialize(logger.Config{Debug: *debug || cfg.Debug}); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	signer, err := solana.LoadKeypairFile(*keypairPath)
	if err != nil {
		return fmt.Errorf("load keypair: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint)
	confirmer := solana.Confirmer(solana.NewPollingConfirmer(rpc, nil))
	if cfg.Solana.WSEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, cfg.Solana.WSEndpoint, nil)
		if err != nil {
			logger.Warn("WebSocket unavailable, confirming by polling", zap.Error(err))
		} else {
			defer ws.Close()
			confirmer = solana.NewWSConfirmer(ws, confirmer, cfg.Solana.ConfirmTimeout)
		}
	}

	scan := scanner.New(rpc, logger.Named("scanner"))
	result, err := scan.Scan(ctx, signer.PublicKey().String())
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	printScan(result)

	if *dryRun || result.EmptyATAs() == 0 {
		return nil
	}

	executor := reclaim.NewExecutor(reclaim.DefaultExecutorConfig(), rpc, confirmer, scan, logger.Named("reclaim"))
	outcome, err := executor.Reclaim(ctx, signer, result.Wallet, result.Empty)
	if outcome != nil {
		printOutcome(outcome)
	}
	if err != nil {
		return fmt.Errorf("reclaim: %w", err)
	}

	if *serverURL == "" {
		return nil
	}
	claimCtx, claimCancel := context.WithTimeout(ctx, 3*time.Minute)
	defer claimCancel()
	if err := claimReward(claimCtx, *serverURL, result.Wallet.String(), outcome.LastSignature()); err != nil {
		return fmt.Errorf("claim reward: %w", err)
	}
	return nil
}

func printScan(r *scanner.Result) {
	fmt.Printf("Wallet:        %s\n", r.Wallet)
	fmt.Printf("Token accounts: %d\n", r.TotalATAs())
	fmt.Printf("Reclaimable:   %d (%s SOL)\n", r.EmptyATAs(), r.ReclaimableSOL().StringFixed(6))
}

func printOutcome(o *reclaim.Outcome) {
	for _, c := range o.Chunks {
		line := fmt.Sprintf("  chunk %d: %-9s %d accounts", c.Index+1, c.State, len(c.Accounts))
		if c.Signature != "" {
			line += "  " + c.Signature
		}
		fmt.Println(line)
	}
	fmt.Printf("Confirmed %d of %d chunks\n", o.Confirmed, len(o.Chunks))
	if o.Refreshed != nil {
		fmt.Printf("Remaining reclaimable: %d\n", o.Refreshed.EmptyATAs())
	}
}

type mintResponse struct {
	Success     bool   `json:"success"`
	Status      string `json:"status"`
	MintAddress string `json:"mintAddress"`
	Signature   string `json:"signature"`
	Reason      string `json:"reason"`
	Message     string `json:"message"`
}

// claimReward asks the server to mint the reward for the reclaim signature.
func claimReward(ctx context.Context, serverURL, wallet, signature string) error {
	body, err := json.Marshal(map[string]string{
		"walletAddress":    wallet,
		"reclaimSignature": signature,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(serverURL, "/")+"/api/mint", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post mint: %w", err)
	}
	defer resp.Body.Close()

	var out mintResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode mint response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !out.Success {
		return errors.New(out.Reason + ": " + out.Message)
	}

	fmt.Printf("Reward %s: %s\n", out.Status, out.MintAddress)
	return nil
}
