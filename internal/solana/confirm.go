package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrTransactionFailed is returned when a transaction landed with an execution error.
	ErrTransactionFailed = errors.New("transaction failed on chain")

	// ErrConfirmationTimeout is returned when a signature is not confirmed in time.
	ErrConfirmationTimeout = errors.New("transaction confirmation timed out")

	errNotYetConfirmed = errors.New("signature not yet confirmed")
)

// Confirmer blocks until a submitted signature reaches confirmed commitment.
type Confirmer interface {
	Confirm(ctx context.Context, signature string) error
}

// PollingConfirmerConfig configures polling intervals.
type PollingConfirmerConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Timeout         time.Duration
}

// DefaultPollingConfig polls for roughly the lifetime of a blockhash.
func DefaultPollingConfig() PollingConfirmerConfig {
	return PollingConfirmerConfig{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     3 * time.Second,
		Timeout:         90 * time.Second,
	}
}

// PollingConfirmer confirms signatures via getSignatureStatuses with exponential backoff.
type PollingConfirmer struct {
	rpc    RPCClient
	config PollingConfirmerConfig
}

var _ Confirmer = (*PollingConfirmer)(nil)

// NewPollingConfirmer creates a confirmer. A nil config uses DefaultPollingConfig.
func NewPollingConfirmer(rpc RPCClient, config *PollingConfirmerConfig) *PollingConfirmer {
	cfg := DefaultPollingConfig()
	if config != nil {
		cfg = *config
	}
	return &PollingConfirmer{rpc: rpc, config: cfg}
}

// Confirm polls until the signature is confirmed, failed, or the timeout elapses.
func (p *PollingConfirmer) Confirm(ctx context.Context, signature string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.config.InitialInterval
	b.MaxInterval = p.config.MaxInterval
	b.MaxElapsedTime = p.config.Timeout

	op := func() error {
		statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			return err
		}
		if len(statuses) == 0 || statuses[0] == nil {
			return errNotYetConfirmed
		}
		status := statuses[0]
		if status.Err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err))
		}
		if !status.IsConfirmed() {
			return errNotYetConfirmed
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransactionFailed) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s: %v", ErrConfirmationTimeout, signature, err)
}

// WSConfirmer waits for a signatureSubscribe notification and falls back to polling
// when the subscription cannot be established.
type WSConfirmer struct {
	ws       WSClient
	fallback Confirmer
	timeout  time.Duration
}

var _ Confirmer = (*WSConfirmer)(nil)

// NewWSConfirmer creates a WebSocket confirmer with a polling fallback.
func NewWSConfirmer(ws WSClient, fallback Confirmer, timeout time.Duration) *WSConfirmer {
	if timeout <= 0 {
		timeout = DefaultPollingConfig().Timeout
	}
	return &WSConfirmer{ws: ws, fallback: fallback, timeout: timeout}
}

// Confirm waits for the confirmed-commitment notification of signature.
func (w *WSConfirmer) Confirm(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ch, err := w.ws.SubscribeSignature(ctx, signature)
	if err != nil {
		if w.fallback == nil {
			return fmt.Errorf("subscribe signature: %w", err)
		}
		return w.fallback.Confirm(ctx, signature)
	}

	// The transaction may have landed before the subscription was registered.
	if w.fallback != nil {
		if done, err := w.checkOnce(ctx, signature); done {
			return err
		}
	}

	select {
	case n, ok := <-ch:
		if !ok {
			if w.fallback == nil {
				return fmt.Errorf("signature subscription closed")
			}
			return w.fallback.Confirm(ctx, signature)
		}
		if n.Err != nil {
			return fmt.Errorf("%w: %v", ErrTransactionFailed, n.Err)
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrConfirmationTimeout, signature)
		}
		return ctx.Err()
	}
}

func (w *WSConfirmer) checkOnce(ctx context.Context, signature string) (bool, error) {
	p, ok := w.fallback.(*PollingConfirmer)
	if !ok {
		return false, nil
	}
	statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
	if err != nil || len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}
	if statuses[0].Err != nil {
		return true, fmt.Errorf("%w: %v", ErrTransactionFailed, statuses[0].Err)
	}
	if statuses[0].IsConfirmed() {
		return true, nil
	}
	return false, nil
}
