// Package apperr carries the reason codes surfaced at the API boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason is a stable machine-readable failure code.
type Reason string

// Reason codes.
const (
	InvalidWallet             Reason = "invalid_wallet"
	InvalidRequest            Reason = "invalid_request"
	NoAccounts                Reason = "no_accounts"
	OwnershipMismatch         Reason = "ownership_mismatch"
	RPCUnavailable            Reason = "rpc_unavailable"
	ReclaimVerificationFailed Reason = "reclaim_verification_failed"
	MintFailed                Reason = "mint_failed"
	InvalidMessage            Reason = "invalid_message"
	InvalidSignature          Reason = "invalid_signature"
	MissingReward             Reason = "missing_reward"
	OwnershipCheckFailed      Reason = "ownership_check_failed"
	TokenError                Reason = "token_error"
	PersistenceFailure        Reason = "persistence_failure"
	RateLimited               Reason = "rate_limited"
	Internal                  Reason = "internal_error"
)

// Error is a failure tagged with a Reason. Message is safe to show to clients;
// Err holds the internal cause for logs.
type Error struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without a cause.
func New(reason Reason, message string) *Error {
	return &Error{Reason: reason, Message: message}
}

// Wrap creates an Error around cause.
func Wrap(reason Reason, message string, cause error) *Error {
	return &Error{Reason: reason, Message: message, Err: cause}
}

// ReasonOf extracts the Reason from err, or Internal if err carries none.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return Internal
}

// Is reports whether err carries reason.
func Is(err error, reason Reason) bool {
	var e *Error
	return errors.As(err, &e) && e.Reason == reason
}

// HTTPStatus maps a Reason to its response status.
func HTTPStatus(reason Reason) int {
	switch reason {
	case InvalidWallet, InvalidRequest, NoAccounts, OwnershipMismatch,
		InvalidMessage, ReclaimVerificationFailed:
		return http.StatusBadRequest
	case InvalidSignature:
		return http.StatusUnauthorized
	case MissingReward:
		return http.StatusForbidden
	case RateLimited:
		return http.StatusTooManyRequests
	case RPCUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
