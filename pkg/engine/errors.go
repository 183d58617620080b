package engine

import (
	"errors"

	"payments-engine/pkg/account"
)

// Record routing errors. Ledger errors from the account package are returned unwrapped.
var (
	// ErrMissingAmount is returned for a deposit or withdrawal without an amount
	ErrMissingAmount = errors.New("engine: missing amount")

	// ErrAlreadyDisputed is returned when disputing a transaction that is already under dispute
	ErrAlreadyDisputed = errors.New("engine: transaction already under dispute")

	// ErrNotDisputed is returned when resolving or charging back a transaction not under dispute
	ErrNotDisputed = errors.New("engine: transaction not under dispute")

	// ErrTransactionNotFound is returned when the referenced deposit was never recorded
	ErrTransactionNotFound = errors.New("engine: transaction not found")

	// ErrClientMismatch is returned when the referenced deposit belongs to another client
	ErrClientMismatch = errors.New("engine: transaction does not belong to client")

	// ErrUnknownCommand is returned for records with an unrecognised command
	ErrUnknownCommand = errors.New("engine: unknown command")
)

// ClassifyError returns a stable label for err, suitable for metrics and logs.
func ClassifyError(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, account.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, account.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, account.ErrOverflow):
		return "overflow"
	case errors.Is(err, account.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, account.ErrInsufficientHeldFunds):
		return "insufficient_held_funds"
	case errors.Is(err, ErrMissingAmount):
		return "missing_amount"
	case errors.Is(err, ErrAlreadyDisputed):
		return "already_disputed"
	case errors.Is(err, ErrNotDisputed):
		return "not_disputed"
	case errors.Is(err, ErrTransactionNotFound):
		return "transaction_not_found"
	case errors.Is(err, ErrClientMismatch):
		return "client_mismatch"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	default:
		return "other"
	}
}
