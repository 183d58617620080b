package account

import "errors"

// Ledger operation errors.
// A failed operation never changes the account it was applied to.
var (
	// ErrAccountLocked is returned for any operation on an account frozen by a chargeback
	ErrAccountLocked = errors.New("account: account is locked")

	// ErrInvalidAmount is returned when the amount is negative
	ErrInvalidAmount = errors.New("account: amount must be non-negative")

	// ErrOverflow is returned when a deposit would push a balance past MaxBalance
	ErrOverflow = errors.New("account: balance overflow")

	// ErrInsufficientFunds is returned when available funds cannot cover a withdrawal or dispute
	ErrInsufficientFunds = errors.New("account: insufficient available funds")

	// ErrInsufficientHeldFunds is returned when held funds cannot cover a resolve or chargeback
	ErrInsufficientHeldFunds = errors.New("account: insufficient held funds")
)

// IsLocked checks if the given error indicates the account is locked.
func IsLocked(err error) bool {
	return errors.Is(err, ErrAccountLocked)
}
