package account

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Operation is one of the balance changes an Account accepts.
type Operation int

const (
	// Deposit credits total and available funds.
	Deposit Operation = iota
	// Withdraw debits total and available funds.
	Withdraw
	// Dispute moves funds from available to held.
	Dispute
	// Resolve moves funds from held back to available.
	Resolve
	// Chargeback removes held funds and locks the account.
	Chargeback
)

// String returns the string representation of the operation.
func (op Operation) String() string {
	switch op {
	case Deposit:
		return "deposit"
	case Withdraw:
		return "withdraw"
	case Dispute:
		return "dispute"
	case Resolve:
		return "resolve"
	case Chargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// MaxBalance is the largest balance an account can carry (2^96 - 1).
var MaxBalance = decimal.RequireFromString("79228162514264337593543950335")

// Account holds the balances and lock state of a single client.
// Total always equals Available + Held, and none of them is negative.
type Account struct {
	ID        uint16
	Locked    bool
	Total     decimal.Decimal
	Available decimal.Decimal
	Held      decimal.Decimal
}

// New creates an unlocked account with zero balances.
func New(id uint16) *Account {
	return &Account{
		ID:        id,
		Total:     decimal.Zero,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

// Execute validates and applies op with the given amount.
// Locked accounts and negative amounts are rejected before any operation-specific check.
// On error the account is left unchanged.
func (a *Account) Execute(op Operation, amount decimal.Decimal) error {
	if a.Locked {
		return ErrAccountLocked
	}

	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	switch op {
	case Deposit:
		return a.deposit(amount)
	case Withdraw:
		return a.withdraw(amount)
	case Dispute:
		return a.dispute(amount)
	case Resolve:
		return a.resolve(amount)
	case Chargeback:
		return a.chargeback(amount)
	default:
		return fmt.Errorf("account: unsupported operation %d", int(op))
	}
}

func (a *Account) deposit(amount decimal.Decimal) error {
	total := a.Total.Add(amount)
	available := a.Available.Add(amount)
	if total.GreaterThan(MaxBalance) || available.GreaterThan(MaxBalance) {
		return ErrOverflow
	}

	a.Total = total
	a.Available = available
	return nil
}

func (a *Account) withdraw(amount decimal.Decimal) error {
	if amount.GreaterThan(a.Available) {
		return ErrInsufficientFunds
	}

	a.Total = a.Total.Sub(amount)
	a.Available = a.Available.Sub(amount)
	return nil
}

// dispute assumes the disputed funds are still available; a client that already
// spent them cannot have the deposit held.
func (a *Account) dispute(amount decimal.Decimal) error {
	if amount.GreaterThan(a.Available) {
		return ErrInsufficientFunds
	}

	a.Available = a.Available.Sub(amount)
	a.Held = a.Held.Add(amount)
	return nil
}

func (a *Account) resolve(amount decimal.Decimal) error {
	if amount.GreaterThan(a.Held) {
		return ErrInsufficientHeldFunds
	}

	a.Held = a.Held.Sub(amount)
	a.Available = a.Available.Add(amount)
	return nil
}

func (a *Account) chargeback(amount decimal.Decimal) error {
	if amount.GreaterThan(a.Held) {
		return ErrInsufficientHeldFunds
	}

	a.Held = a.Held.Sub(amount)
	a.Total = a.Total.Sub(amount)
	a.Locked = true
	return nil
}

// Valid reports whether the balance invariant holds.
func (a *Account) Valid() bool {
	if a.Total.IsNegative() || a.Available.IsNegative() || a.Held.IsNegative() {
		return false
	}
	return a.Total.Equal(a.Available.Add(a.Held))
}
