package engine

import (
	"payments-engine/pkg/account"

	"github.com/shopspring/decimal"
)

// historyEntry remembers who made a deposit and for how much.
type historyEntry struct {
	client uint16
	amount decimal.Decimal
}

// Engine applies transaction records to client accounts.
// It is not safe for concurrent use; a single goroutine must own it.
type Engine struct {
	accounts map[uint16]*account.Account
	history  map[uint32]historyEntry
	disputes map[uint32]struct{}
}

// Stats describes the size of the engine state.
type Stats struct {
	Accounts     int `json:"accounts"`
	Deposits     int `json:"deposits"`
	OpenDisputes int `json:"open_disputes"`
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{
		accounts: make(map[uint16]*account.Account),
		history:  make(map[uint32]historyEntry),
		disputes: make(map[uint32]struct{}),
	}
}

// Process applies a single record.
// On error the engine state is unchanged, except that deposits and withdrawals
// create the client's zero-balance account before the ledger check runs.
func (e *Engine) Process(rec Record) error {
	switch rec.Command {
	case CommandDeposit:
		if !rec.HasAmount() {
			return ErrMissingAmount
		}
		amount := *rec.Amount
		if err := e.account(rec.Client).Execute(account.Deposit, amount); err != nil {
			return err
		}
		// tx ids are expected to be unique; a reused id replaces the earlier deposit
		e.history[rec.Tx] = historyEntry{client: rec.Client, amount: amount}

	case CommandWithdrawal:
		if !rec.HasAmount() {
			return ErrMissingAmount
		}
		return e.account(rec.Client).Execute(account.Withdraw, *rec.Amount)

	case CommandDispute:
		if _, ok := e.disputes[rec.Tx]; ok {
			return ErrAlreadyDisputed
		}
		entry, err := e.lookup(rec)
		if err != nil {
			return err
		}
		if err := e.account(rec.Client).Execute(account.Dispute, entry.amount); err != nil {
			return err
		}
		e.disputes[rec.Tx] = struct{}{}

	case CommandResolve, CommandChargeback:
		if _, ok := e.disputes[rec.Tx]; !ok {
			return ErrNotDisputed
		}
		entry, err := e.lookup(rec)
		if err != nil {
			return err
		}
		op := account.Resolve
		if rec.Command == CommandChargeback {
			op = account.Chargeback
		}
		if err := e.account(rec.Client).Execute(op, entry.amount); err != nil {
			return err
		}
		delete(e.disputes, rec.Tx)

	default:
		return ErrUnknownCommand
	}

	return nil
}

// lookup finds the deposit a dispute, resolve or chargeback refers to.
func (e *Engine) lookup(rec Record) (historyEntry, error) {
	entry, ok := e.history[rec.Tx]
	if !ok {
		return historyEntry{}, ErrTransactionNotFound
	}
	if entry.client != rec.Client {
		return historyEntry{}, ErrClientMismatch
	}
	return entry, nil
}

// account returns the client's account, creating it on first reference.
func (e *Engine) account(id uint16) *account.Account {
	acc, ok := e.accounts[id]
	if !ok {
		acc = account.New(id)
		e.accounts[id] = acc
	}
	return acc
}

// Snapshot returns a copy of every account keyed by client id.
func (e *Engine) Snapshot() map[uint16]account.Account {
	snapshot := make(map[uint16]account.Account, len(e.accounts))
	for id, acc := range e.accounts {
		snapshot[id] = *acc
	}
	return snapshot
}

// Stats returns the current engine state sizes.
func (e *Engine) Stats() Stats {
	return Stats{
		Accounts:     len(e.accounts),
		Deposits:     len(e.history),
		OpenDisputes: len(e.disputes),
	}
}
