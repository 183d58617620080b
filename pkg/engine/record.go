package engine

import (
	"github.com/shopspring/decimal"
)

// Command identifies the kind of a transaction record.
// The zero value is CommandUnknown.
type Command int

const (
	CommandUnknown Command = iota
	CommandDeposit
	CommandWithdrawal
	CommandDispute
	CommandResolve
	CommandChargeback
)

var commandNames = map[string]Command{
	"deposit":    CommandDeposit,
	"withdrawal": CommandWithdrawal,
	"dispute":    CommandDispute,
	"resolve":    CommandResolve,
	"chargeback": CommandChargeback,
}

// ParseCommand maps a wire name to a Command. Matching is case-sensitive;
// anything unrecognised becomes CommandUnknown.
func ParseCommand(s string) Command {
	if c, ok := commandNames[s]; ok {
		return c
	}
	return CommandUnknown
}

// String returns the wire name of the command.
func (c Command) String() string {
	switch c {
	case CommandDeposit:
		return "deposit"
	case CommandWithdrawal:
		return "withdrawal"
	case CommandDispute:
		return "dispute"
	case CommandResolve:
		return "resolve"
	case CommandChargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// Record is a single input transaction.
// Amount is nil when the source row carried none.
type Record struct {
	Command Command
	Client  uint16
	Tx      uint32
	Amount  *decimal.Decimal
}

// HasAmount reports whether the record carries an amount.
func (r Record) HasAmount() bool {
	return r.Amount != nil
}
