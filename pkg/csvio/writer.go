package csvio

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"payments-engine/pkg/account"
)

// OutputHeader is the header row of the account output.
var OutputHeader = []string{"client", "available", "held", "total", "locked"}

// Writer encodes account snapshots as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteAccounts writes the header followed by one row per account, ordered by client id.
func (w *Writer) WriteAccounts(accounts map[uint16]account.Account) error {
	if err := w.csv.Write(OutputHeader); err != nil {
		return err
	}

	for _, acc := range SortedAccounts(accounts) {
		if err := w.csv.Write(accountRow(acc)); err != nil {
			return err
		}
	}

	w.csv.Flush()
	return w.csv.Error()
}

// SortedAccounts returns the accounts ordered by client id.
func SortedAccounts(accounts map[uint16]account.Account) []account.Account {
	sorted := make([]account.Account, 0, len(accounts))
	for _, acc := range accounts {
		sorted = append(sorted, acc)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func accountRow(acc account.Account) []string {
	return []string{
		strconv.FormatUint(uint64(acc.ID), 10),
		acc.Available.StringFixed(AmountPrecision),
		acc.Held.StringFixed(AmountPrecision),
		acc.Total.StringFixed(AmountPrecision),
		strconv.FormatBool(acc.Locked),
	}
}
