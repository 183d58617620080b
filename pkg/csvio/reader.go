package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"payments-engine/pkg/account"
	"payments-engine/pkg/engine"

	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits kept from input amounts.
const AmountPrecision = 4

// Exponent bounds of an accepted amount. Anything with a larger exponent exceeds
// account.MaxBalance; a smaller one would make rounding arbitrarily slow.
const (
	maxAmountExponent = 28
	minAmountExponent = -1000
)

// Column names of the transaction input.
const (
	ColumnType   = "type"
	ColumnClient = "client"
	ColumnTx     = "tx"
	ColumnAmount = "amount"
)

// Reader decodes transaction records from CSV input with a header row.
// Columns may appear in any order and whitespace around values is ignored.
type Reader struct {
	csv    *csv.Reader
	column map[string]int
	width  int
	header bool
}

// NewReader creates a Reader over r. The header is read on the first call to Next.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &Reader{csv: cr}
}

// Next returns the next record, or io.EOF once the input is exhausted.
// A malformed row is reported as a *ParseError and reading may continue.
// Any other error means the input itself is unusable.
func (r *Reader) Next() (engine.Record, error) {
	if !r.header {
		if err := r.readHeader(); err != nil {
			return engine.Record{}, err
		}
	}

	fields, err := r.csv.Read()
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return engine.Record{}, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
		}
		return engine.Record{}, err
	}

	line, _ := r.csv.FieldPos(0)
	rec, err := r.decode(fields)
	if err != nil {
		return engine.Record{}, &ParseError{Line: line, Err: err}
	}
	return rec, nil
}

func (r *Reader) readHeader() error {
	fields, err := r.csv.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("csvio: read header: %w", err)
	}

	column := make(map[string]int, len(fields))
	for i, name := range fields {
		column[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColumnType, ColumnClient, ColumnTx} {
		if _, ok := column[required]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}

	r.column = column
	r.width = len(fields)
	r.header = true
	return nil
}

func (r *Reader) decode(fields []string) (engine.Record, error) {
	if len(fields) > r.width {
		return engine.Record{}, ErrFieldCount
	}

	field := func(name string) (string, bool) {
		i, ok := r.column[name]
		if !ok || i >= len(fields) {
			return "", false
		}
		return strings.TrimSpace(fields[i]), true
	}

	kind, ok := field(ColumnType)
	if !ok {
		return engine.Record{}, ErrFieldCount
	}
	rawClient, ok := field(ColumnClient)
	if !ok {
		return engine.Record{}, ErrFieldCount
	}
	rawTx, ok := field(ColumnTx)
	if !ok {
		return engine.Record{}, ErrFieldCount
	}

	client, err := strconv.ParseUint(rawClient, 10, 16)
	if err != nil {
		return engine.Record{}, fmt.Errorf("%w: client %q", ErrInvalidField, rawClient)
	}
	tx, err := strconv.ParseUint(rawTx, 10, 32)
	if err != nil {
		return engine.Record{}, fmt.Errorf("%w: tx %q", ErrInvalidField, rawTx)
	}

	rec := engine.Record{
		Command: engine.ParseCommand(kind),
		Client:  uint16(client),
		Tx:      uint32(tx),
	}

	if rawAmount, ok := field(ColumnAmount); ok && rawAmount != "" {
		amount, err := ParseAmount(rawAmount)
		if err != nil {
			return engine.Record{}, err
		}
		rec.Amount = &amount
	}

	return rec, nil
}

// ParseAmount parses a decimal amount and rounds it half-to-even to AmountPrecision digits.
// Amounts whose magnitude exceeds account.MaxBalance are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: amount %q", ErrInvalidField, s)
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}
	if exp := amount.Exponent(); exp > maxAmountExponent || exp < minAmountExponent {
		return decimal.Decimal{}, fmt.Errorf("%w: amount %q out of range", ErrInvalidField, s)
	}

	amount = amount.RoundBank(AmountPrecision)
	if amount.Abs().GreaterThan(account.MaxBalance) {
		return decimal.Decimal{}, fmt.Errorf("%w: amount %q out of range", ErrInvalidField, s)
	}
	return amount, nil
}
