package csvio

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingHeader is returned when the input has no header row
	ErrMissingHeader = errors.New("csvio: missing header row")

	// ErrMissingColumn is returned when the header lacks a required column
	ErrMissingColumn = errors.New("csvio: missing required column")

	// ErrFieldCount is returned when a row has fewer fields than the required columns
	ErrFieldCount = errors.New("csvio: wrong number of fields")

	// ErrInvalidField is returned when a field cannot be parsed or is out of range
	ErrInvalidField = errors.New("csvio: invalid field")
)

// ParseError reports a malformed input row.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csvio: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError checks if err reports a single malformed row.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
