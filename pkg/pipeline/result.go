package pipeline

import "errors"

// Result summarises a completed run.
type Result struct {
	// Read is the number of records handed to the engine
	Read int64 `json:"read"`

	// Applied is the number of records the engine accepted
	Applied int64 `json:"applied"`

	// Rejected is the number of records the engine refused
	Rejected int64 `json:"rejected"`

	// RejectedByKind breaks rejections down by error kind
	RejectedByKind map[string]int64 `json:"rejected_by_kind"`

	// Malformed is the number of rows the source could not decode
	Malformed int64 `json:"malformed"`

	// Duplicates is the number of deposits and withdrawals whose tx id was probably seen before
	Duplicates int64 `json:"duplicates"`
}

// Errors returned by Run.
var (
	// ErrSourceBroken is returned when the source produced too many consecutive malformed rows
	ErrSourceBroken = errors.New("pipeline: record source broken")
)
