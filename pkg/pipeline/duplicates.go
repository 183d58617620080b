package pipeline

import (
	"encoding/binary"

	"payments-engine/pkg/engine"

	"github.com/bits-and-blooms/bloom/v3"
)

// txFilter remembers the ids of deposits and withdrawals already read.
// Membership is probabilistic: a hit means the id was probably used before.
type txFilter struct {
	filter *bloom.BloomFilter
	key    [4]byte
}

func newTxFilter(expected uint, falsePositiveRate float64) *txFilter {
	return &txFilter{filter: bloom.NewWithEstimates(expected, falsePositiveRate)}
}

// seen records rec's transaction id and reports whether it was probably seen before.
// Only deposits and withdrawals create transactions; the other commands refer to one.
func (f *txFilter) seen(rec engine.Record) bool {
	switch rec.Command {
	case engine.CommandDeposit, engine.CommandWithdrawal:
	default:
		return false
	}

	binary.BigEndian.PutUint32(f.key[:], rec.Tx)
	return f.filter.TestAndAdd(f.key[:])
}
