package ledger

import (
	"fmt"
	"sort"
	"time"
)

// Aggregate folds the outputs of one confirmed transaction into a Transfer.
// The result does not depend on the order of outputs.
func Aggregate(outputs []Output) (Transfer, error) {
	if len(outputs) == 0 {
		return Transfer{}, ErrEmptyTransfer
	}

	sorted := make([]Output, len(outputs))
	copy(sorted, outputs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].GlobalIndex != sorted[j].GlobalIndex {
			return sorted[i].GlobalIndex < sorted[j].GlobalIndex
		}
		return sorted[i].PublicKey < sorted[j].PublicKey
	})

	first := sorted[0]
	t := Transfer{
		Kind:        Confirmed,
		TxID:        first.TxID,
		Height:      first.Height,
		GlobalIndex: first.GlobalIndex,
		Spent:       true,
		Unlocked:    true,
		Outputs:     sorted,
	}
	for _, o := range sorted {
		if o.TxID != t.TxID || o.Height != t.Height {
			return Transfer{}, fmt.Errorf("%w: %s@%d and %s@%d", ErrMixedTransfer, t.TxID, t.Height, o.TxID, o.Height)
		}
		t.Amount += o.Amount
		t.Spent = t.Spent && o.Spent
		t.Unlocked = t.Unlocked && o.Unlocked
		if o.Timestamp.After(t.Timestamp) {
			t.Timestamp = o.Timestamp
		}
	}
	return t, nil
}

// Candidate is one pool destination paying a known address.
type Candidate struct {
	TxID      string
	Address   string
	Amount    uint64
	Timestamp time.Time
}

// AggregateMempool sums the candidates of one pool transaction paying
// address. The timestamp is the latest one observed.
func AggregateMempool(txID, address string, candidates []Candidate) (Transfer, error) {
	if len(candidates) == 0 {
		return Transfer{}, ErrEmptyTransfer
	}

	t := Transfer{Kind: Mempool, TxID: txID}
	for _, c := range candidates {
		if c.TxID != txID || c.Address != address {
			return Transfer{}, fmt.Errorf("%w: %s to %s", ErrMixedTransfer, c.TxID, c.Address)
		}
		t.Amount += c.Amount
		if c.Timestamp.After(t.Timestamp) {
			t.Timestamp = c.Timestamp
		}
	}
	return t, nil
}
