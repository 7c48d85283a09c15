// Package ledger turns raw wallet outputs into ordered, aggregated transfers.
//
// A Transfer is built once by Aggregate or AggregateMempool and never
// mutated afterwards; every stage downstream treats it as a value.
package ledger

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrEmptyTransfer = errors.New("transfer has no outputs")
	ErrMixedTransfer = errors.New("outputs belong to different transfers")
)

// Kind distinguishes transfers included in a block from those still in the pool.
type Kind int

const (
	Confirmed Kind = iota
	Mempool
)

func (k Kind) String() string {
	switch k {
	case Confirmed:
		return "confirmed"
	case Mempool:
		return "mempool"
	default:
		return "unknown"
	}
}

// Output is a single confirmed ledger output (enote) paid to an address.
type Output struct {
	PublicKey   string
	TxID        string
	GlobalIndex uint64
	Height      uint64
	Amount      uint64
	Spent       bool
	Unlocked    bool
	Timestamp   time.Time
}

// Transfer is one transaction's worth of value paid to one address.
type Transfer struct {
	Kind        Kind
	TxID        string
	Amount      uint64
	Height      uint64
	GlobalIndex uint64
	Timestamp   time.Time
	Spent       bool
	Unlocked    bool

	// Outputs are ordered by (GlobalIndex, PublicKey). Mempool transfers
	// carry none: the pool does not reveal output keys.
	Outputs []Output
}

func (t Transfer) Confirmed() bool {
	return t.Kind == Confirmed
}

// LastOutput returns the highest-ordered constituent output.
func (t Transfer) LastOutput() (Output, bool) {
	if len(t.Outputs) == 0 {
		return Output{}, false
	}
	return t.Outputs[len(t.Outputs)-1], true
}

// Less reports whether a sorts before b in canonical order: confirmed
// transfers by ledger index, then mempool transfers by observation time,
// with the transaction id as the final tie-break.
func Less(a, b Transfer) bool {
	if a.Kind != b.Kind {
		return a.Kind == Confirmed
	}
	if a.Kind == Confirmed {
		if a.GlobalIndex != b.GlobalIndex {
			return a.GlobalIndex < b.GlobalIndex
		}
	} else if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.TxID < b.TxID
}

// Transfers is a canonically ordered transfer sequence.
type Transfers []Transfer

// Sort returns a canonically ordered copy of ts.
func Sort(ts []Transfer) Transfers {
	out := make(Transfers, len(ts))
	copy(out, ts)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// ByTxID indexes the sequence by transaction id.
func (ts Transfers) ByTxID() map[string]Transfer {
	m := make(map[string]Transfer, len(ts))
	for _, t := range ts {
		m[t.TxID] = t
	}
	return m
}
