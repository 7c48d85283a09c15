package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fundwatch/internal/models"
)

// Destination is one recipient of a pool transaction.
type Destination struct {
	Address string
	Amount  uint64
}

// PoolEntry is an unconfirmed transaction as reported by the wallet.
type PoolEntry struct {
	TxID            string
	Address         string
	Amount          uint64
	Amounts         []uint64
	Destinations    []Destination
	Timestamp       time.Time
	DoubleSpendSeen bool
}

// Source is the wallet surface the reader depends on. Implementations wrap
// transport failures in common.ErrLedgerUnavailable.
type Source interface {
	IncomingTransfers(ctx context.Context, major, minor uint32) ([]Output, error)
	PoolTransfers(ctx context.Context, major, minor uint32) ([]PoolEntry, error)
}

// Reader fetches every known transfer to an address.
type Reader struct {
	source Source
}

func NewReader(source Source) *Reader {
	return &Reader{source: source}
}

type outputKey struct {
	txID   string
	height uint64
}

// Transfers returns the confirmed and mempool transfers paying addr in
// canonical order. A failure of either wallet query fails the whole call:
// an address that could not be read has unknown transfers, not zero.
func (r *Reader) Transfers(ctx context.Context, addr *models.Address) (Transfers, error) {
	outputs, err := r.source.IncomingTransfers(ctx, addr.Major, addr.Minor)
	if err != nil {
		return nil, fmt.Errorf("incoming transfers for %s: %w", addr.Address, err)
	}
	pool, err := r.source.PoolTransfers(ctx, addr.Major, addr.Minor)
	if err != nil {
		return nil, fmt.Errorf("pool transfers for %s: %w", addr.Address, err)
	}

	confirmed, err := groupConfirmed(outputs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(confirmed))
	for _, t := range confirmed {
		seen[t.TxID] = struct{}{}
	}
	mempool, err := groupPool(addr.Address, pool, seen)
	if err != nil {
		return nil, err
	}

	return Sort(append(confirmed, mempool...)), nil
}

func groupConfirmed(outputs []Output) ([]Transfer, error) {
	groups := make(map[outputKey][]Output)
	var order []outputKey
	for _, o := range outputs {
		k := outputKey{txID: o.TxID, height: o.Height}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], o)
	}

	result := make([]Transfer, 0, len(order))
	for _, k := range order {
		t, err := Aggregate(groups[k])
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

func groupPool(address string, pool []PoolEntry, confirmed map[string]struct{}) ([]Transfer, error) {
	groups := make(map[string][]Candidate)
	var order []string
	for _, e := range pool {
		if e.DoubleSpendSeen {
			continue
		}
		if _, ok := confirmed[e.TxID]; ok {
			continue
		}
		for _, c := range expand(e) {
			if c.Address != address {
				continue
			}
			if _, ok := groups[c.TxID]; !ok {
				order = append(order, c.TxID)
			}
			groups[c.TxID] = append(groups[c.TxID], c)
		}
	}

	result := make([]Transfer, 0, len(order))
	for _, txID := range order {
		t, err := AggregateMempool(txID, address, groups[txID])
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

// expand splits a pool entry into one candidate per destination. Entries
// without destinations fall back to the per-output amounts and then to the
// entry total, all paying the entry's own address.
func expand(e PoolEntry) []Candidate {
	var out []Candidate
	switch {
	case len(e.Destinations) > 0:
		for _, d := range e.Destinations {
			out = append(out, Candidate{TxID: e.TxID, Address: d.Address, Amount: d.Amount, Timestamp: e.Timestamp})
		}
	case len(e.Amounts) > 0:
		for _, a := range e.Amounts {
			out = append(out, Candidate{TxID: e.TxID, Address: e.Address, Amount: a, Timestamp: e.Timestamp})
		}
	default:
		out = append(out, Candidate{TxID: e.TxID, Address: e.Address, Amount: e.Amount, Timestamp: e.Timestamp})
	}
	return out
}
