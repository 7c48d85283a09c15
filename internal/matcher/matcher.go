// Package matcher pairs recorded donation claims with ledger transfers.
package matcher

import (
	"sort"

	"github.com/dmitrijs2005/fundwatch/internal/ledger"
)

// Claim is a recorded donation amount not yet bound to a transfer.
type Claim struct {
	ID     int64
	Amount uint64
}

type Options struct {
	// LegacyHeight enables last-output matching for confirmed transfers at
	// or below this height. Zero disables it.
	LegacyHeight uint64
}

// Pair binds one claim to one transfer.
type Pair struct {
	Claim    Claim
	Transfer ledger.Transfer
	// Legacy is set when only the transfer's last output matched the claim.
	Legacy bool
	// EffectiveAmount is the amount the claim should carry from now on.
	EffectiveAmount uint64
}

type Result struct {
	Matches      []Pair
	Unreconciled []Claim
	// Unconsumed lists the transfers no claim was bound to, in canonical order.
	Unconsumed ledger.Transfers
}

// Match walks claims in ascending amount order against transfers in
// canonical order with a single forward cursor. A transfer is consumed at
// most once. A claim that exhausts the cursor is reported unreconciled and
// the cursor returns to where that claim started.
func Match(claims []Claim, transfers ledger.Transfers, opts Options) Result {
	sorted := make([]Claim, len(claims))
	copy(sorted, claims)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount < sorted[j].Amount
		}
		return sorted[i].ID < sorted[j].ID
	})

	var res Result
	consumed := make([]bool, len(transfers))
	cursor := 0

	for _, c := range sorted {
		i, legacy := find(c, transfers[cursor:], opts)
		if i < 0 {
			res.Unreconciled = append(res.Unreconciled, c)
			continue
		}
		i += cursor
		t := transfers[i]
		res.Matches = append(res.Matches, Pair{Claim: c, Transfer: t, Legacy: legacy, EffectiveAmount: t.Amount})
		consumed[i] = true
		cursor = i + 1
	}

	for i, t := range transfers {
		if !consumed[i] {
			res.Unconsumed = append(res.Unconsumed, t)
		}
	}
	return res
}

// find returns the index of the first transfer matching c exactly or,
// failing that, the first legacy match.
func find(c Claim, transfers ledger.Transfers, opts Options) (int, bool) {
	for i, t := range transfers {
		if t.Amount == c.Amount {
			return i, false
		}
	}
	for i, t := range transfers {
		if legacyMatch(c, t, opts) {
			return i, true
		}
	}
	return -1, false
}

func legacyMatch(c Claim, t ledger.Transfer, opts Options) bool {
	if opts.LegacyHeight == 0 || !t.Confirmed() || t.Height > opts.LegacyHeight {
		return false
	}
	last, ok := t.LastOutput()
	return ok && last.Amount == c.Amount
}
