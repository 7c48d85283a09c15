package models

import "time"

// Donation attributes one ledger transfer to a campaign through one of its
// addresses.
//
// TxID is empty for claims recorded before enote tracking existed; those are
// reconciled against the ledger before they are trusted. Spent, Unlocked and
// Enotes are derived from the linked enotes and are read-only.
type Donation struct {
	ID          int64
	AddressID   int64
	CampaignID  int64
	TxID        string
	Amount      uint64
	Height      uint64
	GlobalIndex uint64
	Timestamp   time.Time

	// CommentID is the remote status comment linked to this donation, if any.
	CommentID *int64

	Spent    bool
	Unlocked bool
	Enotes   int
}

// Confirmed reports whether the donation's transfer has been included in a
// block.
func (d *Donation) Confirmed() bool {
	return d.Height > 0
}

// Attributed reports whether the donation is bound to a ledger transaction.
func (d *Donation) Attributed() bool {
	return d.TxID != ""
}
