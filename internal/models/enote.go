package models

// Enote is a single ledger output paid to an address. PublicKey is its
// global identity.
type Enote struct {
	PublicKey   string
	DonationID  int64
	AddressID   int64
	TxID        string
	GlobalIndex uint64
	Height      uint64
	Amount      uint64
	Spent       bool
	Unlocked    bool
}
