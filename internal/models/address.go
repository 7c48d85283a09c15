package models

// Address is a campaign receive address with its wallet derivation index.
type Address struct {
	ID         int64
	CampaignID int64
	Address    string
	Major      uint32
	Minor      uint32
	// PostNumber is denormalized from the owning campaign for convenience.
	PostNumber int64
}
