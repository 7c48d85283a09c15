package models

// Comment mirrors one remote status post. It is owned by a donation or, for
// address announcements, by an address.
type Comment struct {
	ID         int64
	DonationID *int64
	AddressID  *int64
	Content    string
}
