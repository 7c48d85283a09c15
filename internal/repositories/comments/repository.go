package comments

import (
	"context"
)

type Repository interface {
	// LinkDonation stores comment id with content and makes it the only
	// comment linked to donationID.
	LinkDonation(ctx context.Context, id, donationID int64, content string) error

	// LinkAddress stores comment id as the announcement of addressID.
	LinkAddress(ctx context.Context, id, addressID int64, content string) error

	// Delete removes the local row. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id int64) error

	// AnnouncementIDs returns the ids of address announcements posted in
	// the thread of the given campaign.
	AnnouncementIDs(ctx context.Context, campaignID int64) (map[int64]struct{}, error)
}
