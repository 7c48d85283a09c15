package donations

import (
	"context"

	"github.com/dmitrijs2005/fundwatch/internal/models"
)

// Repository describes donation persistence. Listing methods populate the
// derived Spent/Unlocked/Enotes fields and the linked comment id.
type Repository interface {
	ListByAddress(ctx context.Context, addressID int64) ([]*models.Donation, error)
	ListByCampaign(ctx context.Context, campaignID int64) ([]*models.Donation, error)

	// Create inserts a donation and sets its ID. A second donation for the
	// same (address, tx) pair yields common.ErrConflict.
	Create(ctx context.Context, d *models.Donation) error

	// Update rewrites the ledger-derived columns of an existing donation.
	Update(ctx context.Context, d *models.Donation) error

	// Delete removes a donation that owns no enotes. Its comment, if any, is
	// left unlinked.
	Delete(ctx context.Context, id int64) error
}
