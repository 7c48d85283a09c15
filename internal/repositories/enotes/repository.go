package enotes

import (
	"context"

	"github.com/dmitrijs2005/fundwatch/internal/models"
)

type Repository interface {
	ListByAddress(ctx context.Context, addressID int64) ([]*models.Enote, error)

	// Insert stores e unless an enote with the same public key already
	// exists. It reports whether a row was written.
	Insert(ctx context.Context, e *models.Enote) (bool, error)

	// UpdateState refreshes the ledger-observed state of a known enote.
	UpdateState(ctx context.Context, e *models.Enote) error
}
