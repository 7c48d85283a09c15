package addresses

import (
	"context"

	"github.com/dmitrijs2005/fundwatch/internal/models"
)

// Repository describes read access to campaign receive addresses.
type Repository interface {
	// List returns all addresses with their campaign post number.
	List(ctx context.Context) ([]*models.Address, error)
	// ListUnannounced returns addresses that have no announcement comment yet.
	ListUnannounced(ctx context.Context) ([]*models.Address, error)
}
