package campaigns

import (
	"context"

	"github.com/dmitrijs2005/fundwatch/internal/models"
)

// Repository describes campaign persistence used by the synchronization loop.
type Repository interface {
	// List returns every campaign ordered by id.
	List(ctx context.Context) ([]*models.Campaign, error)
	// UpdateTotal stores the running total last written into the public title.
	UpdateTotal(ctx context.Context, id int64, total uint64) error
}
