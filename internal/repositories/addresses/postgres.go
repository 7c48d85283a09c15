// Package addresses provides PostgreSQL-backed access to receive addresses.
package addresses

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fundwatch/internal/dbx"
	"github.com/dmitrijs2005/fundwatch/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectAddresses = `
	SELECT a.id, a.campaign_id, a.address, a.major, a.minor, c.post_number
	FROM addresses a
		JOIN campaigns c ON c.id = a.campaign_id
`

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Address, error) {
	return r.query(ctx, selectAddresses+` ORDER BY a.id`)
}

func (r *PostgresRepository) ListUnannounced(ctx context.Context) ([]*models.Address, error) {
	query := selectAddresses + `
		LEFT JOIN comments m ON m.address_id = a.id
	WHERE m.id IS NULL
	ORDER BY a.id`
	return r.query(ctx, query)
}

func (r *PostgresRepository) query(ctx context.Context, query string) ([]*models.Address, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select addresses: %w", err)
	}
	defer rows.Close()

	var result []*models.Address
	for rows.Next() {
		var a models.Address
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.Address, &a.Major, &a.Minor, &a.PostNumber); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
