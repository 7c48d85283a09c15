// Package campaigns provides PostgreSQL-backed campaign persistence.
package campaigns

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/dbx"
	"github.com/dmitrijs2005/fundwatch/internal/models"
)

// PostgresRepository implements campaign storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Campaign, error) {
	query := `SELECT id, post_number, base_title, total, created_at FROM campaigns ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select campaigns: %w", err)
	}
	defer rows.Close()

	var result []*models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.PostNumber, &c.BaseTitle, &c.Total, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateTotal(ctx context.Context, id int64, total uint64) error {
	query := `UPDATE campaigns SET total = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, total)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
