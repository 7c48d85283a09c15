// Package enotes provides PostgreSQL-backed storage of individual ledger outputs.
package enotes

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/dbx"
	"github.com/dmitrijs2005/fundwatch/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByAddress(ctx context.Context, addressID int64) ([]*models.Enote, error) {
	query := `
		SELECT public_key, donation_id, address_id, tx_id, global_index, height, amount, spent, unlocked
		FROM enotes
		WHERE address_id = $1
		ORDER BY global_index, public_key
	`
	rows, err := r.db.QueryContext(ctx, query, addressID)
	if err != nil {
		return nil, fmt.Errorf("failed to select enotes: %w", err)
	}
	defer rows.Close()

	var result []*models.Enote
	for rows.Next() {
		var e models.Enote
		if err := rows.Scan(&e.PublicKey, &e.DonationID, &e.AddressID, &e.TxID,
			&e.GlobalIndex, &e.Height, &e.Amount, &e.Spent, &e.Unlocked); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, e *models.Enote) (bool, error) {
	query := `
		INSERT INTO enotes (public_key, donation_id, address_id, tx_id, global_index, height, amount, spent, unlocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (public_key) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, e.PublicKey, e.DonationID, e.AddressID, e.TxID,
		e.GlobalIndex, e.Height, e.Amount, e.Spent, e.Unlocked)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) UpdateState(ctx context.Context, e *models.Enote) error {
	query := `
		UPDATE enotes SET height = $2, spent = $3, unlocked = $4
		WHERE public_key = $1
	`
	res, err := r.db.ExecContext(ctx, query, e.PublicKey, e.Height, e.Spent, e.Unlocked)
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
