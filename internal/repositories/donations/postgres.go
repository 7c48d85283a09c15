package donations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/dbx"
	"github.com/dmitrijs2005/fundwatch/internal/models"
)

// PostgresRepository implements donation storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// selectDonations aggregates enote state per donation: a donation is spent
// (unlocked) only when every one of its enotes is.
const selectDonations = `
	SELECT d.id, d.address_id, a.campaign_id, COALESCE(d.tx_id, ''), d.amount, d.height, d.global_index,
		d.observed_at, m.id, COUNT(e.public_key),
		COALESCE(BOOL_AND(e.spent), FALSE), COALESCE(BOOL_AND(e.unlocked), FALSE)
	FROM donations d
		JOIN addresses a ON a.id = d.address_id
		LEFT JOIN enotes e ON e.donation_id = d.id
		LEFT JOIN comments m ON m.donation_id = d.id
`

const groupDonations = `
	GROUP BY d.id, a.campaign_id, m.id
	ORDER BY d.id
`

// ListByAddress returns all donations paid to addressID, ordered by id.
func (r *PostgresRepository) ListByAddress(ctx context.Context, addressID int64) ([]*models.Donation, error) {
	return r.query(ctx, selectDonations+` WHERE d.address_id = $1`+groupDonations, addressID)
}

// ListByCampaign returns all donations of a campaign, ordered by id. Callers
// apply the display order themselves.
func (r *PostgresRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]*models.Donation, error) {
	return r.query(ctx, selectDonations+` WHERE a.campaign_id = $1`+groupDonations, campaignID)
}

func (r *PostgresRepository) query(ctx context.Context, query string, arg int64) ([]*models.Donation, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select donations: %w", err)
	}
	defer rows.Close()

	var result []*models.Donation
	for rows.Next() {
		var (
			d         models.Donation
			commentID sql.NullInt64
		)
		if err := rows.Scan(
			&d.ID, &d.AddressID, &d.CampaignID, &d.TxID, &d.Amount, &d.Height, &d.GlobalIndex,
			&d.Timestamp, &commentID, &d.Enotes, &d.Spent, &d.Unlocked,
		); err != nil {
			return nil, err
		}
		if commentID.Valid {
			id := commentID.Int64
			d.CommentID = &id
		}
		// a donation without enotes is still in the pool
		if d.Enotes == 0 {
			d.Spent, d.Unlocked = false, false
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, d *models.Donation) error {
	query := `
		INSERT INTO donations (address_id, tx_id, amount, height, global_index, observed_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		d.AddressID, d.TxID, d.Amount, d.Height, d.GlobalIndex, d.Timestamp).Scan(&d.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return fmt.Errorf("donation for tx %s: %w", d.TxID, common.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, d *models.Donation) error {
	query := `
		UPDATE donations
		SET tx_id = NULLIF($2, ''), amount = $3, height = $4, global_index = $5, observed_at = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		d.ID, d.TxID, d.Amount, d.Height, d.GlobalIndex, d.Timestamp)
	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return fmt.Errorf("donation for tx %s: %w", d.TxID, common.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM donations d
		WHERE d.id = $1
		  AND NOT EXISTS (SELECT 1 FROM enotes e WHERE e.donation_id = d.id)
	`
	res, err := r.db.ExecContext(ctx, query, id)
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
