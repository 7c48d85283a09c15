// Package comments provides PostgreSQL-backed storage of the local mirror of
// remote status comments.
package comments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fundwatch/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// LinkDonation must run inside a transaction: it detaches any other comment
// from the donation before upserting the link.
func (r *PostgresRepository) LinkDonation(ctx context.Context, id, donationID int64, content string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE comments SET donation_id = NULL WHERE donation_id = $1 AND id <> $2`,
		donationID, id); err != nil {
		return fmt.Errorf("failed to detach donation comment: %w", err)
	}

	query := `
		INSERT INTO comments (id, donation_id, address_id, content)
		VALUES ($1, $2, NULL, $3)
		ON CONFLICT (id) DO UPDATE
		SET donation_id = EXCLUDED.donation_id, address_id = NULL, content = EXCLUDED.content
	`
	if _, err := r.db.ExecContext(ctx, query, id, donationID, content); err != nil {
		return fmt.Errorf("failed to upsert comment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LinkAddress(ctx context.Context, id, addressID int64, content string) error {
	query := `
		INSERT INTO comments (id, donation_id, address_id, content)
		VALUES ($1, NULL, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET donation_id = NULL, address_id = EXCLUDED.address_id, content = EXCLUDED.content
	`
	if _, err := r.db.ExecContext(ctx, query, id, addressID, content); err != nil {
		return fmt.Errorf("failed to upsert comment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AnnouncementIDs(ctx context.Context, campaignID int64) (map[int64]struct{}, error) {
	query := `
		SELECT m.id
		FROM comments m
			JOIN addresses a ON a.id = m.address_id
		WHERE a.campaign_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to select announcements: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
