// Package donations provides the persistence layer for donations.
//
// # Overview
//
// The package defines a Repository interface and a PostgreSQL
// implementation (PostgresRepository) over a dbx.DBTX (*sql.DB or *sql.Tx).
// Listing derives Spent, Unlocked and Enotes from the donation's enotes and
// resolves the linked comment id.
//
// Typical Usage
//
//	repo := donations.NewPostgresRepository(db)
//	list, _ := repo.ListByCampaign(ctx, campaignID)
//	_ = repo.Create(ctx, d)
//	_ = repo.Update(ctx, d)
//	_ = repo.Delete(ctx, pendingID)
package donations
