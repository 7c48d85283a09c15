package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/fundwatch/internal/dbx"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/addresses"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/campaigns"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/comments"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/donations"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/enotes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Campaigns(db dbx.DBTX) campaigns.Repository
	Addresses(db dbx.DBTX) addresses.Repository
	Donations(db dbx.DBTX) donations.Repository
	Enotes(db dbx.DBTX) enotes.Repository
	Comments(db dbx.DBTX) comments.Repository
}
