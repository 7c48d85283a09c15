package services

import (
	"context"

	"github.com/dmitrijs2005/fundwatch/internal/attachments"
	"github.com/dmitrijs2005/fundwatch/internal/forum"
	"github.com/dmitrijs2005/fundwatch/internal/ledger"
	"github.com/dmitrijs2005/fundwatch/internal/models"
)

// LedgerReader returns every known transfer to an address.
type LedgerReader interface {
	Transfers(ctx context.Context, addr *models.Address) (ledger.Transfers, error)
}

// Forum is the remote comment thread API.
type Forum interface {
	GetPost(ctx context.Context, number int64) (*forum.Post, error)
	ListComments(ctx context.Context, number int64, count int) ([]forum.Comment, error)
	PostComment(ctx context.Context, number int64, content string, images []forum.Image) (int64, error)
	UpdateComment(ctx context.Context, number, id int64, content string) error
	DeleteComment(ctx context.Context, number, id int64) error
	EditPost(ctx context.Context, number int64, title, description string) error
}

// QRSource loads the QR image of an address.
type QRSource interface {
	QRCode(ctx context.Context, address string) (*attachments.Image, error)
}
