package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/dbx"
	"github.com/dmitrijs2005/fundwatch/internal/forum"
	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/dmitrijs2005/fundwatch/internal/models"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/repomanager"
)

// AnnouncementPrefix starts every address announcement comment.
const AnnouncementPrefix = "Donate to this campaign: "

func AnnouncementContent(address string) string {
	return AnnouncementPrefix + address
}

// AnnouncementService posts one comment per new receive address.
type AnnouncementService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	forum       Forum
	qr          QRSource
	logger      logging.Logger
}

func NewAnnouncementService(db *sql.DB, rm repomanager.RepositoryManager, f Forum, qr QRSource, logger logging.Logger) *AnnouncementService {
	return &AnnouncementService{
		db:          db,
		repomanager: rm,
		forum:       f,
		qr:          qr,
		logger:      logger.With("module", "announcements"),
	}
}

func (s *AnnouncementService) AnnounceAll(ctx context.Context) error {
	addresses, err := s.repomanager.Addresses(s.db).ListUnannounced(ctx)
	if err != nil {
		return fmt.Errorf("listing unannounced addresses: %w", err)
	}

	var errs []error
	for _, addr := range addresses {
		if ctx.Err() != nil {
			break
		}
		if err := s.AnnounceAddress(ctx, addr); err != nil {
			s.logger.Error(ctx, "announcement failed", "address", addr.ID, "error", err)
			errs = append(errs, fmt.Errorf("address %d: %w", addr.ID, err))
		}
	}
	return errors.Join(errs...)
}

// AnnounceAddress posts the announcement of addr, with its QR image when
// one is stored, and links the comment to the address.
func (s *AnnouncementService) AnnounceAddress(ctx context.Context, addr *models.Address) error {
	var images []forum.Image
	img, err := s.qr.QRCode(ctx, addr.Address)
	switch {
	case err == nil:
		images = append(images, forum.Image{Name: img.Name, ContentType: img.ContentType, Data: img.Data})
	case errors.Is(err, common.ErrorNotFound):
		s.logger.Debug(ctx, "no qr code stored", "address", addr.ID)
	default:
		return fmt.Errorf("loading qr code: %w", err)
	}

	content := AnnouncementContent(addr.Address)
	id, err := s.forum.PostComment(ctx, addr.PostNumber, content, images)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Comments(tx).LinkAddress(ctx, id, addr.ID, content)
	})
	if err != nil {
		return fmt.Errorf("announcement %d posted but not stored: %w", id, err)
	}

	s.logger.Info(ctx, "address announced", "address", addr.ID, "comment", id)
	return nil
}
