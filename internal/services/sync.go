package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/diff"
	"github.com/dmitrijs2005/fundwatch/internal/forum"
	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/dmitrijs2005/fundwatch/internal/models"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/repomanager"
)

// SyncService brings each campaign's status comments in line with its
// donations.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	forum       Forum
	applier     *Applier
	botUser     string
	pageSize    int
	logger      logging.Logger
}

func NewSyncService(db *sql.DB, rm repomanager.RepositoryManager, f Forum, applier *Applier, botUser string, pageSize int, logger logging.Logger) *SyncService {
	return &SyncService{
		db:          db,
		repomanager: rm,
		forum:       f,
		applier:     applier,
		botUser:     botUser,
		pageSize:    pageSize,
		logger:      logger.With("module", "sync"),
	}
}

// SyncAll syncs every campaign. A failing campaign does not stop the others.
func (s *SyncService) SyncAll(ctx context.Context) error {
	campaigns, err := s.repomanager.Campaigns(s.db).List(ctx)
	if err != nil {
		return fmt.Errorf("listing campaigns: %w", err)
	}

	var errs []error
	for _, c := range campaigns {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.SyncCampaign(ctx, c); err != nil {
			s.logger.Error(ctx, "campaign sync failed", "campaign", c.ID, "error", err)
			errs = append(errs, fmt.Errorf("campaign %d: %w", c.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Plan computes the edits for c without applying them. A full comment page
// may hide the bot's trailing comments, so it is refused rather than planned
// against.
func (s *SyncService) Plan(ctx context.Context, c *models.Campaign) (diff.Plan, error) {
	remote, err := s.forum.ListComments(ctx, c.PostNumber, s.pageSize)
	if err != nil {
		return diff.Plan{}, err
	}
	if s.pageSize > 0 && len(remote) >= s.pageSize {
		return diff.Plan{}, fmt.Errorf("listing comments of post %d: %w: %d comments fill the page, thread may be truncated",
			c.PostNumber, common.ErrMalformedResponse, len(remote))
	}
	announcements, err := s.repomanager.Comments(s.db).AnnouncementIDs(ctx, c.ID)
	if err != nil {
		return diff.Plan{}, fmt.Errorf("loading announcements: %w", err)
	}
	donations, err := s.repomanager.Donations(s.db).ListByCampaign(ctx, c.ID)
	if err != nil {
		return diff.Plan{}, fmt.Errorf("loading donations: %w", err)
	}

	return diff.Compute(diff.SortDonations(donations), s.statusComments(remote, announcements)), nil
}

// SyncCampaign plans and applies the edits for c. Edit failures are in the
// report and joined into the returned error.
func (s *SyncService) SyncCampaign(ctx context.Context, c *models.Campaign) (Report, error) {
	plan, err := s.Plan(ctx, c)
	if err != nil {
		return Report{}, err
	}

	if plan.InSync() {
		var r Report
		r.TitleUpdated, r.TitleErr = s.applier.RefreshTitle(ctx, c, plan.Total)
		return r, nil
	}

	s.logger.Info(ctx, "applying comment edits", "campaign", c.ID, "edits", len(plan.Edits), "remote", plan.RemoteChanges())
	r := s.applier.Apply(ctx, c, plan)
	if n := r.Failed(); n > 0 {
		s.logger.Warn(ctx, "campaign partially synced", "campaign", c.ID, "failed", n)
	}
	return r, r.Err()
}

// statusComments keeps the bot's own donation comments, ordered by id.
func (s *SyncService) statusComments(remote []forum.Comment, announcements map[int64]struct{}) []*models.Comment {
	var out []*models.Comment
	for _, rc := range remote {
		if rc.Author != s.botUser {
			continue
		}
		if _, ok := announcements[rc.ID]; ok {
			continue
		}
		if strings.HasPrefix(rc.Content, AnnouncementPrefix) {
			continue
		}
		out = append(out, &models.Comment{ID: rc.ID, Content: rc.Content})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
