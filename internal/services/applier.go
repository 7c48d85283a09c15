package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/dbx"
	"github.com/dmitrijs2005/fundwatch/internal/diff"
	"github.com/dmitrijs2005/fundwatch/internal/forum"
	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/dmitrijs2005/fundwatch/internal/metrics"
	"github.com/dmitrijs2005/fundwatch/internal/models"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/repomanager"
)

// Outcome is the result of one edit.
type Outcome struct {
	Edit diff.Edit
	Err  error
}

type Report struct {
	Outcomes []Outcome
	// Skipped counts edits not started because the context was done.
	Skipped int

	TitleUpdated bool
	TitleErr     error
}

// Failed returns the number of edits that did not complete.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Err joins the errors of every failed edit.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Applier executes diff plans against the local mirror and the forum.
//
// Deletes and updates commit locally before the remote call, creates post
// remotely before the local insert. Either way a failure leaves a state the
// next plan converges from.
type Applier struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	forum          Forum
	titleMaxLength int
	logger         logging.Logger
}

func NewApplier(db *sql.DB, rm repomanager.RepositoryManager, f Forum, titleMaxLength int, logger logging.Logger) *Applier {
	return &Applier{
		db:             db,
		repomanager:    rm,
		forum:          f,
		titleMaxLength: titleMaxLength,
		logger:         logger.With("module", "applier"),
	}
}

// Apply runs every edit of plan in order, each in its own transaction. A
// failed edit does not undo earlier ones and does not stop later ones. The
// context is checked between edits only.
func (a *Applier) Apply(ctx context.Context, c *models.Campaign, plan diff.Plan) Report {
	var r Report
	for i, e := range plan.Edits {
		if ctx.Err() != nil {
			r.Skipped = len(plan.Edits) - i
			a.logger.Warn(ctx, "sync interrupted", "campaign", c.ID, "skipped", r.Skipped)
			return r
		}

		err := a.apply(ctx, c, e)
		if err != nil {
			metrics.CommentEditFailure(e.Kind.String())
			a.logger.Error(ctx, "comment edit failed",
				"campaign", c.ID, "kind", e.Kind.String(), "position", e.Position, "error", err)
		} else if e.Kind != diff.NoOp {
			metrics.CommentEdit(e.Kind.String())
		}
		r.Outcomes = append(r.Outcomes, Outcome{Edit: e, Err: err})
	}

	if ctx.Err() == nil {
		r.TitleUpdated, r.TitleErr = a.RefreshTitle(ctx, c, plan.Total)
		if r.TitleErr != nil {
			a.logger.Warn(ctx, "title refresh failed", "campaign", c.ID, "error", r.TitleErr)
		}
	}
	return r
}

func (a *Applier) apply(ctx context.Context, c *models.Campaign, e diff.Edit) error {
	switch e.Kind {
	case diff.Delete:
		return a.delete(ctx, c, e)
	case diff.Update:
		return a.update(ctx, c, e)
	case diff.Create:
		return a.create(ctx, c, e)
	case diff.NoOp:
		return a.backfill(ctx, e)
	default:
		return fmt.Errorf("unknown edit kind %d", e.Kind)
	}
}

func (a *Applier) delete(ctx context.Context, c *models.Campaign, e diff.Edit) error {
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return a.repomanager.Comments(tx).Delete(ctx, e.Comment.ID)
	})
	if err != nil {
		return fmt.Errorf("deleting local comment %d: %w", e.Comment.ID, err)
	}

	err = a.forum.DeleteComment(ctx, c.PostNumber, e.Comment.ID)
	if errors.Is(err, forum.ErrNotFound) {
		return nil
	}
	return err
}

func (a *Applier) update(ctx context.Context, c *models.Campaign, e diff.Edit) error {
	if err := a.link(ctx, e.Comment.ID, e.Donation.ID, e.Content); err != nil {
		return err
	}
	return a.forum.UpdateComment(ctx, c.PostNumber, e.Comment.ID, e.Content)
}

func (a *Applier) create(ctx context.Context, c *models.Campaign, e diff.Edit) error {
	id, err := a.forum.PostComment(ctx, c.PostNumber, e.Content, nil)
	if err != nil {
		return err
	}
	if err := a.link(ctx, id, e.Donation.ID, e.Content); err != nil {
		// the remote comment stays; the next plan sees it as an unlinked NoOp
		return fmt.Errorf("comment %d posted but not stored: %w", id, err)
	}
	e.Donation.CommentID = &id
	return nil
}

func (a *Applier) backfill(ctx context.Context, e diff.Edit) error {
	if e.Linked() {
		return nil
	}
	if err := a.link(ctx, e.Comment.ID, e.Donation.ID, e.Comment.Content); err != nil {
		return err
	}
	a.logger.Info(ctx, "comment link backfilled", "comment", e.Comment.ID, "donation", e.Donation.ID)
	return nil
}

func (a *Applier) link(ctx context.Context, commentID, donationID int64, content string) error {
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return a.repomanager.Comments(tx).LinkDonation(ctx, commentID, donationID, content)
	})
	if err != nil {
		return fmt.Errorf("linking comment %d to donation %d: %w", commentID, donationID, err)
	}
	return nil
}

// Title returns the public title of a campaign with the given total.
func Title(base string, total uint64) string {
	return fmt.Sprintf("%s (%s %s raised)", base, diff.FormatAmount(total), common.CoinTicker)
}

// RefreshTitle renames the campaign post when total differs from the last
// published one and the new title fits. It reports whether the post changed.
func (a *Applier) RefreshTitle(ctx context.Context, c *models.Campaign, total uint64) (bool, error) {
	if total == c.Total {
		return false, nil
	}

	title := Title(c.BaseTitle, total)
	if a.titleMaxLength > 0 && len(title) > a.titleMaxLength {
		a.logger.Warn(ctx, "title too long, not renaming", "campaign", c.ID, "length", len(title))
		return false, nil
	}

	post, err := a.forum.GetPost(ctx, c.PostNumber)
	if err != nil {
		return false, err
	}
	if err := a.forum.EditPost(ctx, c.PostNumber, title, post.Description); err != nil {
		return false, err
	}
	if err := a.repomanager.Campaigns(a.db).UpdateTotal(ctx, c.ID, total); err != nil {
		return true, fmt.Errorf("storing campaign total: %w", err)
	}
	c.Total = total
	a.logger.Info(ctx, "campaign title updated", "campaign", c.ID, "title", title)
	return true, nil
}
