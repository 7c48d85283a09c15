package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/fundwatch/internal/diff"
	"github.com/dmitrijs2005/fundwatch/internal/forum"
	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/dmitrijs2005/fundwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coin = 1_000_000_000_000

func ptr(v int64) *int64 { return &v }

type fixture struct {
	store   *memStore
	forum   *fakeForum
	applier *Applier
	c       *models.Campaign
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	f := newFakeForum()
	c := &models.Campaign{ID: 1, PostNumber: 7, BaseTitle: "Relay node"}
	store.campaigns[c.ID] = &models.Campaign{ID: 1, PostNumber: 7, BaseTitle: "Relay node"}
	store.addresses = []*models.Address{{ID: 10, CampaignID: 1, Address: "4Addr", PostNumber: 7}}
	f.posts[7] = &forum.Post{Number: 7, Title: "Relay node", Description: "body"}

	return &fixture{
		store:   store,
		forum:   f,
		applier: NewApplier(newTxDB(t), store, f, 0, logging.NewNop()),
		c:       c,
	}
}

func (fx *fixture) donation(id int64, amount uint64) *models.Donation {
	d := &models.Donation{ID: id, AddressID: 10, CampaignID: 1, TxID: "tx" + string(rune('a'+id)), Amount: amount, Height: uint64(id), GlobalIndex: uint64(id)}
	cp := *d
	fx.store.donations[id] = &cp
	return d
}

// remoteComment puts a bot comment on the thread and mirrors it locally when
// donationID is non-zero.
func (fx *fixture) remoteComment(id int64, content string, donationID int64) *models.Comment {
	fx.forum.comments[7] = append(fx.forum.comments[7], forum.Comment{ID: id, Author: "fundbot", Content: content})
	c := &models.Comment{ID: id, Content: content}
	if donationID != 0 {
		fx.store.comments[id] = &models.Comment{ID: id, DonationID: ptr(donationID), Content: content}
	}
	return c
}

func TestApplier_CreatePostsThenLinks(t *testing.T) {
	fx := newFixture(t)
	d := fx.donation(1, coin)

	plan := diff.Compute([]*models.Donation{d}, nil)
	r := fx.applier.Apply(context.Background(), fx.c, plan)

	require.NoError(t, r.Err())
	require.Len(t, r.Outcomes, 1)
	require.NotNil(t, d.CommentID)
	assert.Equal(t, []string{"post", "edit Relay node (1 XMR raised)"}, fx.forum.calls)

	local := fx.store.comments[*d.CommentID]
	require.NotNil(t, local)
	assert.Equal(t, int64(1), *local.DonationID)
	assert.Equal(t, diff.Render(d, coin), local.Content)
	assert.Equal(t, []string{diff.Render(d, coin)}, fx.forum.contents(7))
}

func TestApplier_CreateLinkFailureKeepsRemote(t *testing.T) {
	fx := newFixture(t)
	d := fx.donation(1, coin)
	fx.store.linkErr = errors.New("db down")

	r := fx.applier.Apply(context.Background(), fx.c, diff.Compute([]*models.Donation{d}, nil))

	require.Equal(t, 1, r.Failed())
	assert.ErrorContains(t, r.Err(), "posted but not stored")
	assert.Len(t, fx.forum.contents(7), 1)
	assert.Empty(t, fx.store.comments)
	assert.Nil(t, d.CommentID)
}

func TestApplier_DeleteIsLocalFirst(t *testing.T) {
	fx := newFixture(t)
	c := fx.remoteComment(200, "stale", 1)
	fx.store.deleteErr = errors.New("db down")

	r := fx.applier.Apply(context.Background(), fx.c, diff.Compute(nil, []*models.Comment{c}))

	require.Equal(t, 1, r.Failed())
	assert.Empty(t, fx.forum.calls)
	assert.Len(t, fx.forum.contents(7), 1)
}

func TestApplier_DeleteMissingRemoteIsSuccess(t *testing.T) {
	fx := newFixture(t)
	c := &models.Comment{ID: 200, Content: "gone"}
	fx.store.comments[200] = &models.Comment{ID: 200, DonationID: ptr(1), Content: "gone"}

	r := fx.applier.Apply(context.Background(), fx.c, diff.Compute(nil, []*models.Comment{c}))

	require.NoError(t, r.Err())
	assert.Equal(t, []string{"delete 200"}, fx.forum.calls)
	assert.Empty(t, fx.store.comments)
}

func TestApplier_UpdateIsLocalFirst(t *testing.T) {
	fx := newFixture(t)
	d := fx.donation(1, coin)
	c := fx.remoteComment(200, "old text", 1)
	fx.store.linkErr = errors.New("db down")

	r := fx.applier.Apply(context.Background(), fx.c, diff.Compute([]*models.Donation{d}, []*models.Comment{c}))

	require.Equal(t, 1, r.Failed())
	assert.NotContains(t, fx.forum.calls, "update 200")
	assert.Equal(t, []string{"old text"}, fx.forum.contents(7))
}

func TestApplier_PartialFailureContinues(t *testing.T) {
	fx := newFixture(t)
	d1 := fx.donation(1, coin)
	d2 := fx.donation(2, 2*coin)
	c := fx.remoteComment(200, "old text", 1)
	fx.forum.updateErr = forum.ErrServer

	plan := diff.Compute([]*models.Donation{d1, d2}, []*models.Comment{c})
	r := fx.applier.Apply(context.Background(), fx.c, plan)

	require.Len(t, r.Outcomes, 2)
	assert.ErrorIs(t, r.Outcomes[0].Err, forum.ErrServer)
	assert.NoError(t, r.Outcomes[1].Err)
	assert.Equal(t, 1, r.Failed())
	assert.NotNil(t, d2.CommentID)

	// the failed update is committed locally and retried by the next plan
	assert.Equal(t, plan.Edits[0].Content, fx.store.comments[200].Content)
}

func TestApplier_CancelledContextSkipsEdits(t *testing.T) {
	fx := newFixture(t)
	d1 := fx.donation(1, coin)
	d2 := fx.donation(2, coin)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := fx.applier.Apply(ctx, fx.c, diff.Compute([]*models.Donation{d1, d2}, nil))

	assert.Equal(t, 2, r.Skipped)
	assert.Empty(t, r.Outcomes)
	assert.False(t, r.TitleUpdated)
	assert.Empty(t, fx.forum.calls)
}

func TestApplier_NoOpBackfillsLink(t *testing.T) {
	fx := newFixture(t)
	d := fx.donation(1, coin)
	c := fx.remoteComment(200, diff.Render(d, coin), 0)
	fx.c.Total = coin

	plan := diff.Compute([]*models.Donation{d}, []*models.Comment{c})
	require.False(t, plan.InSync())
	require.Equal(t, 0, plan.RemoteChanges())

	r := fx.applier.Apply(context.Background(), fx.c, plan)

	require.NoError(t, r.Err())
	assert.Empty(t, fx.forum.calls)
	require.Contains(t, fx.store.comments, int64(200))
	assert.Equal(t, int64(1), *fx.store.comments[200].DonationID)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Relay node (1.5 XMR raised)", Title("Relay node", coin+coin/2))
	assert.Equal(t, "Relay node (0 XMR raised)", Title("Relay node", 0))
}

func TestRefreshTitle(t *testing.T) {
	t.Run("changed", func(t *testing.T) {
		fx := newFixture(t)

		ok, err := fx.applier.RefreshTitle(context.Background(), fx.c, 2*coin)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Relay node (2 XMR raised)", fx.forum.posts[7].Title)
		assert.Equal(t, "body", fx.forum.posts[7].Description)
		assert.Equal(t, uint64(2*coin), fx.c.Total)
		assert.Equal(t, uint64(2*coin), fx.store.campaigns[1].Total)
	})

	t.Run("unchanged", func(t *testing.T) {
		fx := newFixture(t)
		fx.c.Total = coin

		ok, err := fx.applier.RefreshTitle(context.Background(), fx.c, coin)

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, fx.forum.calls)
	})

	t.Run("too long", func(t *testing.T) {
		fx := newFixture(t)
		fx.applier.titleMaxLength = 10

		ok, err := fx.applier.RefreshTitle(context.Background(), fx.c, coin)

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, fx.forum.calls)
		assert.Equal(t, uint64(0), fx.store.campaigns[1].Total)
	})

	t.Run("remote failure keeps total", func(t *testing.T) {
		fx := newFixture(t)
		fx.forum.editErr = forum.ErrForbidden

		ok, err := fx.applier.RefreshTitle(context.Background(), fx.c, coin)

		assert.ErrorIs(t, err, forum.ErrForbidden)
		assert.False(t, ok)
		assert.Equal(t, uint64(0), fx.c.Total)
	})
}
