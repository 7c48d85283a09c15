package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/dmitrijs2005/fundwatch/internal/attachments"
	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/dbx"
	"github.com/dmitrijs2005/fundwatch/internal/forum"
	"github.com/dmitrijs2005/fundwatch/internal/ledger"
	"github.com/dmitrijs2005/fundwatch/internal/models"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/addresses"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/campaigns"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/comments"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/donations"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/enotes"
	_ "modernc.org/sqlite"
)

// newTxDB returns a real database for dbx.WithTx to begin and commit on.
// The fakes below keep their state in memory.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// -------- in-memory repositories --------

type memStore struct {
	mu        sync.Mutex
	campaigns map[int64]*models.Campaign
	addresses []*models.Address
	donations map[int64]*models.Donation
	enotes    map[string]*models.Enote
	comments  map[int64]*models.Comment
	nextID    int64

	linkErr   error
	deleteErr error
	createErr error
}

func newMemStore() *memStore {
	return &memStore{
		campaigns: map[int64]*models.Campaign{},
		donations: map[int64]*models.Donation{},
		enotes:    map[string]*models.Enote{},
		comments:  map[int64]*models.Comment{},
		nextID:    1000,
	}
}

func (s *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (s *memStore) Campaigns(dbx.DBTX) campaigns.Repository      { return &memCampaigns{s} }
func (s *memStore) Addresses(dbx.DBTX) addresses.Repository      { return &memAddresses{s} }
func (s *memStore) Donations(dbx.DBTX) donations.Repository      { return &memDonations{s} }
func (s *memStore) Enotes(dbx.DBTX) enotes.Repository            { return &memEnotes{s} }
func (s *memStore) Comments(dbx.DBTX) comments.Repository        { return &memComments{s} }

type memCampaigns struct{ s *memStore }

func (r *memCampaigns) List(ctx context.Context) ([]*models.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Campaign
	for _, c := range r.s.campaigns {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCampaigns) UpdateTotal(ctx context.Context, id int64, total uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.Total = total
	return nil
}

type memAddresses struct{ s *memStore }

func (r *memAddresses) List(ctx context.Context) ([]*models.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*models.Address(nil), r.s.addresses...), nil
}

func (r *memAddresses) ListUnannounced(ctx context.Context) ([]*models.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Address
	for _, a := range r.s.addresses {
		announced := false
		for _, c := range r.s.comments {
			if c.AddressID != nil && *c.AddressID == a.ID {
				announced = true
			}
		}
		if !announced {
			out = append(out, a)
		}
	}
	return out, nil
}

type memDonations struct{ s *memStore }

// view derives status fields the way the SQL aggregate does.
func (r *memDonations) view(d *models.Donation) *models.Donation {
	v := *d
	v.Spent, v.Unlocked, v.Enotes, v.CommentID = true, true, 0, nil
	for _, e := range r.s.enotes {
		if e.DonationID != d.ID {
			continue
		}
		v.Enotes++
		v.Spent = v.Spent && e.Spent
		v.Unlocked = v.Unlocked && e.Unlocked
	}
	if v.Enotes == 0 {
		v.Spent, v.Unlocked = false, false
	}
	for _, c := range r.s.comments {
		if c.DonationID != nil && *c.DonationID == d.ID {
			id := c.ID
			v.CommentID = &id
		}
	}
	for _, a := range r.s.addresses {
		if a.ID == d.AddressID {
			v.CampaignID = a.CampaignID
		}
	}
	return &v
}

func (r *memDonations) list(match func(*models.Donation) bool) []*models.Donation {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Donation
	for _, d := range r.s.donations {
		v := r.view(d)
		if match(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memDonations) ListByAddress(ctx context.Context, addressID int64) ([]*models.Donation, error) {
	return r.list(func(d *models.Donation) bool { return d.AddressID == addressID }), nil
}

func (r *memDonations) ListByCampaign(ctx context.Context, campaignID int64) ([]*models.Donation, error) {
	return r.list(func(d *models.Donation) bool { return d.CampaignID == campaignID }), nil
}

func (r *memDonations) Create(ctx context.Context, d *models.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createErr != nil {
		return r.s.createErr
	}
	for _, x := range r.s.donations {
		if d.TxID != "" && x.AddressID == d.AddressID && x.TxID == d.TxID {
			return fmt.Errorf("donation for tx %s: %w", d.TxID, common.ErrConflict)
		}
	}
	r.s.nextID++
	d.ID = r.s.nextID
	cp := *d
	r.s.donations[d.ID] = &cp
	return nil
}

func (r *memDonations) Update(ctx context.Context, d *models.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.donations[d.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *d
	r.s.donations[d.ID] = &cp
	return nil
}

func (r *memDonations) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.donations[id]; !ok {
		return common.ErrorNotFound
	}
	for _, e := range r.s.enotes {
		if e.DonationID == id {
			return common.ErrorNotFound
		}
	}
	delete(r.s.donations, id)
	for _, c := range r.s.comments {
		if c.DonationID != nil && *c.DonationID == id {
			c.DonationID = nil
		}
	}
	return nil
}

type memEnotes struct{ s *memStore }

func (r *memEnotes) ListByAddress(ctx context.Context, addressID int64) ([]*models.Enote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Enote
	for _, e := range r.s.enotes {
		if e.AddressID == addressID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memEnotes) Insert(ctx context.Context, e *models.Enote) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enotes[e.PublicKey]; ok {
		return false, nil
	}
	cp := *e
	r.s.enotes[e.PublicKey] = &cp
	return true, nil
}

func (r *memEnotes) UpdateState(ctx context.Context, e *models.Enote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.enotes[e.PublicKey]
	if !ok {
		return common.ErrorNotFound
	}
	prev.Height, prev.Spent, prev.Unlocked = e.Height, e.Spent, e.Unlocked
	return nil
}

type memComments struct{ s *memStore }

func (r *memComments) LinkDonation(ctx context.Context, id, donationID int64, content string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.linkErr != nil {
		return r.s.linkErr
	}
	for _, c := range r.s.comments {
		if c.DonationID != nil && *c.DonationID == donationID && c.ID != id {
			c.DonationID = nil
		}
	}
	r.s.comments[id] = &models.Comment{ID: id, DonationID: &donationID, Content: content}
	return nil
}

func (r *memComments) LinkAddress(ctx context.Context, id, addressID int64, content string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.linkErr != nil {
		return r.s.linkErr
	}
	r.s.comments[id] = &models.Comment{ID: id, AddressID: &addressID, Content: content}
	return nil
}

func (r *memComments) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deleteErr != nil {
		return r.s.deleteErr
	}
	delete(r.s.comments, id)
	return nil
}

func (r *memComments) AnnouncementIDs(ctx context.Context, campaignID int64) (map[int64]struct{}, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := map[int64]struct{}{}
	for _, c := range r.s.comments {
		if c.AddressID == nil {
			continue
		}
		for _, a := range r.s.addresses {
			if a.ID == *c.AddressID && a.CampaignID == campaignID {
				ids[c.ID] = struct{}{}
			}
		}
	}
	return ids, nil
}

// -------- forum --------

type fakeForum struct {
	mu       sync.Mutex
	posts    map[int64]*forum.Post
	comments map[int64][]forum.Comment
	nextID   int64
	calls    []string
	images   [][]forum.Image

	postErr   error
	updateErr error
	deleteErr error
	listErr   error
	editErr   error
}

func newFakeForum() *fakeForum {
	return &fakeForum{
		posts:    map[int64]*forum.Post{},
		comments: map[int64][]forum.Comment{},
		nextID:   100,
	}
}

func (f *fakeForum) GetPost(ctx context.Context, number int64) (*forum.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[number]
	if !ok {
		return nil, forum.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeForum) ListComments(ctx context.Context, number int64, count int) ([]forum.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]forum.Comment(nil), f.comments[number]...)
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func (f *fakeForum) PostComment(ctx context.Context, number int64, content string, images []forum.Image) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "post")
	if f.postErr != nil {
		return 0, f.postErr
	}
	f.nextID++
	f.comments[number] = append(f.comments[number], forum.Comment{ID: f.nextID, Author: "fundbot", Content: content})
	f.images = append(f.images, images)
	return f.nextID, nil
}

func (f *fakeForum) UpdateComment(ctx context.Context, number, id int64, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("update %d", id))
	if f.updateErr != nil {
		return f.updateErr
	}
	for i, c := range f.comments[number] {
		if c.ID == id {
			f.comments[number][i].Content = content
			return nil
		}
	}
	return forum.ErrNotFound
}

func (f *fakeForum) DeleteComment(ctx context.Context, number, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("delete %d", id))
	if f.deleteErr != nil {
		return f.deleteErr
	}
	cs := f.comments[number]
	for i, c := range cs {
		if c.ID == id {
			f.comments[number] = append(cs[:i:i], cs[i+1:]...)
			return nil
		}
	}
	return forum.ErrNotFound
}

func (f *fakeForum) EditPost(ctx context.Context, number int64, title, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "edit "+title)
	if f.editErr != nil {
		return f.editErr
	}
	p, ok := f.posts[number]
	if !ok {
		return forum.ErrNotFound
	}
	p.Title, p.Description = title, description
	return nil
}

func (f *fakeForum) contents(number int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.comments[number] {
		out = append(out, c.Content)
	}
	return out
}

// -------- ledger and storage --------

type fakeReader struct {
	transfers map[int64]ledger.Transfers
	err       error
}

func (r *fakeReader) Transfers(ctx context.Context, addr *models.Address) (ledger.Transfers, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.transfers[addr.ID], nil
}

type fakeQR struct {
	img *attachments.Image
	err error
}

func (q *fakeQR) QRCode(ctx context.Context, address string) (*attachments.Image, error) {
	return q.img, q.err
}
