package diff

import (
	"sort"

	"github.com/dmitrijs2005/fundwatch/internal/models"
)

type Kind int

const (
	NoOp Kind = iota
	Create
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case NoOp:
		return "noop"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Edit is one position of the plan. Donation is nil for Delete, Comment is
// nil for Create. Content is the rendered text for every kind but Delete.
type Edit struct {
	Kind     Kind
	Position int
	Donation *models.Donation
	Comment  *models.Comment
	Content  string
}

// Linked reports whether the local mirror already ties the edit's comment
// to its donation.
func (e Edit) Linked() bool {
	return e.Donation != nil && e.Comment != nil &&
		e.Donation.CommentID != nil && *e.Donation.CommentID == e.Comment.ID
}

type Plan struct {
	Edits []Edit
	// Total is the cumulative amount of all donations.
	Total uint64

	remote int
	inSync bool
}

// RemoteChanges is the number of edits that touch the remote thread.
func (p Plan) RemoteChanges() int {
	return p.remote
}

// InSync reports whether applying the plan would change nothing, locally
// or remotely.
func (p Plan) InSync() bool {
	return p.inSync
}

// Compute pairs donations (in canonical order) with comments (ordered by
// id) position by position.
func Compute(donations []*models.Donation, comments []*models.Comment) Plan {
	n := max(len(donations), len(comments))
	p := Plan{Edits: make([]Edit, 0, n), inSync: true}

	for i := 0; i < n; i++ {
		e := Edit{Position: i}
		if i < len(donations) {
			e.Donation = donations[i]
			p.Total += e.Donation.Amount
			e.Content = Render(e.Donation, p.Total)
		}
		if i < len(comments) {
			e.Comment = comments[i]
		}

		switch {
		case e.Comment == nil:
			e.Kind = Create
		case e.Donation == nil:
			e.Kind = Delete
		case e.Comment.Content != e.Content:
			e.Kind = Update
		default:
			e.Kind = NoOp
		}

		if e.Kind != NoOp {
			p.remote++
			p.inSync = false
		} else if !e.Linked() {
			p.inSync = false
		}
		p.Edits = append(p.Edits, e)
	}
	return p
}

// SortDonations returns donations in canonical display order: confirmed
// first by ledger index, then by timestamp, then by id.
func SortDonations(ds []*models.Donation) []*models.Donation {
	out := make([]*models.Donation, len(ds))
	copy(out, ds)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Confirmed() != b.Confirmed() {
			return a.Confirmed()
		}
		if a.Confirmed() && a.GlobalIndex != b.GlobalIndex {
			return a.GlobalIndex < b.GlobalIndex
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
	return out
}
