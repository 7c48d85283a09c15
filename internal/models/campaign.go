// Package models defines the data models persisted in the database.
package models

import "time"

// Campaign groups one or more receive addresses and the donations paid to
// them. PostNumber is the forum post whose comment thread mirrors them.
type Campaign struct {
	ID         int64
	PostNumber int64
	BaseTitle  string
	// Total is the running total last written into the public title.
	Total     uint64
	CreatedAt time.Time
}
