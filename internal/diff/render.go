package diff

import (
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/models"
	"github.com/shopspring/decimal"
)

const (
	GlyphSent      = "✅"
	GlyphAvailable = "💰"
	GlyphPending   = "⏳"
)

// FormatAmount renders atomic units as a coin amount without trailing zeros.
func FormatAmount(atomic uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(atomic), -common.AtomicDecimals).String()
}

// Glyph returns the status glyph for a donation.
func Glyph(d *models.Donation) string {
	switch {
	case d.Spent:
		return GlyphSent
	case d.Unlocked:
		return GlyphAvailable
	default:
		return GlyphPending
	}
}

// Render returns the status comment text of d, given the campaign total
// through d's position.
func Render(d *models.Donation, cumulative uint64) string {
	return fmt.Sprintf("increased by %s %s\nTotal: %s", FormatAmount(d.Amount), Glyph(d), FormatAmount(cumulative))
}
