package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/dbx"
	"github.com/dmitrijs2005/fundwatch/internal/ledger"
	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/dmitrijs2005/fundwatch/internal/matcher"
	"github.com/dmitrijs2005/fundwatch/internal/metrics"
	"github.com/dmitrijs2005/fundwatch/internal/models"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/repomanager"
)

// DetectReport summarizes one pass over an address.
type DetectReport struct {
	Refreshed    int
	Matched      int
	Created      int
	Unreconciled []matcher.Claim
	// Held counts new transfers not imported because a claim on the same
	// address is still unreconciled.
	Held int
	// Dropped counts pending donations removed after their transaction left
	// the pool without confirming.
	Dropped int
}

// ContributionService imports ledger transfers into donations and enotes.
type ContributionService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	reader       LedgerReader
	legacyHeight uint64
	logger       logging.Logger
}

func NewContributionService(db *sql.DB, rm repomanager.RepositoryManager, reader LedgerReader, legacyHeight uint64, logger logging.Logger) *ContributionService {
	return &ContributionService{
		db:           db,
		repomanager:  rm,
		reader:       reader,
		legacyHeight: legacyHeight,
		logger:       logger.With("module", "contributions"),
	}
}

// DetectAll scans every address. Addresses whose ledger cannot be read are
// skipped until the next pass.
func (s *ContributionService) DetectAll(ctx context.Context) error {
	addresses, err := s.repomanager.Addresses(s.db).List(ctx)
	if err != nil {
		return fmt.Errorf("listing addresses: %w", err)
	}

	var errs []error
	for _, addr := range addresses {
		if ctx.Err() != nil {
			break
		}
		_, err := s.DetectAddress(ctx, addr)
		switch {
		case err == nil:
		case errors.Is(err, common.ErrLedgerUnavailable), errors.Is(err, common.ErrMalformedResponse):
			metrics.LedgerUnavailable()
			s.logger.Warn(ctx, "ledger unavailable, address skipped", "address", addr.ID, "error", err)
		default:
			s.logger.Error(ctx, "contribution detection failed", "address", addr.ID, "error", err)
			errs = append(errs, fmt.Errorf("address %d: %w", addr.ID, err))
		}
	}
	return errors.Join(errs...)
}

// DetectAddress reconciles the ledger transfers of addr with its donations.
func (s *ContributionService) DetectAddress(ctx context.Context, addr *models.Address) (DetectReport, error) {
	var report DetectReport

	transfers, err := s.reader.Transfers(ctx, addr)
	if err != nil {
		return report, err
	}

	donations, err := s.repomanager.Donations(s.db).ListByAddress(ctx, addr.ID)
	if err != nil {
		return report, fmt.Errorf("loading donations: %w", err)
	}
	known, err := s.knownEnotes(ctx, addr.ID)
	if err != nil {
		return report, err
	}

	attributed := make(map[string]*models.Donation)
	var claims []matcher.Claim
	claimed := make(map[int64]*models.Donation)
	for _, d := range donations {
		if d.Attributed() {
			attributed[d.TxID] = d
			continue
		}
		claims = append(claims, matcher.Claim{ID: d.ID, Amount: d.Amount})
		claimed[d.ID] = d
	}

	var fresh ledger.Transfers
	seen := make(map[string]struct{}, len(transfers))
	for _, t := range transfers {
		seen[t.TxID] = struct{}{}
		if d, ok := attributed[t.TxID]; ok {
			if err := s.refresh(ctx, d, t, known); err != nil {
				return report, err
			}
			report.Refreshed++
			continue
		}
		if pk, ok := ownedElsewhere(t, known); ok {
			s.logger.Warn(ctx, "transfer output already imported", "address", addr.ID, "tx", t.TxID, "enote", pk)
			continue
		}
		fresh = append(fresh, t)
	}

	for _, d := range donations {
		if !d.Attributed() || d.Confirmed() || d.Enotes > 0 {
			continue
		}
		if _, ok := seen[d.TxID]; ok {
			continue
		}
		if err := s.repomanager.Donations(s.db).Delete(ctx, d.ID); err != nil {
			return report, fmt.Errorf("dropping donation %d: %w", d.ID, err)
		}
		s.logger.Warn(ctx, "pending donation left the pool, removed", "address", addr.ID, "donation", d.ID, "tx", d.TxID)
		report.Dropped++
	}

	res := matcher.Match(claims, fresh, matcher.Options{LegacyHeight: s.legacyHeight})
	for _, m := range res.Matches {
		d := claimed[m.Claim.ID]
		if m.Legacy {
			s.logger.Warn(ctx, "legacy claim upgraded", "donation", d.ID, "claimed", d.Amount, "amount", m.EffectiveAmount)
		}
		if err := s.attribute(ctx, d, m, known); err != nil {
			return report, err
		}
		report.Matched++
	}

	report.Unreconciled = res.Unreconciled
	metrics.UnreconciledClaims(addr.ID, len(res.Unreconciled))
	if len(res.Unreconciled) > 0 {
		for _, c := range res.Unreconciled {
			s.logger.Error(ctx, "donation claim has no matching transfer",
				"address", addr.ID, "donation", c.ID, "amount", c.Amount, "error", common.ErrUnreconciled)
		}
		report.Held = len(res.Unconsumed)
		return report, nil
	}

	for _, t := range res.Unconsumed {
		created, err := s.create(ctx, addr, t)
		if err != nil {
			return report, err
		}
		if created {
			report.Created++
		}
	}
	return report, nil
}

func (s *ContributionService) knownEnotes(ctx context.Context, addressID int64) (map[string]*models.Enote, error) {
	enotes, err := s.repomanager.Enotes(s.db).ListByAddress(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("loading enotes: %w", err)
	}
	m := make(map[string]*models.Enote, len(enotes))
	for _, e := range enotes {
		m[e.PublicKey] = e
	}
	return m, nil
}

func ownedElsewhere(t ledger.Transfer, known map[string]*models.Enote) (string, bool) {
	for _, o := range t.Outputs {
		if _, ok := known[o.PublicKey]; ok {
			return o.PublicKey, true
		}
	}
	return "", false
}

// refresh updates an attributed donation from its transfer and stores any
// outputs seen for the first time.
func (s *ContributionService) refresh(ctx context.Context, d *models.Donation, t ledger.Transfer, known map[string]*models.Enote) error {
	changed := d.Amount != t.Amount || d.Height != t.Height || d.GlobalIndex != t.GlobalIndex
	if !changed && !enotesChanged(t, known) {
		return nil
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if changed {
			applyTransfer(d, t)
			if err := s.repomanager.Donations(tx).Update(ctx, d); err != nil {
				return fmt.Errorf("updating donation %d: %w", d.ID, err)
			}
		}
		return s.storeEnotes(ctx, tx, d, t, known)
	})
}

// attribute binds a matched claim to its transfer.
func (s *ContributionService) attribute(ctx context.Context, d *models.Donation, m matcher.Pair, known map[string]*models.Enote) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		d.TxID = m.Transfer.TxID
		applyTransfer(d, m.Transfer)
		d.Amount = m.EffectiveAmount
		if err := s.repomanager.Donations(tx).Update(ctx, d); err != nil {
			return fmt.Errorf("attributing donation %d: %w", d.ID, err)
		}
		return s.storeEnotes(ctx, tx, d, m.Transfer, known)
	})
}

// create records a new donation with its enotes in one transaction. A
// donation or enote recorded concurrently rolls the transaction back and is
// not an error.
func (s *ContributionService) create(ctx context.Context, addr *models.Address, t ledger.Transfer) (bool, error) {
	d := &models.Donation{AddressID: addr.ID, CampaignID: addr.CampaignID, TxID: t.TxID, Timestamp: time.Now().UTC()}
	applyTransfer(d, t)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Donations(tx).Create(ctx, d); err != nil {
			return err
		}
		return s.storeEnotes(ctx, tx, d, t, map[string]*models.Enote{})
	})
	if errors.Is(err, common.ErrConflict) {
		s.logger.Info(ctx, "donation already recorded", "address", addr.ID, "tx", t.TxID, "error", err)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating donation for tx %s: %w", t.TxID, err)
	}
	s.logger.Info(ctx, "donation recorded",
		"address", addr.ID, "donation", d.ID, "tx", t.TxID, "amount", t.Amount, "kind", t.Kind.String())
	return true, nil
}

func (s *ContributionService) storeEnotes(ctx context.Context, tx dbx.DBTX, d *models.Donation, t ledger.Transfer, known map[string]*models.Enote) error {
	repo := s.repomanager.Enotes(tx)
	for _, o := range t.Outputs {
		e := &models.Enote{
			PublicKey:   o.PublicKey,
			DonationID:  d.ID,
			AddressID:   d.AddressID,
			TxID:        o.TxID,
			GlobalIndex: o.GlobalIndex,
			Height:      o.Height,
			Amount:      o.Amount,
			Spent:       o.Spent,
			Unlocked:    o.Unlocked,
		}
		prev, ok := known[o.PublicKey]
		if !ok {
			inserted, err := repo.Insert(ctx, e)
			if err != nil {
				return fmt.Errorf("inserting enote %s: %w", o.PublicKey, err)
			}
			if !inserted {
				return fmt.Errorf("enote %s belongs to another donation: %w", o.PublicKey, common.ErrConflict)
			}
			continue
		}
		if prev.Height == e.Height && prev.Spent == e.Spent && prev.Unlocked == e.Unlocked {
			continue
		}
		if err := repo.UpdateState(ctx, e); err != nil {
			return fmt.Errorf("updating enote %s: %w", o.PublicKey, err)
		}
	}
	return nil
}

func enotesChanged(t ledger.Transfer, known map[string]*models.Enote) bool {
	for _, o := range t.Outputs {
		prev, ok := known[o.PublicKey]
		if !ok || prev.Height != o.Height || prev.Spent != o.Spent || prev.Unlocked != o.Unlocked {
			return true
		}
	}
	return false
}

func applyTransfer(d *models.Donation, t ledger.Transfer) {
	d.Amount = t.Amount
	d.Height = t.Height
	d.GlobalIndex = t.GlobalIndex
	if !t.Timestamp.IsZero() {
		d.Timestamp = t.Timestamp
	}
}
