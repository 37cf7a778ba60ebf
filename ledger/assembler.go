package ledger

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"bitbucket.org/barakasoft/wholesale_backend/models"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Result is one fully assembled ledger: the visible rows in display
// order with running balances stamped, plus the window totals. Exactly
// one of Party/Staff is set, matching the requested kind.
type Result struct {
	Rows   []Row          `json:"rows"`
	Totals Totals         `json:"totals"`
	Party  *models.Party  `json:"party,omitempty"`
	Staff  *models.Staff  `json:"staff,omitempty"`
}

// BuildLedger reconstructs one entity's ledger inside one business.
// The full unbounded row set is always generated first; brought-forward
// and window filtering happen in memory so the carried balance is exact
// regardless of how feeds date their rows.
func BuildLedger(ctx context.Context, kind Kind, businessId int, entityId int, dateFrom, dateTo *time.Time) (*Result, error) {
	w, err := NewWindow(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	if businessId == 0 {
		return BuildConsolidatedLedger(ctx, kind, entityId, dateFrom, dateTo)
	}
	db := config.GetDB().WithContext(ctx)

	if kind == KindStaff {
		return buildStaffLedger(ctx, db, businessId, entityId, w)
	}

	party, err := models.GetPartyById(ctx, entityId)
	if err != nil {
		return nil, err
	}

	full, err := partyRows(db, businessId, party.ID, Window{})
	if err != nil {
		return nil, err
	}

	var opening []Row
	applies, err := openingApplies(ctx, party, businessId)
	if err != nil {
		return nil, err
	}
	if applies {
		opening = append(opening, openingRow(party))
	}

	result := &Result{Party: party}
	result.Rows, result.Totals = assemble(full, opening, w)
	return result, nil
}

// buildStaffLedger: salary accruals credit, salary payments debit. A
// staff ledger is always single-business; there is no consolidated view.
func buildStaffLedger(ctx context.Context, db *gorm.DB, businessId int, staffId int, w Window) (*Result, error) {
	staff, err := models.GetStaffById(ctx, staffId)
	if err != nil {
		return nil, err
	}

	today := utils.DateOnly(time.Now().UTC())
	full := accrualRows(staff, Window{To: w.To}, today)

	expenseRows, err := salaryExpenseRows(db, businessId, staff.ID, Window{})
	if err != nil {
		return nil, err
	}
	full = append(full, expenseRows...)

	result := &Result{Staff: staff}
	result.Rows, result.Totals = assemble(full, nil, w)
	return result, nil
}

// openingApplies resolves opening ownership for a single-business view.
// Active businesses are only fetched when the party has no default
// business of its own.
func openingApplies(ctx context.Context, party *models.Party, businessId int) (bool, error) {
	if party.OpeningBalance.IsZero() {
		return false, nil
	}
	var activeBusinesses []*models.Business
	if party.DefaultBusinessId == 0 {
		var err error
		activeBusinesses, err = models.GetActiveBusinesses(ctx)
		if err != nil {
			return false, err
		}
	}
	return models.OpeningAppliesTo(party, businessId, activeBusinesses), nil
}

// openingRow materializes the party's declared starting position. It is
// always visible, even when a date window would exclude its date.
func openingRow(party *models.Party) Row {
	side := party.OpeningBalanceSide
	if side == models.SideNone {
		side = models.SideDr
	}
	row := Row{
		Date:   models.OpeningEffectiveDate(party),
		Ref:    "OPENING",
		Note:   fmt.Sprintf("Opening Balance (%s)", side),
		Dr:     decimal.Zero,
		Cr:     decimal.Zero,
		Source: SourceOpening,
	}
	amount := utils.Quantize2(party.OpeningBalance)
	if side == models.SideCr {
		row.Cr = amount
	} else {
		row.Dr = amount
	}
	return row
}
