package ledger

import (
	"context"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"bitbucket.org/barakasoft/wholesale_backend/models"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
)

// BuildConsolidatedLedger merges one party's ledgers across every
// active business into a single statement. Each row is stamped with the
// business it came from. The opening balance appears exactly once, on
// the business that owns it; resolution goes through the same function
// the per-business assembler uses, so the consolidated totals always
// equal the sum of the per-business ones.
func BuildConsolidatedLedger(ctx context.Context, kind Kind, entityId int, dateFrom, dateTo *time.Time) (*Result, error) {
	w, err := NewWindow(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	if kind == KindStaff {
		// Staff ledgers live inside their home business only.
		return nil, utils.ErrorRecordNotFound
	}

	party, err := models.GetPartyById(ctx, entityId)
	if err != nil {
		return nil, err
	}
	businesses, err := models.GetActiveBusinesses(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB().WithContext(ctx)
	var full []Row
	for _, b := range businesses {
		rows, err := partyRows(db, b.ID, party.ID, Window{})
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].BusinessId = b.ID
			rows[i].BusinessName = b.Name
		}
		full = append(full, rows...)
	}

	var opening []Row
	if !party.OpeningBalance.IsZero() {
		row := openingRow(party)
		row.BusinessId = models.OpeningBusinessId(party, businesses)
		for _, b := range businesses {
			if b.ID == row.BusinessId {
				row.BusinessName = b.Name
				break
			}
		}
		opening = append(opening, row)
	}

	result := &Result{Party: party}
	result.Rows, result.Totals = assemble(full, opening, w)
	return result, nil
}
