package ledger

import (
	"testing"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/models"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func drRow(date time.Time, amount string, sourceId int) Row {
	return Row{Date: date, Dr: dec(amount), Cr: decimal.Zero, Source: "test", SourceId: sourceId}
}

func crRow(date time.Time, amount string, sourceId int) Row {
	return Row{Date: date, Dr: decimal.Zero, Cr: dec(amount), Source: "test", SourceId: sourceId}
}

func TestSortRowsDateThenSourceId(t *testing.T) {
	rows := []Row{
		drRow(day(2024, 1, 15), "10", 7),
		drRow(day(2024, 1, 10), "10", 9),
		drRow(day(2024, 1, 15), "10", 3),
		{Date: day(2024, 1, 15), Dr: dec("10"), Source: SourceBroughtForward}, // no id
	}
	sortRows(rows)

	require.Equal(t, 9, rows[0].SourceId)
	require.Equal(t, day(2024, 1, 10), rows[0].Date)
	// Within 2024-01-15 the id-less synthetic row comes first.
	require.Equal(t, SourceBroughtForward, rows[1].Source)
	require.Equal(t, 3, rows[2].SourceId)
	require.Equal(t, 7, rows[3].SourceId)
}

func TestSortRowsIsStable(t *testing.T) {
	rows := []Row{
		{Date: day(2024, 1, 15), Dr: dec("1"), Source: "a", SourceId: 5},
		{Date: day(2024, 1, 15), Dr: dec("2"), Source: "b", SourceId: 5},
	}
	sortRows(rows)
	require.Equal(t, "a", rows[0].Source)
	require.Equal(t, "b", rows[1].Source)
}

func TestBroughtForwardSkipsOpeningRows(t *testing.T) {
	rows := []Row{
		{Date: day(2024, 1, 1), Dr: dec("1000"), Source: SourceOpening},
		drRow(day(2024, 1, 10), "500", 1),
		crRow(day(2024, 1, 15), "200", 2),
	}
	bf := broughtForward(rows, day(2024, 1, 12))
	require.NotNil(t, bf)
	require.True(t, bf.Dr.Equal(dec("500")), "opening must not leak into B/F, got %s", bf.Dr)
	require.Equal(t, "B/F", bf.Ref)
}

func TestBroughtForwardZeroIsOmitted(t *testing.T) {
	rows := []Row{
		drRow(day(2024, 1, 5), "300", 1),
		crRow(day(2024, 1, 6), "300", 2),
	}
	require.Nil(t, broughtForward(rows, day(2024, 1, 10)))
}

func TestBroughtForwardCreditSide(t *testing.T) {
	rows := []Row{crRow(day(2024, 1, 5), "750", 1)}
	bf := broughtForward(rows, day(2024, 1, 10))
	require.NotNil(t, bf)
	require.True(t, bf.Cr.Equal(dec("750")))
	require.True(t, bf.Dr.IsZero())
}

func TestApplyRunningBalanceFlipsSide(t *testing.T) {
	rows := []Row{
		drRow(day(2024, 1, 1), "100", 1),
		crRow(day(2024, 1, 2), "250", 2),
		drRow(day(2024, 1, 3), "150", 3),
	}
	applyRunningBalance(rows)

	require.True(t, rows[0].RunAmount.Equal(dec("100")))
	require.Equal(t, models.SideDr, rows[0].RunSide)
	require.True(t, rows[1].RunAmount.Equal(dec("150")))
	require.Equal(t, models.SideCr, rows[1].RunSide)
	require.True(t, rows[2].RunAmount.IsZero())
	require.Equal(t, models.SideNone, rows[2].RunSide)
}

func TestNewWindowRejectsInvertedRange(t *testing.T) {
	from := day(2024, 2, 1)
	to := day(2024, 1, 1)
	_, err := NewWindow(&from, &to)
	require.ErrorIs(t, err, utils.ErrorInvalidDateRange)
}

func TestNewWindowNormalizesToDates(t *testing.T) {
	from := time.Date(2024, 1, 5, 13, 45, 0, 0, time.UTC)
	w, err := NewWindow(&from, nil)
	require.NoError(t, err)
	require.Equal(t, day(2024, 1, 5), *w.From)
	require.True(t, w.contains(day(2024, 1, 5)))
	require.False(t, w.contains(day(2024, 1, 4)))
}

// Customer with opening 1000 Dr on 2024-01-01, an order worth 500 on
// 2024-01-10 and a receipt of 200 on 2024-01-15.
func scenarioRows() (transactions []Row, opening []Row) {
	transactions = []Row{
		drRow(day(2024, 1, 10), "500", 11),
		crRow(day(2024, 1, 15), "200", 12),
	}
	opening = []Row{{
		Date:   day(2024, 1, 1),
		Ref:    "OPENING",
		Dr:     dec("1000"),
		Cr:     decimal.Zero,
		Source: SourceOpening,
	}}
	return transactions, opening
}

func TestAssembleFullMonthWindow(t *testing.T) {
	transactions, opening := scenarioRows()
	from, to := day(2024, 1, 1), day(2024, 1, 31)
	w, err := NewWindow(&from, &to)
	require.NoError(t, err)

	rows, totals := assemble(transactions, opening, w)

	require.Len(t, rows, 3)
	require.True(t, totals.Balance.Equal(dec("1300")))
	require.Equal(t, models.SideDr, totals.BalanceSide)
	require.True(t, totals.TotalDr.Equal(dec("1500")))
	require.True(t, totals.TotalCr.Equal(dec("200")))

	// Running balance of the last row equals the final balance.
	last := rows[len(rows)-1]
	require.True(t, last.RunAmount.Equal(dec("1300")))
	require.Equal(t, models.SideDr, last.RunSide)
}

func TestAssembleMidWindowBroughtForward(t *testing.T) {
	transactions, opening := scenarioRows()
	from, to := day(2024, 1, 12), day(2024, 1, 31)
	w, err := NewWindow(&from, &to)
	require.NoError(t, err)

	rows, totals := assemble(transactions, opening, w)

	var bfCount, openingCount int
	for _, r := range rows {
		switch r.Source {
		case SourceBroughtForward:
			bfCount++
			require.True(t, r.Dr.Equal(dec("500")))
			require.Equal(t, day(2024, 1, 12), r.Date)
		case SourceOpening:
			openingCount++
		}
	}
	require.Equal(t, 1, bfCount, "exactly one B/F row")
	require.Equal(t, 1, openingCount, "opening row stays visible and is never duplicated")
	require.Len(t, rows, 3)
	require.True(t, totals.Balance.Equal(dec("1300")))
	require.Equal(t, models.SideDr, totals.BalanceSide)
}

// {opening + B/F} for a windowed build equals the unbounded build
// restricted to rows before the window start.
func TestAssembleBroughtForwardInvariant(t *testing.T) {
	transactions := []Row{
		drRow(day(2024, 1, 3), "120.50", 1),
		crRow(day(2024, 1, 7), "20.25", 2),
		drRow(day(2024, 2, 2), "40", 3),
		crRow(day(2024, 2, 20), "300", 4),
	}
	opening := []Row{{Date: day(2023, 12, 30), Dr: dec("75"), Cr: decimal.Zero, Source: SourceOpening}}
	cutoff := day(2024, 2, 1)

	w, err := NewWindow(&cutoff, nil)
	require.NoError(t, err)
	rows, _ := assemble(transactions, opening, w)

	carried := decimal.Zero
	for _, r := range rows {
		if r.Source == SourceBroughtForward || r.Source == SourceOpening {
			carried = carried.Add(r.Dr).Sub(r.Cr)
		}
	}

	unboundedRows, _ := assemble(transactions, opening, Window{})
	expected := decimal.Zero
	for _, r := range unboundedRows {
		if r.Date.Before(cutoff) {
			expected = expected.Add(r.Dr).Sub(r.Cr)
		}
	}

	require.True(t, carried.Equal(expected), "carried %s, expected %s", carried, expected)
}

func TestAssembleUnboundedMatchesWindowedTotals(t *testing.T) {
	transactions, opening := scenarioRows()

	_, unbounded := assemble(transactions, opening, Window{})
	from := day(2024, 1, 12)
	w, err := NewWindow(&from, nil)
	require.NoError(t, err)
	_, windowed := assemble(transactions, opening, w)

	require.True(t, unbounded.Balance.Equal(windowed.Balance))
}

func TestAssembleOpeningVisibleOutsideWindow(t *testing.T) {
	_, opening := scenarioRows()
	from, to := day(2024, 6, 1), day(2024, 6, 30)
	w, err := NewWindow(&from, &to)
	require.NoError(t, err)

	rows, totals := assemble(nil, opening, w)
	require.Len(t, rows, 1)
	require.Equal(t, SourceOpening, rows[0].Source)
	require.True(t, totals.Balance.Equal(dec("1000")))
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"customer", "supplier", "staff"} {
		k, err := ParseKind(s)
		require.NoError(t, err)
		require.Equal(t, Kind(s), k)
	}
	_, err := ParseKind("warehouse")
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)
}
