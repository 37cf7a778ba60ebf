package ledger

import (
	"sort"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/models"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
)

// Kind selects whose ledger is being reconstructed.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindSupplier Kind = "supplier"
	KindStaff    Kind = "staff"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCustomer, KindSupplier, KindStaff:
		return Kind(s), nil
	}
	return "", utils.ErrorRecordNotFound
}

// Source tags carried by rows. The two synthetic tags are load-bearing:
// brought-forward math skips SourceOpening rows, and consolidation
// dedupes on it.
const (
	SourceOpening        = "Opening"
	SourceBroughtForward = "B/F"
)

// Allocation names the document a money row was applied against.
type Allocation struct {
	Target string          `json:"target"`
	Amount decimal.Decimal `json:"amount"`
}

// Row is one normalized ledger projection. It is never persisted.
// Exactly one of Dr/Cr is normally set. SourceId is the originating
// record's id and is the tie-break within a date; synthetic rows carry
// SourceId 0 and therefore sort first.
type Row struct {
	Date         time.Time       `json:"date"`
	Ref          string          `json:"ref"`
	Note         string          `json:"note"`
	Dr           decimal.Decimal `json:"dr"`
	Cr           decimal.Decimal `json:"cr"`
	Source       string          `json:"source"`
	SourceId     int             `json:"source_id"`
	Allocations  []Allocation    `json:"allocations,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
	Quantity     string          `json:"quantity,omitempty"`
	UnitPrice    string          `json:"unit_price,omitempty"`
	BusinessId   int             `json:"business_id,omitempty"`
	BusinessName string          `json:"business_name,omitempty"`

	RunAmount decimal.Decimal `json:"run_amount"`
	RunSide   models.Side     `json:"run_side"`
}

// Totals summarize a built ledger. Balance is debit-positive.
type Totals struct {
	TotalDr     decimal.Decimal `json:"total_dr"`
	TotalCr     decimal.Decimal `json:"total_cr"`
	Balance     decimal.Decimal `json:"balance"`
	BalanceAbs  decimal.Decimal `json:"balance_abs"`
	BalanceSide models.Side     `json:"balance_side"`
}

// Window is a date-only [From, To] filter, both bounds optional and
// inclusive. The zero Window is unbounded.
type Window struct {
	From *time.Time
	To   *time.Time
}

// NewWindow validates the bounds. An inverted range is an error, never
// silently swapped.
func NewWindow(from, to *time.Time) (Window, error) {
	w := Window{}
	if from != nil {
		f := utils.DateOnly(*from)
		w.From = &f
	}
	if to != nil {
		t := utils.DateOnly(*to)
		w.To = &t
	}
	if w.From != nil && w.To != nil && w.To.Before(*w.From) {
		return Window{}, utils.ErrorInvalidDateRange
	}
	return w, nil
}

func (w Window) contains(d time.Time) bool {
	if w.From != nil && d.Before(*w.From) {
		return false
	}
	if w.To != nil && d.After(*w.To) {
		return false
	}
	return true
}

// sortRows orders by (date asc, source id asc); rows without an id sort
// first within a date. The sort is stable so equal keys keep feed
// order. This exact order is a correctness contract: running balances
// and printed ledgers must reproduce it byte for byte.
func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].SourceId < rows[j].SourceId
	})
}

// broughtForward sums all non-opening rows dated strictly before asOf
// into one synthetic row. Returns nil when the signed sum is zero.
// Opening rows are excluded; they stay visible on their own.
func broughtForward(rows []Row, asOf time.Time) *Row {
	balance := decimal.Zero
	for _, r := range rows {
		if r.Source == SourceOpening {
			continue
		}
		if r.Date.Before(asOf) {
			balance = balance.Add(r.Dr).Sub(r.Cr)
		}
	}
	if balance.IsZero() {
		return nil
	}
	bf := Row{
		Date:   asOf,
		Ref:    "B/F",
		Note:   "Balance brought forward",
		Source: SourceBroughtForward,
	}
	if balance.IsPositive() {
		bf.Dr = balance
	} else {
		bf.Cr = balance.Abs()
	}
	return &bf
}

// applyRunningBalance walks the sorted rows stamping the cumulative
// debit-minus-credit total as (amount, side).
func applyRunningBalance(rows []Row) {
	balance := decimal.Zero
	for i := range rows {
		balance = balance.Add(rows[i].Dr).Sub(rows[i].Cr)
		rows[i].RunAmount = balance.Abs()
		switch {
		case balance.IsPositive():
			rows[i].RunSide = models.SideDr
		case balance.IsNegative():
			rows[i].RunSide = models.SideCr
		default:
			rows[i].RunSide = models.SideNone
		}
	}
}

func sumTotals(rows []Row) Totals {
	totals := Totals{TotalDr: decimal.Zero, TotalCr: decimal.Zero}
	for _, r := range rows {
		totals.TotalDr = totals.TotalDr.Add(r.Dr)
		totals.TotalCr = totals.TotalCr.Add(r.Cr)
	}
	totals.Balance = totals.TotalDr.Sub(totals.TotalCr)
	totals.BalanceAbs = totals.Balance.Abs()
	switch {
	case totals.Balance.IsPositive():
		totals.BalanceSide = models.SideDr
	case totals.Balance.IsNegative():
		totals.BalanceSide = models.SideCr
	default:
		totals.BalanceSide = models.SideNone
	}
	return totals
}

// assemble runs the windowing pipeline over a full unbounded row set:
// brought-forward first, then the always-visible opening rows, then the
// window-filtered transactions, sorted once, running balance stamped.
func assemble(transactionRows []Row, openingRows []Row, w Window) ([]Row, Totals) {
	visible := make([]Row, 0, len(transactionRows)+len(openingRows)+1)

	if w.From != nil {
		if bf := broughtForward(transactionRows, *w.From); bf != nil {
			visible = append(visible, *bf)
		}
	}
	visible = append(visible, openingRows...)
	for _, r := range transactionRows {
		if w.contains(r.Date) {
			visible = append(visible, r)
		}
	}

	sortRows(visible)
	applyRunningBalance(visible)
	return visible, sumTotals(visible)
}
