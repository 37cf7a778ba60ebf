package ledger

import (
	"fmt"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/models"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The mapper converts each source record into normalized rows with a
// uniform debit/credit sign. Every feed applies the same exclusions as
// the balance aggregator: soft-deleted and cancelled documents are out,
// pending-cheque payments are out. Amounts are quantized to two places
// exactly once, here at emission.

// windowScope pushes an inclusive date window down to SQL for feeds
// whose row date equals the filtered column's date.
func windowScope(q *gorm.DB, column string, w Window) *gorm.DB {
	if w.From != nil {
		q = q.Where(column+" >= ?", *w.From)
	}
	if w.To != nil {
		q = q.Where(column+" < ?", w.To.AddDate(0, 0, 1))
	}
	return q
}

func businessScope(q *gorm.DB, column string, businessId int) *gorm.DB {
	if businessId != 0 {
		q = q.Where(column+" = ?", businessId)
	}
	return q
}

func filterWindow(rows []Row, w Window) []Row {
	if w.From == nil && w.To == nil {
		return rows
	}
	kept := rows[:0]
	for _, r := range rows {
		if w.contains(r.Date) {
			kept = append(kept, r)
		}
	}
	return kept
}

// partyRows merges every money feed a party can appear in. Both the
// sales and purchase side always run: a party of type BOTH carries one
// merged ledger, exactly like the aggregator's grouped sums.
func partyRows(db *gorm.DB, businessId int, partyId int, w Window) ([]Row, error) {
	var rows []Row

	docRows, err := customerDocumentRows(db, businessId, partyId, w)
	if err != nil {
		return nil, err
	}
	rows = append(rows, docRows...)

	docRows, err = supplierDocumentRows(db, businessId, partyId, w)
	if err != nil {
		return nil, err
	}
	rows = append(rows, docRows...)

	payRows, err := paymentRows(db, businessId, partyId, w)
	if err != nil {
		return nil, err
	}
	rows = append(rows, payRows...)

	chqRows, err := chequeMovementRows(db, businessId, partyId, w)
	if err != nil {
		return nil, err
	}
	rows = append(rows, chqRows...)

	return rows, nil
}

// customerDocumentRows: sales orders and invoices debit the party per
// line item plus tax, credit the discount; sales returns mirror that
// polarity.
func customerDocumentRows(db *gorm.DB, businessId int, partyId int, w Window) ([]Row, error) {
	var rows []Row

	var invoices []models.SalesInvoice
	q := db.Preload("Items").Where("customer_id = ? AND is_deleted = 0", partyId)
	q = businessScope(q, "business_id", businessId)
	if err := windowScope(q, "created_at", w).Find(&invoices).Error; err != nil {
		return nil, err
	}
	for i := range invoices {
		inv := &invoices[i]
		date := utils.DateOnly(inv.CreatedAt)
		ref := fmt.Sprintf("INV %s", inv.InvoiceNo)
		if inv.InvoiceNo == "" {
			ref = fmt.Sprintf("INV #%d", inv.ID)
		}
		for _, item := range inv.Items {
			rows = append(rows, itemRow(date, ref, "Sales Item", item.LineTotal(), decimal.Zero, "SalesInvoiceItem", item.ID, item.ProductName, item.Quantity, item.UnitPrice, item.UomCode))
		}
		if !inv.TaxPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Tax (%s%%)", inv.TaxPercent), Dr: inv.TaxAmount(), Cr: decimal.Zero, Source: "SalesInvoiceTax", SourceId: inv.ID})
		}
		if !inv.DiscountPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Discount (%s%%)", inv.DiscountPercent), Dr: decimal.Zero, Cr: inv.DiscountAmount(), Source: "SalesInvoiceDiscount", SourceId: inv.ID})
		}
	}

	var orders []models.SalesOrder
	q = db.Preload("Items").Where("customer_id = ? AND is_deleted = 0 AND status <> ?", partyId, models.OrderStatusCancelled)
	q = businessScope(q, "business_id", businessId)
	if err := windowScope(q, "created_at", w).Find(&orders).Error; err != nil {
		return nil, err
	}
	for i := range orders {
		so := &orders[i]
		date := utils.DateOnly(so.CreatedAt)
		ref := fmt.Sprintf("SO #%d", so.ID)
		for _, item := range so.Items {
			rows = append(rows, itemRow(date, ref, "Order Item", item.LineTotal(), decimal.Zero, "SalesOrderItem", item.ID, item.ProductName, item.Quantity, item.UnitPrice, item.UomCode))
		}
		if !so.TaxPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Tax (%s%%)", so.TaxPercent), Dr: so.TaxAmount(), Cr: decimal.Zero, Source: "SalesOrderTax", SourceId: so.ID})
		}
		if !so.DiscountPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Order Discount (%s%%)", so.DiscountPercent), Dr: decimal.Zero, Cr: so.DiscountAmount(), Source: "SalesOrderDiscount", SourceId: so.ID})
		}
	}

	var returns []models.SalesReturn
	q = db.Preload("Items").Where("customer_id = ? AND is_deleted = 0 AND status <> ?", partyId, models.OrderStatusCancelled)
	q = businessScope(q, "business_id", businessId)
	if err := windowScope(q, "created_at", w).Find(&returns).Error; err != nil {
		return nil, err
	}
	for i := range returns {
		sr := &returns[i]
		date := utils.DateOnly(sr.CreatedAt)
		ref := fmt.Sprintf("SR #%d", sr.ID)
		for _, item := range sr.Items {
			rows = append(rows, itemRow(date, ref, "Return Item", decimal.Zero, item.LineTotal(), "SalesReturnItem", item.ID, item.ProductName, item.Quantity, item.UnitPrice, item.UomCode))
		}
		if !sr.TaxPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Tax Adj (%s%%)", sr.TaxPercent), Dr: decimal.Zero, Cr: sr.TaxAmount(), Source: "SalesReturnTax", SourceId: sr.ID})
		}
		if !sr.DiscountPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Discount Adj (%s%%)", sr.DiscountPercent), Dr: sr.DiscountAmount(), Cr: decimal.Zero, Source: "SalesReturnDiscount", SourceId: sr.ID})
		}
	}

	return filterWindow(rows, w), nil
}

// supplierDocumentRows: purchase orders credit the party per item plus
// tax and linked landed-cost expenses, debit the discount; purchase
// returns mirror that polarity.
func supplierDocumentRows(db *gorm.DB, businessId int, partyId int, w Window) ([]Row, error) {
	var rows []Row

	var orders []models.PurchaseOrder
	q := db.Preload("Items").Preload("Expenses").Where("supplier_id = ? AND is_deleted = 0 AND status <> ?", partyId, models.OrderStatusCancelled)
	q = businessScope(q, "business_id", businessId)
	if err := windowScope(q, "created_at", w).Find(&orders).Error; err != nil {
		return nil, err
	}
	for i := range orders {
		po := &orders[i]
		date := utils.DateOnly(po.CreatedAt)
		ref := fmt.Sprintf("PO #%d", po.ID)
		for _, item := range po.Items {
			rows = append(rows, itemRow(date, ref, "Purchase Item", decimal.Zero, item.LineTotal(), "PurchaseOrderItem", item.ID, item.ProductName, item.Quantity, item.UnitCost, item.UomCode))
		}
		if !po.TaxPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Tax (%s%%)", po.TaxPercent), Dr: decimal.Zero, Cr: po.TaxAmount(), Source: "PurchaseOrderTax", SourceId: po.ID})
		}
		if !po.DiscountPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Order Discount (%s%%)", po.DiscountPercent), Dr: po.DiscountAmount(), Cr: decimal.Zero, Source: "PurchaseOrderDiscount", SourceId: po.ID})
		}
		for _, exp := range po.Expenses {
			if exp.IsDeleted || exp.IsDistributed {
				continue
			}
			rows = append(rows, Row{
				Date:     utils.DateOnly(exp.ExpenseDate),
				Ref:      ref,
				Note:     fmt.Sprintf("Expense: %s", exp.Category),
				Dr:       decimal.Zero,
				Cr:       utils.Quantize2(exp.Amount),
				Source:   "PurchaseOrderExpense",
				SourceId: exp.ID,
			})
		}
	}

	var returns []models.PurchaseReturn
	q = db.Preload("Items").Where("supplier_id = ? AND is_deleted = 0 AND status <> ?", partyId, models.OrderStatusCancelled)
	q = businessScope(q, "business_id", businessId)
	if err := windowScope(q, "created_at", w).Find(&returns).Error; err != nil {
		return nil, err
	}
	for i := range returns {
		pr := &returns[i]
		date := utils.DateOnly(pr.CreatedAt)
		ref := fmt.Sprintf("PR #%d", pr.ID)
		for _, item := range pr.Items {
			rows = append(rows, itemRow(date, ref, "Purchase Return Item", item.LineTotal(), decimal.Zero, "PurchaseReturnItem", item.ID, item.ProductName, item.Quantity, item.UnitCost, item.UomCode))
		}
		if !pr.TaxPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Tax Adj (%s%%)", pr.TaxPercent), Dr: pr.TaxAmount(), Cr: decimal.Zero, Source: "PurchaseReturnTax", SourceId: pr.ID})
		}
		if !pr.DiscountPercent.IsZero() {
			rows = append(rows, Row{Date: date, Ref: ref, Note: fmt.Sprintf("Discount Adj (%s%%)", pr.DiscountPercent), Dr: decimal.Zero, Cr: pr.DiscountAmount(), Source: "PurchaseReturnDiscount", SourceId: pr.ID})
		}
	}

	return filterWindow(rows, w), nil
}

func itemRow(date time.Time, ref, note string, dr, cr decimal.Decimal, source string, sourceId int, productName string, qty, price decimal.Decimal, uomCode string) Row {
	quantity := qty.StringFixed(2)
	if uomCode != "" {
		quantity = quantity + " " + uomCode
	}
	return Row{
		Date:        date,
		Ref:         ref,
		Note:        note,
		Dr:          dr,
		Cr:          cr,
		Source:      source,
		SourceId:    sourceId,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   price.StringFixed(2),
	}
}

// paymentRows emits every counted payment as its applications (receipt
// and refund rows carrying an allocation descriptor) plus one residual
// row for any unallocated remainder. The rows of one payment always sum
// to the payment amount, so the ledger's money side agrees with the
// aggregator's grouped payment sums by construction. Row side follows
// the payment direction: out debits the party, in credits it.
func paymentRows(db *gorm.DB, businessId int, partyId int, w Window) ([]Row, error) {
	var payments []models.Payment
	q := db.Where("party_id = ? AND is_deleted = 0 AND cheque_status <> ?", partyId, models.ChequeStatusPending)
	q = businessScope(q, "business_id", businessId)
	if err := q.Find(&payments).Error; err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, nil
	}

	paymentIds := make([]int, 0, len(payments))
	for _, p := range payments {
		paymentIds = append(paymentIds, p.ID)
	}

	applications, err := paymentApplications(db, paymentIds)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for i := range payments {
		p := &payments[i]
		isDr := p.Direction == models.PaymentDirectionOut
		note := fmt.Sprintf("(%s)", p.PaymentMethod)

		allocated := decimal.Zero
		for _, app := range applications[p.ID] {
			amount := utils.Quantize2(app.amount)
			allocated = allocated.Add(amount)
			row := Row{
				Date:        app.date,
				Ref:         app.ref,
				Note:        note,
				Source:      app.source,
				SourceId:    app.sourceId,
				Allocations: []Allocation{{Target: app.target, Amount: amount}},
			}
			if isDr {
				row.Dr = amount
			} else {
				row.Cr = amount
			}
			rows = append(rows, row)
		}

		residual := utils.Quantize2(p.Amount).Sub(allocated)
		if !residual.IsZero() {
			row := Row{
				Date:     utils.DateOnly(p.CreatedAt),
				Ref:      fmt.Sprintf("PMT #%d", p.ID),
				Note:     note,
				Source:   "Payment",
				SourceId: p.ID,
			}
			if isDr == residual.IsPositive() {
				row.Dr = residual.Abs()
			} else {
				row.Cr = residual.Abs()
			}
			rows = append(rows, row)
		}
	}

	return filterWindow(rows, w), nil
}

type application struct {
	date     time.Time
	ref      string
	target   string
	source   string
	sourceId int
	amount   decimal.Decimal
}

// paymentApplications gathers every document a set of payments was
// applied against, keyed by payment id.
func paymentApplications(db *gorm.DB, paymentIds []int) (map[int][]application, error) {
	apps := make(map[int][]application)

	var soReceipts []models.SalesOrderReceipt
	if err := db.Where("payment_id IN ?", paymentIds).Find(&soReceipts).Error; err != nil {
		return nil, err
	}
	for _, r := range soReceipts {
		apps[r.PaymentId] = append(apps[r.PaymentId], application{
			date:     utils.DateOnly(r.CreatedAt),
			ref:      fmt.Sprintf("Pay SO #%d", r.SalesOrderId),
			target:   fmt.Sprintf("SO #%d", r.SalesOrderId),
			source:   "SalesOrderReceipt",
			sourceId: r.ID,
			amount:   r.Amount,
		})
	}

	var invReceipts []models.SalesInvoiceReceipt
	if err := db.Where("payment_id IN ?", paymentIds).Find(&invReceipts).Error; err != nil {
		return nil, err
	}
	for _, r := range invReceipts {
		apps[r.PaymentId] = append(apps[r.PaymentId], application{
			date:     utils.DateOnly(r.CreatedAt),
			ref:      fmt.Sprintf("Pay INV #%d", r.SalesInvoiceId),
			target:   fmt.Sprintf("INV #%d", r.SalesInvoiceId),
			source:   "SalesInvoiceReceipt",
			sourceId: r.ID,
			amount:   r.Amount,
		})
	}

	var srRefunds []models.SalesReturnRefund
	if err := db.Where("payment_id IN ?", paymentIds).Find(&srRefunds).Error; err != nil {
		return nil, err
	}
	for _, r := range srRefunds {
		apps[r.PaymentId] = append(apps[r.PaymentId], application{
			date:     utils.DateOnly(r.CreatedAt),
			ref:      fmt.Sprintf("REFUND SR #%d", r.SalesReturnId),
			target:   fmt.Sprintf("SR #%d", r.SalesReturnId),
			source:   "SalesReturnRefund",
			sourceId: r.ID,
			amount:   r.Amount,
		})
	}

	var poPayments []models.PurchaseOrderPayment
	if err := db.Where("payment_id IN ?", paymentIds).Find(&poPayments).Error; err != nil {
		return nil, err
	}
	for _, r := range poPayments {
		apps[r.PaymentId] = append(apps[r.PaymentId], application{
			date:     utils.DateOnly(r.CreatedAt),
			ref:      fmt.Sprintf("Pay PO #%d", r.PurchaseOrderId),
			target:   fmt.Sprintf("PO #%d", r.PurchaseOrderId),
			source:   "PurchaseOrderPayment",
			sourceId: r.ID,
			amount:   r.Amount,
		})
	}

	var prRefunds []models.PurchaseReturnRefund
	if err := db.Where("payment_id IN ?", paymentIds).Find(&prRefunds).Error; err != nil {
		return nil, err
	}
	for _, r := range prRefunds {
		apps[r.PaymentId] = append(apps[r.PaymentId], application{
			date:     utils.DateOnly(r.CreatedAt),
			ref:      fmt.Sprintf("REFUND PR #%d", r.PurchaseReturnId),
			target:   fmt.Sprintf("PR #%d", r.PurchaseReturnId),
			source:   "PurchaseReturnRefund",
			sourceId: r.ID,
			amount:   r.Amount,
		})
	}

	return apps, nil
}

// chequeMovementRows: cheque payments drawn straight from the bank
// against a supplier debit that supplier's ledger.
func chequeMovementRows(db *gorm.DB, businessId int, partyId int, w Window) ([]Row, error) {
	var movements []models.BankMovement
	q := db.Where("party_id = ? AND movement_type = ? AND is_deleted = 0", partyId, models.BankMovementTypeChequePayment)
	q = businessScope(q, "business_id", businessId)
	if err := windowScope(q, "movement_date", w).Find(&movements).Error; err != nil {
		return nil, err
	}

	var rows []Row
	for _, m := range movements {
		row := Row{
			Date:     utils.DateOnly(m.MovementDate),
			Ref:      fmt.Sprintf("CHQ #%d", m.ID),
			Note:     "Cheque Payment",
			Dr:       utils.Quantize2(m.Amount),
			Cr:       decimal.Zero,
			Source:   "BankMovement",
			SourceId: m.ID,
		}
		if m.PurchaseOrderId != nil {
			row.Allocations = []Allocation{{Target: fmt.Sprintf("PO #%d", *m.PurchaseOrderId), Amount: row.Dr}}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// accrualRows synthesizes one salary credit on the 1st of each elapsed
// month from the salary start through the window cap (or today). No
// physical accrual record exists; these rows are derived on every read.
func accrualRows(staff *models.Staff, w Window, today time.Time) []Row {
	if staff.SalaryStart == nil || !staff.MonthlySalary.IsPositive() {
		return nil
	}

	start := utils.MonthStart(*staff.SalaryStart)
	end := utils.MonthStart(today)
	if w.To != nil {
		end = utils.MonthStart(*w.To)
	}
	rangeStart := start
	if w.From != nil && w.From.After(start) {
		rangeStart = utils.MonthStart(*w.From)
	}

	var rows []Row
	for _, ms := range utils.MonthStartsBetween(rangeStart, end) {
		rows = append(rows, Row{
			Date:   ms,
			Ref:    fmt.Sprintf("ACCRUAL %s", ms.Format("Jan 2006")),
			Note:   "Monthly Salary Accrual",
			Dr:     decimal.Zero,
			Cr:     utils.Quantize2(staff.MonthlySalary),
			Source: "SalaryAccrual",
		})
	}
	return rows
}

// salaryExpenseRows: salary payments recorded against a staff member
// debit the staff ledger. Legacy rows with no business stay visible in
// every business.
func salaryExpenseRows(db *gorm.DB, businessId int, staffId int, w Window) ([]Row, error) {
	var expenses []models.Expense
	q := db.Where("staff_id = ? AND category = ? AND is_deleted = 0", staffId, models.ExpenseCategorySalary)
	if businessId != 0 {
		q = q.Where("business_id = ? OR business_id = 0", businessId)
	}
	if err := windowScope(q, "expense_date", w).Find(&expenses).Error; err != nil {
		return nil, err
	}

	var rows []Row
	for _, exp := range expenses {
		note := exp.Description
		if note == "" {
			note = "Salary Payment"
		}
		if exp.Reference != "" {
			note = fmt.Sprintf("%s (Ref: %s)", note, exp.Reference)
		}
		rows = append(rows, Row{
			Date:     utils.DateOnly(exp.ExpenseDate),
			Ref:      fmt.Sprintf("EXP#%d", exp.ID),
			Note:     note,
			Dr:       utils.Quantize2(exp.Amount),
			Cr:       decimal.Zero,
			Source:   "Expense",
			SourceId: exp.ID,
		})
	}
	return rows, nil
}
