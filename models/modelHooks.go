package models

import (
	"errors"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"gorm.io/gorm"
)

// The hooks in this file keep three caches tracking the ledger ground
// truth on every write: the SummaryStats singleton (by signed delta),
// the affected BusinessSummary (wholesale recompute) and the party's
// cached balance. The pattern is the same for every covered entity:
// BeforeSave loads the stored row once into prev, AfterSave publishes
// impact(new) - impact(prev), AfterDelete publishes -impact(old).
// Cancelled and soft-deleted rows contribute zero on both sides.

// hookDB gives a clean statement on the caller's transaction, so cache
// maintenance queries never inherit the mutating statement's clauses.
func hookDB(tx *gorm.DB) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true})
}

// capturePrev loads the stored row immediately before an update
// commits. Happens exactly once per write; a create captures nothing.
func capturePrev[T any](tx *gorm.DB, id int) (*T, error) {
	if id == 0 {
		return nil, nil
	}
	var prev T
	err := hookDB(tx).Where("id = ?", id).Take(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &prev, nil
}

// refreshAfterMutation recomputes the caches a mutation can touch. When
// the entity moved between businesses both summaries are recomputed.
func refreshAfterMutation(tx *gorm.DB, businessId int, oldBusinessId int, partyId int) error {
	db := hookDB(tx)
	if oldBusinessId != 0 && oldBusinessId != businessId {
		if _, err := updateBusinessSummary(db, oldBusinessId); err != nil {
			return err
		}
	}
	if businessId != 0 {
		if _, err := updateBusinessSummary(db, businessId); err != nil {
			return err
		}
	}
	if partyId != 0 {
		if err := updatePartyBalance(db, partyId); err != nil {
			return err
		}
	}
	return nil
}

// updatePartyBalance refreshes the denormalized cached balance with the
// aggregator's global-scope value. The single-column update bypasses
// hooks, so it cannot recurse.
func updatePartyBalance(tx *gorm.DB, partyId int) error {
	var party Party
	err := tx.Where("id = ?", partyId).Take(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if err := getPartyBalances(tx, []*Party{&party}, BalanceOptions{}); err != nil {
		return err
	}
	now := time.Now().UTC()
	return tx.Model(&Party{}).Where("id = ?", partyId).UpdateColumns(map[string]interface{}{
		"cached_balance":            party.NetBalance,
		"cached_balance_updated_at": now,
	}).Error
}

// ---- impact functions: each entity's signed contribution to the
// global stats, using the same sign rules as the balance aggregator.
// nil and excluded rows contribute zero. ----

func salesOrderImpact(o *SalesOrder) SummaryDelta {
	if o == nil || !o.countsTowardBalance() {
		return SummaryDelta{}
	}
	return SummaryDelta{BusinessId: o.BusinessId, ReceivableDelta: o.NetTotal}
}

func salesInvoiceImpact(inv *SalesInvoice) SummaryDelta {
	if inv == nil || !inv.countsTowardBalance() {
		return SummaryDelta{}
	}
	return SummaryDelta{BusinessId: inv.BusinessId, ReceivableDelta: inv.NetTotal}
}

func salesReturnImpact(r *SalesReturn) SummaryDelta {
	if r == nil || !r.countsTowardBalance() {
		return SummaryDelta{}
	}
	return SummaryDelta{BusinessId: r.BusinessId, ReceivableDelta: r.NetTotal.Neg()}
}

func purchaseOrderImpact(po *PurchaseOrder) SummaryDelta {
	if po == nil || !po.countsTowardBalance() {
		return SummaryDelta{}
	}
	return SummaryDelta{BusinessId: po.BusinessId, PayableDelta: po.NetTotal}
}

func purchaseReturnImpact(pr *PurchaseReturn) SummaryDelta {
	if pr == nil || !pr.countsTowardBalance() {
		return SummaryDelta{}
	}
	return SummaryDelta{BusinessId: pr.BusinessId, PayableDelta: pr.NetTotal.Neg()}
}

// paymentImpact: an incoming payment settles receivables, an outgoing
// one settles payables; cash in hand moves when the money touched the
// till (cash method, or a bank payment routed through a CASH account).
func paymentImpact(p *Payment, cashLike bool) SummaryDelta {
	if p == nil || !p.countsTowardBalance() {
		return SummaryDelta{}
	}
	d := SummaryDelta{BusinessId: p.BusinessId}
	if p.Direction == PaymentDirectionIn {
		d.ReceivableDelta = p.Amount.Neg()
	} else {
		d.PayableDelta = p.Amount.Neg()
	}
	if cashLike {
		if p.Direction == PaymentDirectionIn {
			d.CashDelta = p.Amount
		} else {
			d.CashDelta = p.Amount.Neg()
		}
	}
	return d
}

func (p *Payment) isCashLike(tx *gorm.DB) bool {
	if p == nil {
		return false
	}
	if p.PaymentMethod == PaymentMethodCash {
		return true
	}
	if p.PaymentMethod == PaymentMethodBank && p.BankAccountId != nil {
		var account BankAccount
		if err := hookDB(tx).Where("id = ?", *p.BankAccountId).Take(&account).Error; err != nil {
			return false
		}
		return account.AccountType == BankAccountTypeCash &&
			utils.DereferencePtr(account.IsActive, true) && !account.IsDeleted
	}
	return false
}

func expenseImpact(e *Expense) SummaryDelta {
	if e == nil || e.IsDeleted || e.PaymentSource != PaymentSourceCash {
		return SummaryDelta{}
	}
	return SummaryDelta{BusinessId: e.BusinessId, CashDelta: e.Amount.Neg()}
}

func partyOpeningImpact(p *Party) SummaryDelta {
	if p == nil || p.IsDeleted {
		return SummaryDelta{}
	}
	d := SummaryDelta{}
	if p.OpeningBalanceSide == SideCr {
		d.PayableDelta = p.OpeningBalance
	} else {
		d.ReceivableDelta = p.OpeningBalance
	}
	return d
}

func productImpact(p *Product) SummaryDelta {
	if p == nil || p.IsDeleted || !utils.DereferencePtr(p.IsActive, true) {
		return SummaryDelta{}
	}
	return SummaryDelta{BusinessId: p.BusinessId, InventoryDelta: p.StockQty.Mul(p.PurchasePrice)}
}

func bankAccountImpact(a *BankAccount) SummaryDelta {
	if a == nil || a.IsDeleted || !utils.DereferencePtr(a.IsActive, true) {
		return SummaryDelta{}
	}
	if a.AccountType != BankAccountTypeCash {
		return SummaryDelta{}
	}
	return SummaryDelta{BusinessId: a.BusinessId, CashDelta: a.OpeningBalance}
}

// bankMovementImpact: a deposit moves till money into the bank, a
// withdrawal the reverse. A cheque payment never touches the till, but
// when drawn against a supplier it settles that supplier's payable.
func bankMovementImpact(m *BankMovement) SummaryDelta {
	if m == nil || m.IsDeleted {
		return SummaryDelta{}
	}
	d := SummaryDelta{BusinessId: m.BusinessId}
	switch m.MovementType {
	case BankMovementTypeDeposit:
		d.CashDelta = m.Amount.Neg()
	case BankMovementTypeWithdrawal:
		d.CashDelta = m.Amount
	case BankMovementTypeChequePayment:
		if m.PartyId != nil {
			d.PayableDelta = m.Amount.Neg()
		}
	}
	return d
}

func cashFlowImpact(cf *CashFlow, cashLike bool) SummaryDelta {
	if cf == nil || cf.IsDeleted || !cashLike {
		return SummaryDelta{}
	}
	d := SummaryDelta{BusinessId: cf.BusinessId}
	if cf.FlowType == CashFlowTypeIn {
		d.CashDelta = cf.Amount
	} else {
		d.CashDelta = cf.Amount.Neg()
	}
	return d
}

func (cf *CashFlow) isCashLike(tx *gorm.DB) bool {
	if cf == nil {
		return false
	}
	if cf.BankAccountId == nil {
		return true
	}
	var account BankAccount
	if err := hookDB(tx).Where("id = ?", *cf.BankAccountId).Take(&account).Error; err != nil {
		return false
	}
	return account.AccountType == BankAccountTypeCash
}

// ---- SalesOrder ----

func (o *SalesOrder) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[SalesOrder](tx, o.ID)
	if err != nil {
		return err
	}
	o.prev = prev
	return nil
}

func (o *SalesOrder) AfterSave(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), salesOrderImpact(o).Sub(salesOrderImpact(o.prev))); err != nil {
		return err
	}
	oldBusinessId := 0
	if o.prev != nil {
		oldBusinessId = o.prev.BusinessId
	}
	return refreshAfterMutation(tx, o.BusinessId, oldBusinessId, o.CustomerId)
}

func (o *SalesOrder) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), salesOrderImpact(o).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, o.BusinessId, 0, o.CustomerId)
}

// ---- SalesInvoice ----

func (inv *SalesInvoice) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[SalesInvoice](tx, inv.ID)
	if err != nil {
		return err
	}
	inv.prev = prev
	return nil
}

func (inv *SalesInvoice) AfterSave(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), salesInvoiceImpact(inv).Sub(salesInvoiceImpact(inv.prev))); err != nil {
		return err
	}
	oldBusinessId := 0
	if inv.prev != nil {
		oldBusinessId = inv.prev.BusinessId
	}
	return refreshAfterMutation(tx, inv.BusinessId, oldBusinessId, inv.CustomerId)
}

func (inv *SalesInvoice) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), salesInvoiceImpact(inv).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, inv.BusinessId, 0, inv.CustomerId)
}

// ---- SalesReturn ----

func (r *SalesReturn) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[SalesReturn](tx, r.ID)
	if err != nil {
		return err
	}
	r.prev = prev
	return nil
}

func (r *SalesReturn) AfterSave(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), salesReturnImpact(r).Sub(salesReturnImpact(r.prev))); err != nil {
		return err
	}
	oldBusinessId := 0
	if r.prev != nil {
		oldBusinessId = r.prev.BusinessId
	}
	return refreshAfterMutation(tx, r.BusinessId, oldBusinessId, r.CustomerId)
}

func (r *SalesReturn) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), salesReturnImpact(r).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, r.BusinessId, 0, r.CustomerId)
}

// ---- PurchaseOrder ----

func (po *PurchaseOrder) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[PurchaseOrder](tx, po.ID)
	if err != nil {
		return err
	}
	po.prev = prev
	return nil
}

func (po *PurchaseOrder) AfterSave(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), purchaseOrderImpact(po).Sub(purchaseOrderImpact(po.prev))); err != nil {
		return err
	}
	oldBusinessId := 0
	if po.prev != nil {
		oldBusinessId = po.prev.BusinessId
	}
	return refreshAfterMutation(tx, po.BusinessId, oldBusinessId, po.SupplierId)
}

func (po *PurchaseOrder) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), purchaseOrderImpact(po).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, po.BusinessId, 0, po.SupplierId)
}

// ---- PurchaseReturn ----

func (pr *PurchaseReturn) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[PurchaseReturn](tx, pr.ID)
	if err != nil {
		return err
	}
	pr.prev = prev
	return nil
}

func (pr *PurchaseReturn) AfterSave(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), purchaseReturnImpact(pr).Sub(purchaseReturnImpact(pr.prev))); err != nil {
		return err
	}
	oldBusinessId := 0
	if pr.prev != nil {
		oldBusinessId = pr.prev.BusinessId
	}
	return refreshAfterMutation(tx, pr.BusinessId, oldBusinessId, pr.SupplierId)
}

func (pr *PurchaseReturn) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), purchaseReturnImpact(pr).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, pr.BusinessId, 0, pr.SupplierId)
}

// ---- Payment ----

func (p *Payment) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[Payment](tx, p.ID)
	if err != nil {
		return err
	}
	p.prev = prev
	return nil
}

func (p *Payment) AfterSave(tx *gorm.DB) error {
	newImpact := paymentImpact(p, p.isCashLike(tx))
	oldImpact := paymentImpact(p.prev, p.prev.isCashLike(tx))
	if err := publishSummaryDelta(hookDB(tx), newImpact.Sub(oldImpact)); err != nil {
		return err
	}
	oldBusinessId := 0
	if p.prev != nil {
		oldBusinessId = p.prev.BusinessId
	}
	return refreshAfterMutation(tx, p.BusinessId, oldBusinessId, p.PartyId)
}

func (p *Payment) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), paymentImpact(p, p.isCashLike(tx)).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, p.BusinessId, 0, p.PartyId)
}

// ---- Expense ----

func (e *Expense) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[Expense](tx, e.ID)
	if err != nil {
		return err
	}
	e.prev = prev
	return nil
}

func (e *Expense) AfterSave(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), expenseImpact(e).Sub(expenseImpact(e.prev))); err != nil {
		return err
	}
	oldBusinessId := 0
	if e.prev != nil {
		oldBusinessId = e.prev.BusinessId
	}
	return refreshAfterMutation(tx, e.BusinessId, oldBusinessId, 0)
}

func (e *Expense) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), expenseImpact(e).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, e.BusinessId, 0, 0)
}

// ---- Party (opening balance) ----

func (p *Party) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[Party](tx, p.ID)
	if err != nil {
		return err
	}
	p.prev = prev
	return nil
}

func (p *Party) AfterSave(tx *gorm.DB) error {
	return publishSummaryDelta(hookDB(tx), partyOpeningImpact(p).Sub(partyOpeningImpact(p.prev)))
}

func (p *Party) AfterDelete(tx *gorm.DB) error {
	return publishSummaryDelta(hookDB(tx), partyOpeningImpact(p).Neg())
}

// ---- Product (inventory valuation) ----

func (p *Product) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[Product](tx, p.ID)
	if err != nil {
		return err
	}
	p.prev = prev
	return nil
}

func (p *Product) AfterSave(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), productImpact(p).Sub(productImpact(p.prev))); err != nil {
		return err
	}
	oldBusinessId := 0
	if p.prev != nil {
		oldBusinessId = p.prev.BusinessId
	}
	return refreshAfterMutation(tx, p.BusinessId, oldBusinessId, 0)
}

func (p *Product) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), productImpact(p).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, p.BusinessId, 0, 0)
}

// ---- BankAccount (cash opening) ----

func (a *BankAccount) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[BankAccount](tx, a.ID)
	if err != nil {
		return err
	}
	a.prev = prev
	return nil
}

func (a *BankAccount) AfterSave(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), bankAccountImpact(a).Sub(bankAccountImpact(a.prev))); err != nil {
		return err
	}
	return refreshAfterMutation(tx, a.BusinessId, 0, 0)
}

func (a *BankAccount) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), bankAccountImpact(a).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, a.BusinessId, 0, 0)
}

// ---- BankMovement ----

func (m *BankMovement) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[BankMovement](tx, m.ID)
	if err != nil {
		return err
	}
	m.prev = prev
	return nil
}

func (m *BankMovement) AfterSave(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), bankMovementImpact(m).Sub(bankMovementImpact(m.prev))); err != nil {
		return err
	}
	oldBusinessId := 0
	if m.prev != nil {
		oldBusinessId = m.prev.BusinessId
	}
	partyId := utils.DereferencePtr(m.PartyId)
	if err := refreshAfterMutation(tx, m.BusinessId, oldBusinessId, partyId); err != nil {
		return err
	}
	return m.refreshLinkedOrderBusiness(tx)
}

func (m *BankMovement) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), bankMovementImpact(m).Neg()); err != nil {
		return err
	}
	if err := refreshAfterMutation(tx, m.BusinessId, 0, utils.DereferencePtr(m.PartyId)); err != nil {
		return err
	}
	return m.refreshLinkedOrderBusiness(tx)
}

// A cheque payment recorded against another business's purchase order
// must refresh that business too.
func (m *BankMovement) refreshLinkedOrderBusiness(tx *gorm.DB) error {
	if m.PurchaseOrderId == nil {
		return nil
	}
	var order PurchaseOrder
	err := hookDB(tx).Where("id = ?", *m.PurchaseOrderId).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if order.BusinessId != 0 && order.BusinessId != m.BusinessId {
		if _, err := updateBusinessSummary(hookDB(tx), order.BusinessId); err != nil {
			return err
		}
	}
	return nil
}

// ---- CashFlow ----

func (cf *CashFlow) BeforeSave(tx *gorm.DB) error {
	prev, err := capturePrev[CashFlow](tx, cf.ID)
	if err != nil {
		return err
	}
	cf.prev = prev
	return nil
}

func (cf *CashFlow) AfterSave(tx *gorm.DB) error {
	newImpact := cashFlowImpact(cf, cf.isCashLike(tx))
	oldImpact := cashFlowImpact(cf.prev, cf.prev.isCashLike(tx))
	if err := publishSummaryDelta(hookDB(tx), newImpact.Sub(oldImpact)); err != nil {
		return err
	}
	oldBusinessId := 0
	if cf.prev != nil {
		oldBusinessId = cf.prev.BusinessId
	}
	return refreshAfterMutation(tx, cf.BusinessId, oldBusinessId, 0)
}

func (cf *CashFlow) AfterDelete(tx *gorm.DB) error {
	if err := publishSummaryDelta(hookDB(tx), cashFlowImpact(cf, cf.isCashLike(tx)).Neg()); err != nil {
		return err
	}
	return refreshAfterMutation(tx, cf.BusinessId, 0, 0)
}
