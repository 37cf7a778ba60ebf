package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSummaryDeltaAlgebra(t *testing.T) {
	a := SummaryDelta{BusinessId: 1, ReceivableDelta: dec("100"), CashDelta: dec("-30")}
	b := SummaryDelta{BusinessId: 1, ReceivableDelta: dec("40"), PayableDelta: dec("10")}

	sum := a.Add(b)
	require.True(t, sum.ReceivableDelta.Equal(dec("140")))
	require.True(t, sum.PayableDelta.Equal(dec("10")))
	require.True(t, sum.CashDelta.Equal(dec("-30")))

	diff := a.Sub(b)
	require.True(t, diff.ReceivableDelta.Equal(dec("60")))
	require.True(t, diff.PayableDelta.Equal(dec("-10")))

	neg := a.Neg()
	require.True(t, neg.ReceivableDelta.Equal(dec("-100")))
	require.True(t, neg.CashDelta.Equal(dec("30")))

	require.True(t, a.Sub(a).IsZero())
	require.False(t, a.IsZero())
	require.True(t, SummaryDelta{BusinessId: 9}.IsZero())
}

func TestSalesOrderImpact(t *testing.T) {
	so := &SalesOrder{BusinessId: 1, CustomerId: 2, Status: OrderStatusOpen, NetTotal: dec("500")}
	d := salesOrderImpact(so)
	require.True(t, d.ReceivableDelta.Equal(dec("500")))
	require.True(t, d.PayableDelta.IsZero())

	so.Status = OrderStatusCancelled
	require.True(t, salesOrderImpact(so).IsZero())

	so.Status = OrderStatusOpen
	so.IsDeleted = true
	require.True(t, salesOrderImpact(so).IsZero())

	require.True(t, salesOrderImpact(nil).IsZero())
}

func TestReturnImpactsMirrorPolarity(t *testing.T) {
	sr := &SalesReturn{BusinessId: 1, CustomerId: 2, Status: OrderStatusOpen, NetTotal: dec("120")}
	require.True(t, salesReturnImpact(sr).ReceivableDelta.Equal(dec("-120")))

	pr := &PurchaseReturn{BusinessId: 1, SupplierId: 2, Status: OrderStatusOpen, NetTotal: dec("80")}
	require.True(t, purchaseReturnImpact(pr).PayableDelta.Equal(dec("-80")))

	po := &PurchaseOrder{BusinessId: 1, SupplierId: 2, Status: OrderStatusOpen, NetTotal: dec("300")}
	require.True(t, purchaseOrderImpact(po).PayableDelta.Equal(dec("300")))
}

// Editing a payment's direction from out to in produces one signed
// delta: receivables fall by the amount, payables rise by the amount
// (the outgoing payment no longer settles them).
func TestPaymentImpactDirectionEdit(t *testing.T) {
	old := &Payment{ID: 7, BusinessId: 1, PartyId: 3, Direction: PaymentDirectionOut, Amount: dec("500")}
	edited := &Payment{ID: 7, BusinessId: 1, PartyId: 3, Direction: PaymentDirectionIn, Amount: dec("500")}

	delta := paymentImpact(edited, false).Sub(paymentImpact(old, false))
	require.True(t, delta.ReceivableDelta.Equal(dec("-500")))
	require.True(t, delta.PayableDelta.Equal(dec("500")))
	require.True(t, delta.CashDelta.IsZero())
}

func TestPaymentImpactCashMovement(t *testing.T) {
	in := &Payment{BusinessId: 1, PartyId: 3, Direction: PaymentDirectionIn, Amount: dec("200")}
	d := paymentImpact(in, true)
	require.True(t, d.CashDelta.Equal(dec("200")))
	require.True(t, d.ReceivableDelta.Equal(dec("-200")))

	out := &Payment{BusinessId: 1, PartyId: 3, Direction: PaymentDirectionOut, Amount: dec("200")}
	d = paymentImpact(out, true)
	require.True(t, d.CashDelta.Equal(dec("-200")))
	require.True(t, d.PayableDelta.Equal(dec("-200")))
}

func TestPaymentImpactExclusions(t *testing.T) {
	pending := &Payment{BusinessId: 1, PartyId: 3, Direction: PaymentDirectionIn, Amount: dec("200"), ChequeStatus: ChequeStatusPending}
	require.True(t, paymentImpact(pending, true).IsZero())

	deleted := &Payment{BusinessId: 1, PartyId: 3, Direction: PaymentDirectionIn, Amount: dec("200"), IsDeleted: true}
	require.True(t, paymentImpact(deleted, true).IsZero())

	require.True(t, paymentImpact(nil, true).IsZero())
}

func TestExpenseImpactCashSourceOnly(t *testing.T) {
	cash := &Expense{BusinessId: 1, Category: ExpenseCategoryRent, PaymentSource: PaymentSourceCash, Amount: dec("75")}
	require.True(t, expenseImpact(cash).CashDelta.Equal(dec("-75")))

	bank := &Expense{BusinessId: 1, Category: ExpenseCategoryRent, PaymentSource: PaymentSourceBank, Amount: dec("75")}
	require.True(t, expenseImpact(bank).IsZero())
}

func TestPartyOpeningImpactSides(t *testing.T) {
	dr := &Party{Type: PartyTypeCustomer, OpeningBalance: dec("1000"), OpeningBalanceSide: SideDr}
	require.True(t, partyOpeningImpact(dr).ReceivableDelta.Equal(dec("1000")))

	cr := &Party{Type: PartyTypeVendor, OpeningBalance: dec("400"), OpeningBalanceSide: SideCr}
	d := partyOpeningImpact(cr)
	require.True(t, d.PayableDelta.Equal(dec("400")))
	require.True(t, d.ReceivableDelta.IsZero())
}

func TestProductImpact(t *testing.T) {
	active := &Product{BusinessId: 1, StockQty: dec("10"), PurchasePrice: dec("2.5")}
	require.True(t, productImpact(active).InventoryDelta.Equal(dec("25")))

	inactive := &Product{BusinessId: 1, StockQty: dec("10"), PurchasePrice: dec("2.5"), IsActive: boolPtr(false)}
	require.True(t, productImpact(inactive).IsZero())

	deleted := &Product{BusinessId: 1, StockQty: dec("10"), PurchasePrice: dec("2.5"), IsDeleted: true}
	require.True(t, productImpact(deleted).IsZero())
}

func TestBankMovementImpact(t *testing.T) {
	deposit := &BankMovement{BusinessId: 1, MovementType: BankMovementTypeDeposit, Amount: dec("90")}
	require.True(t, bankMovementImpact(deposit).CashDelta.Equal(dec("-90")))

	withdrawal := &BankMovement{BusinessId: 1, MovementType: BankMovementTypeWithdrawal, Amount: dec("90")}
	require.True(t, bankMovementImpact(withdrawal).CashDelta.Equal(dec("90")))

	// A cheque with no party attached moves nothing the singleton tracks.
	cheque := &BankMovement{BusinessId: 1, MovementType: BankMovementTypeChequePayment, Amount: dec("90")}
	require.True(t, bankMovementImpact(cheque).IsZero())

	supplierId := 3
	supplierCheque := &BankMovement{BusinessId: 1, PartyId: &supplierId, MovementType: BankMovementTypeChequePayment, Amount: dec("90")}
	d := bankMovementImpact(supplierCheque)
	require.True(t, d.PayableDelta.Equal(dec("-90")))
	require.True(t, d.CashDelta.IsZero())
}

func TestCashFlowImpact(t *testing.T) {
	in := &CashFlow{BusinessId: 1, FlowType: CashFlowTypeIn, Amount: dec("60")}
	require.True(t, cashFlowImpact(in, true).CashDelta.Equal(dec("60")))

	out := &CashFlow{BusinessId: 1, FlowType: CashFlowTypeOut, Amount: dec("60")}
	require.True(t, cashFlowImpact(out, true).CashDelta.Equal(dec("-60")))

	// A flow on a BANK-type account never touches the till.
	require.True(t, cashFlowImpact(in, false).IsZero())
}

func TestBankAccountImpactCashOpeningOnly(t *testing.T) {
	cash := &BankAccount{BusinessId: 1, AccountType: BankAccountTypeCash, OpeningBalance: dec("5000")}
	require.True(t, bankAccountImpact(cash).CashDelta.Equal(dec("5000")))

	bank := &BankAccount{BusinessId: 1, AccountType: BankAccountTypeBank, OpeningBalance: dec("5000")}
	require.True(t, bankAccountImpact(bank).IsZero())
}

func TestSummaryStatsSingletonGuard(t *testing.T) {
	bad := &SummaryStats{ID: 2}
	require.Error(t, bad.BeforeSave(nil))
	require.Error(t, bad.BeforeCreate(nil))

	good := &SummaryStats{ID: SummaryStatsID}
	require.NoError(t, good.BeforeSave(nil))
	require.NoError(t, good.BeforeCreate(nil))
}

func TestOpeningBusinessResolution(t *testing.T) {
	active := []*Business{{ID: 4, Name: "Alpha"}, {ID: 2, Name: "Beta"}}

	declared := &Party{OpeningBalance: dec("100"), DefaultBusinessId: 2}
	require.Equal(t, 2, OpeningBusinessId(declared, active))

	undeclared := &Party{OpeningBalance: dec("100")}
	require.Equal(t, 4, OpeningBusinessId(undeclared, active))

	// The opening is visible in exactly one business and always in the
	// consolidated view.
	owners := 0
	for _, b := range active {
		if OpeningAppliesTo(undeclared, b.ID, active) {
			owners++
		}
	}
	require.Equal(t, 1, owners)
	require.True(t, OpeningAppliesTo(undeclared, 0, active))

	zero := &Party{DefaultBusinessId: 2}
	require.False(t, OpeningAppliesTo(zero, 2, active))
}

func TestOpeningSigned(t *testing.T) {
	cr := &Party{OpeningBalance: dec("250"), OpeningBalanceSide: SideCr}
	require.True(t, OpeningSigned(cr).Equal(dec("-250")))

	dr := &Party{OpeningBalance: dec("250"), OpeningBalanceSide: SideDr}
	require.True(t, OpeningSigned(dr).Equal(dec("250")))
}

func TestComputeTotalsQuantizesOnce(t *testing.T) {
	so := &SalesOrder{
		TaxPercent: dec("10"),
		Items: []SalesOrderItem{
			{Quantity: dec("3"), UnitPrice: dec("33.335")},
		},
	}
	so.ComputeTotals()

	// 3 x 33.335 = 100.005, rounded half up at the line: 100.01.
	require.True(t, so.TotalAmount.Equal(dec("100.01")))
	require.True(t, so.TaxAmount().Equal(dec("10")))
	require.True(t, so.NetTotal.Equal(dec("110.01")))
}

func boolPtr(b bool) *bool { return &b }
