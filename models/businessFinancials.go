package models

import (
	"context"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BusinessFinancials is the wholesale recomputation of one business's
// position (businessId 0 = all businesses). It is the ground truth the
// BusinessSummary cache and the global singleton are repaired against.
type BusinessFinancials struct {
	BusinessId       int             `json:"business_id"`
	CashInHand       decimal.Decimal `json:"cash_in_hand"`
	BankBalance      decimal.Decimal `json:"bank_balance"`
	InventoryValue   decimal.Decimal `json:"inventory_value"`
	TotalReceivables decimal.Decimal `json:"total_receivables"`
	TotalPayables    decimal.Decimal `json:"total_payables"`
}

func GetBusinessFinancials(ctx context.Context, businessId int) (*BusinessFinancials, error) {
	return getBusinessFinancials(config.GetDB().WithContext(ctx), businessId)
}

func getBusinessFinancials(tx *gorm.DB, businessId int) (*BusinessFinancials, error) {
	fin := &BusinessFinancials{BusinessId: businessId}

	cashOpenings, err := sumAccountOpenings(tx, businessId, BankAccountTypeCash)
	if err != nil {
		return nil, err
	}
	bankOpenings, err := sumAccountOpenings(tx, businessId, BankAccountTypeBank)
	if err != nil {
		return nil, err
	}
	cashFlowsCash, err := sumCashFlows(tx, businessId, BankAccountTypeCash)
	if err != nil {
		return nil, err
	}
	cashFlowsBank, err := sumCashFlows(tx, businessId, BankAccountTypeBank)
	if err != nil {
		return nil, err
	}
	paymentsCash, err := sumPaymentsNet(tx, businessId, PaymentMethodCash)
	if err != nil {
		return nil, err
	}
	paymentsBank, err := sumPaymentsNet(tx, businessId, PaymentMethodBank)
	if err != nil {
		return nil, err
	}
	expensesCash, err := sumExpenses(tx, businessId, PaymentSourceCash)
	if err != nil {
		return nil, err
	}
	expensesBank, err := sumExpenses(tx, businessId, PaymentSourceBank)
	if err != nil {
		return nil, err
	}
	deposits, err := sumBankMovements(tx, businessId, BankMovementTypeDeposit)
	if err != nil {
		return nil, err
	}
	withdrawals, err := sumBankMovements(tx, businessId, BankMovementTypeWithdrawal)
	if err != nil {
		return nil, err
	}
	chequePayments, err := sumBankMovements(tx, businessId, BankMovementTypeChequePayment)
	if err != nil {
		return nil, err
	}

	fin.CashInHand = cashOpenings.
		Add(cashFlowsCash).
		Add(paymentsCash).
		Sub(expensesCash).
		Add(withdrawals).
		Sub(deposits)
	fin.BankBalance = bankOpenings.
		Add(cashFlowsBank).
		Add(paymentsBank).
		Sub(expensesBank).
		Add(deposits).
		Sub(withdrawals).
		Sub(chequePayments)

	fin.InventoryValue, err = GetInventoryValuation(tx, businessId)
	if err != nil {
		return nil, err
	}

	fin.TotalReceivables, fin.TotalPayables, err = getGlobalReceivablesPayables(tx, businessId)
	if err != nil {
		return nil, err
	}
	return fin, nil
}

// sumPaymentsNet nets received minus paid for one side of the till.
// A bank payment routed through a CASH-type account counts as cash.
// Pending cheques and soft-deleted payments are out, same as everywhere.
func sumPaymentsNet(tx *gorm.DB, businessId int, method PaymentMethod) (decimal.Decimal, error) {
	q := tx.Model(&Payment{}).
		Select("COALESCE(SUM(CASE WHEN payments.direction = 'in' THEN payments.amount ELSE -payments.amount END), 0) AS total").
		Joins("LEFT JOIN bank_accounts ON bank_accounts.id = payments.bank_account_id").
		Where("payments.is_deleted = 0 AND payments.cheque_status <> ?", ChequeStatusPending)
	if method == PaymentMethodCash {
		q = q.Where("payments.payment_method = 'cash' OR (payments.payment_method = 'bank' AND bank_accounts.account_type = 'CASH' AND bank_accounts.is_active = 1 AND bank_accounts.is_deleted = 0)")
	} else {
		q = q.Where("payments.payment_method = 'bank' AND (bank_accounts.id IS NULL OR bank_accounts.account_type <> 'CASH' OR bank_accounts.is_active = 0 OR bank_accounts.is_deleted = 1)")
	}
	if businessId != 0 {
		q = q.Where("payments.business_id = ?", businessId)
	}
	var result struct {
		Total decimal.Decimal
	}
	if err := q.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

func sumExpenses(tx *gorm.DB, businessId int, source PaymentSource) (decimal.Decimal, error) {
	q := tx.Model(&Expense{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("payment_source = ? AND is_deleted = 0", source)
	if businessId != 0 {
		q = q.Where("business_id = ?", businessId)
	}
	var result struct {
		Total decimal.Decimal
	}
	if err := q.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

func sumBankMovements(tx *gorm.DB, businessId int, movementType BankMovementType) (decimal.Decimal, error) {
	q := tx.Model(&BankMovement{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("movement_type = ? AND is_deleted = 0", movementType)
	if businessId != 0 {
		q = q.Where("business_id = ?", businessId)
	}
	var result struct {
		Total decimal.Decimal
	}
	if err := q.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}
