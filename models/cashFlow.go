package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashFlow is a manual money movement (drawings, capital injections,
// till adjustments). A nil BankAccountId means physical cash.
type CashFlow struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    int             `gorm:"index;not null" json:"business_id" binding:"required"`
	BankAccountId *int            `gorm:"index;default:null" json:"bank_account_id"`
	FlowType      CashFlowType    `gorm:"type:enum('IN','OUT');not null" json:"flow_type" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount" binding:"required"`
	FlowDate      time.Time       `gorm:"index;not null" json:"flow_date"`
	Description   string          `gorm:"type:text" json:"description"`
	IsDeleted     bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	prev *CashFlow `gorm:"-" json:"-"`
}

// sumCashFlows nets IN minus OUT for flows landing on the given account
// type. Flows with no account count as physical cash.
func sumCashFlows(tx *gorm.DB, businessId int, accountType BankAccountType) (decimal.Decimal, error) {
	q := tx.Model(&CashFlow{}).
		Select("COALESCE(SUM(CASE WHEN cash_flows.flow_type = 'IN' THEN cash_flows.amount ELSE -cash_flows.amount END), 0) AS total").
		Joins("LEFT JOIN bank_accounts ON bank_accounts.id = cash_flows.bank_account_id").
		Where("cash_flows.is_deleted = 0")
	if accountType == BankAccountTypeCash {
		q = q.Where("cash_flows.bank_account_id IS NULL OR bank_accounts.account_type = 'CASH'")
	} else {
		q = q.Where("bank_accounts.account_type = 'BANK'")
	}
	if businessId != 0 {
		q = q.Where("cash_flows.business_id = ?", businessId)
	}
	var result struct {
		Total decimal.Decimal
	}
	if err := q.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}
