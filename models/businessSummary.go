package models

import (
	"context"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BusinessSummary is the per-business denormalized position, recomputed
// wholesale (never by delta) whenever a mutation touches that business.
type BusinessSummary struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       int             `gorm:"uniqueIndex;not null" json:"business_id"`
	CashInHand       decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"cash_in_hand"`
	BankBalance      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"bank_balance"`
	InventoryValue   decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"inventory_value"`
	TotalReceivables decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_receivables"`
	TotalPayables    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_payables"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// UpdateBusinessSummary recomputes one business's summary from source
// data and overwrites the cached row. Calling it twice with no
// intervening mutation yields identical values.
func UpdateBusinessSummary(ctx context.Context, businessId int) (*BusinessSummary, error) {
	return updateBusinessSummary(config.GetDB().WithContext(ctx), businessId)
}

func updateBusinessSummary(tx *gorm.DB, businessId int) (*BusinessSummary, error) {
	fin, err := getBusinessFinancials(tx, businessId)
	if err != nil {
		return nil, err
	}

	var summary BusinessSummary
	err = tx.Where(BusinessSummary{BusinessId: businessId}).
		Attrs(BusinessSummary{BusinessId: businessId}).
		FirstOrCreate(&summary).Error
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"cash_in_hand":      fin.CashInHand,
		"bank_balance":      fin.BankBalance,
		"inventory_value":   fin.InventoryValue,
		"total_receivables": fin.TotalReceivables,
		"total_payables":    fin.TotalPayables,
	}
	if err := tx.Model(&summary).UpdateColumns(updates).Error; err != nil {
		return nil, err
	}

	summary.CashInHand = fin.CashInHand
	summary.BankBalance = fin.BankBalance
	summary.InventoryValue = fin.InventoryValue
	summary.TotalReceivables = fin.TotalReceivables
	summary.TotalPayables = fin.TotalPayables
	return &summary, nil
}

func GetBusinessSummary(ctx context.Context, businessId int) (*BusinessSummary, error) {
	db := config.GetDB()
	var summary BusinessSummary
	err := db.WithContext(ctx).Where("business_id = ?", businessId).First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
