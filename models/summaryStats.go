package models

import (
	"context"
	"errors"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SummaryStatsID is the fixed identity of the global singleton row.
const SummaryStatsID = 1

// SummaryStats is the global KPI singleton, maintained by signed deltas
// on every relevant mutation. It is never read-modify-written; deltas
// are applied as atomic in-place adds.
type SummaryStats struct {
	ID                      int             `gorm:"primary_key" json:"id"`
	TotalReceivables        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_receivables"`
	TotalPayables           decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_payables"`
	CashInHand              decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"cash_in_hand"`
	TotalInventoryValuation decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_inventory_valuation"`
}

var errSummaryStatsSingleton = errors.New("summary stats is a singleton; only id 1 may exist")

func (s *SummaryStats) BeforeSave(tx *gorm.DB) error {
	if s.ID != SummaryStatsID {
		return errSummaryStatsSingleton
	}
	return nil
}

func (s *SummaryStats) BeforeCreate(tx *gorm.DB) error {
	if s.ID != SummaryStatsID {
		return errSummaryStatsSingleton
	}
	return nil
}

func GetSummaryStats(ctx context.Context) (*SummaryStats, error) {
	db := config.GetDB()
	stats := SummaryStats{ID: SummaryStatsID}
	err := db.WithContext(ctx).FirstOrCreate(&stats, SummaryStats{ID: SummaryStatsID}).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// applySummaryStatsDelta adds the delta to the singleton in place.
// UpdateColumns produces a single UPDATE with column = column + ?
// expressions, so concurrent writers never lose each other's adds.
func applySummaryStatsDelta(tx *gorm.DB, delta SummaryDelta) error {
	if delta.IsZero() {
		return nil
	}
	updates := map[string]interface{}{}
	if !delta.ReceivableDelta.IsZero() {
		updates["total_receivables"] = gorm.Expr("total_receivables + ?", delta.ReceivableDelta)
	}
	if !delta.PayableDelta.IsZero() {
		updates["total_payables"] = gorm.Expr("total_payables + ?", delta.PayableDelta)
	}
	if !delta.CashDelta.IsZero() {
		updates["cash_in_hand"] = gorm.Expr("cash_in_hand + ?", delta.CashDelta)
	}
	if !delta.InventoryDelta.IsZero() {
		updates["total_inventory_valuation"] = gorm.Expr("total_inventory_valuation + ?", delta.InventoryDelta)
	}

	result := tx.Model(&SummaryStats{}).Where("id = ?", SummaryStatsID).UpdateColumns(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		stats := SummaryStats{ID: SummaryStatsID}
		if err := tx.Create(&stats).Error; err != nil {
			return err
		}
		return tx.Model(&SummaryStats{}).Where("id = ?", SummaryStatsID).UpdateColumns(updates).Error
	}
	return nil
}
