package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    int             `gorm:"index;not null" json:"business_id" binding:"required"`
	Name          string          `gorm:"index;size:255;not null" json:"name" binding:"required"`
	UomCode       string          `gorm:"size:20" json:"uom_code"`
	StockQty      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"stock_qty"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"sale_price"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	IsDeleted     bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	prev *Product `gorm:"-" json:"-"`
}

func GetProductById(ctx context.Context, productId int) (*Product, error) {
	db := config.GetDB()
	var product Product
	err := db.WithContext(ctx).Where("id = ? AND is_deleted = 0", productId).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	} else if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetInventoryValuation sums stock_qty * purchase_price over live
// products, optionally scoped to one business (0 = all).
func GetInventoryValuation(tx *gorm.DB, businessId int) (decimal.Decimal, error) {
	q := tx.Model(&Product{}).
		Select("COALESCE(SUM(stock_qty * purchase_price), 0) AS total").
		Where("is_active = 1 AND is_deleted = 0")
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
