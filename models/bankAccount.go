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

// BankAccount covers both physical cash drawers (CASH) and real bank
// accounts (BANK). CASH accounts feed cash-in-hand; BANK accounts feed
// the bank balance.
type BankAccount struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     int             `gorm:"index;not null" json:"business_id" binding:"required"`
	Name           string          `gorm:"size:100;not null" json:"name" binding:"required"`
	AccountType    BankAccountType `gorm:"type:enum('CASH','BANK');default:BANK" json:"account_type"`
	AccountNumber  string          `gorm:"size:50" json:"account_number"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"opening_balance"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	IsDeleted      bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	prev *BankAccount `gorm:"-" json:"-"`
}

func GetBankAccountById(ctx context.Context, accountId int) (*BankAccount, error) {
	db := config.GetDB()
	var account BankAccount
	err := db.WithContext(ctx).Where("id = ? AND is_deleted = 0", accountId).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	} else if err != nil {
		return nil, err
	}
	return &account, nil
}

func sumAccountOpenings(tx *gorm.DB, businessId int, accountType BankAccountType) (decimal.Decimal, error) {
	q := tx.Model(&BankAccount{}).
		Select("COALESCE(SUM(opening_balance), 0) AS total").
		Where("account_type = ? AND is_active = 1 AND is_deleted = 0", accountType)
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
