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

// Staff members accrue one synthesized salary credit per elapsed month
// from SalaryStart; no physical accrual record ever exists.
type Staff struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    int             `gorm:"index;not null" json:"business_id" binding:"required"`
	FullName      string          `gorm:"size:100;not null" json:"full_name" binding:"required"`
	Phone         string          `gorm:"size:20" json:"phone"`
	Role          string          `gorm:"size:100" json:"role"`
	MonthlySalary decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"monthly_salary"`
	SalaryStart   *time.Time      `gorm:"default:null" json:"salary_start"`
	IsDeleted     bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetStaffById(ctx context.Context, staffId int) (*Staff, error) {
	db := config.GetDB()
	var staff Staff
	err := db.WithContext(ctx).Where("id = ? AND is_deleted = 0", staffId).First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	} else if err != nil {
		return nil, err
	}
	return &staff, nil
}
