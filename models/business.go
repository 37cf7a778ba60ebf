package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"gorm.io/gorm"
)

const activeBusinessesCacheKey = "activeBusinesses"

type Business struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Address   string    `gorm:"type:text" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	IsDeleted bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetBusinessById(ctx context.Context, businessId int) (*Business, error) {
	db := config.GetDB()
	var business Business
	err := db.WithContext(ctx).Where("id = ? AND is_deleted = 0", businessId).First(&business).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	} else if err != nil {
		return nil, err
	}
	return &business, nil
}

// GetActiveBusinesses returns the active businesses ordered by (name, id).
// This ordering is a correctness contract: consolidation iterates it to
// decide which business owns a shared party's opening balance.
func GetActiveBusinesses(ctx context.Context) ([]*Business, error) {
	var businesses []*Business
	if found, _ := config.GetRedisObject(activeBusinessesCacheKey, &businesses); found {
		return businesses, nil
	}

	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("is_active = 1 AND is_deleted = 0").
		Order("name, id").
		Find(&businesses).Error
	if err != nil {
		return nil, err
	}

	_ = config.SetRedisObject(activeBusinessesCacheKey, businesses, utils.GetCacheLifespan())
	return businesses, nil
}

func (b *Business) AfterSave(tx *gorm.DB) error {
	return config.RemoveRedisKey(activeBusinessesCacheKey)
}

func (b *Business) AfterDelete(tx *gorm.DB) error {
	return config.RemoveRedisKey(activeBusinessesCacheKey)
}
