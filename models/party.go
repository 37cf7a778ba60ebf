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

type Party struct {
	ID                     int             `gorm:"primary_key" json:"id"`
	Type                   PartyType       `gorm:"type:enum('CUSTOMER','VENDOR','BOTH');not null" json:"type" binding:"required"`
	DisplayName            string          `gorm:"index;size:100;not null" json:"display_name" binding:"required"`
	Phone                  string          `gorm:"size:20" json:"phone"`
	Email                  string          `gorm:"size:255" json:"email"`
	Address                string          `gorm:"type:text" json:"address"`
	OpeningBalance         decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"opening_balance"`
	OpeningBalanceSide     Side            `gorm:"type:enum('Dr','Cr');default:Dr" json:"opening_balance_side"`
	OpeningBalanceDate     *time.Time      `gorm:"default:null" json:"opening_balance_date"`
	DefaultBusinessId      int             `gorm:"index;default:0" json:"default_business_id"`
	CachedBalance          decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"cached_balance"`
	CachedBalanceUpdatedAt *time.Time      `gorm:"default:null" json:"cached_balance_updated_at"`
	IsDeleted              bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt              time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// NetBalance is stamped by GetPartyBalances; never persisted.
	NetBalance decimal.Decimal `gorm:"-" json:"net_balance"`

	prev *Party `gorm:"-" json:"-"`
}

func GetPartyById(ctx context.Context, partyId int) (*Party, error) {
	db := config.GetDB()
	var party Party
	err := db.WithContext(ctx).Where("id = ? AND is_deleted = 0", partyId).First(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	} else if err != nil {
		return nil, err
	}
	return &party, nil
}

// OpeningBusinessId resolves which business owns a party's opening
// balance: the party's own default business when set, otherwise the
// first active business in (name, id) order. The ledger assembler and
// the balance aggregator both go through this one function so a shared
// party's opening balance is counted exactly once either way.
func OpeningBusinessId(party *Party, activeBusinesses []*Business) int {
	if party.DefaultBusinessId != 0 {
		return party.DefaultBusinessId
	}
	if len(activeBusinesses) > 0 {
		return activeBusinesses[0].ID
	}
	return 0
}

// OpeningAppliesTo reports whether the party's opening balance belongs
// in a view scoped to businessId. businessId 0 means the consolidated
// (all businesses) scope, which always includes the opening.
func OpeningAppliesTo(party *Party, businessId int, activeBusinesses []*Business) bool {
	if party.OpeningBalance.IsZero() {
		return false
	}
	if businessId == 0 {
		return true
	}
	return OpeningBusinessId(party, activeBusinesses) == businessId
}

// OpeningSigned returns the opening balance as a signed debit-positive
// amount.
func OpeningSigned(party *Party) decimal.Decimal {
	if party.OpeningBalanceSide == SideCr {
		return party.OpeningBalance.Neg()
	}
	return party.OpeningBalance
}

// OpeningEffectiveDate is the date the opening row carries in a ledger:
// the declared opening date when present, else the party's creation date.
func OpeningEffectiveDate(party *Party) time.Time {
	if party.OpeningBalanceDate != nil {
		return utils.DateOnly(*party.OpeningBalanceDate)
	}
	return utils.DateOnly(party.CreatedAt)
}
