package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a standalone money movement against a party, before (or
// independent of) allocation to specific documents. Direction "in" is
// money received from the party, "out" is money paid to the party.
// A pending cheque contributes nothing anywhere until it clears.
type Payment struct {
	ID            int              `gorm:"primary_key" json:"id"`
	BusinessId    int              `gorm:"index;not null" json:"business_id" binding:"required"`
	PartyId       int              `gorm:"index;not null" json:"party_id" binding:"required"`
	Direction     PaymentDirection `gorm:"type:enum('in','out');not null" json:"direction" binding:"required"`
	PaymentMethod PaymentMethod    `gorm:"type:enum('cash','bank');default:cash" json:"payment_method"`
	BankAccountId *int             `gorm:"index;default:null" json:"bank_account_id"`
	ChequeStatus  ChequeStatus     `gorm:"type:enum('','pending','cleared');default:''" json:"cheque_status"`
	Amount        decimal.Decimal  `gorm:"type:decimal(20,2);default:0" json:"amount" binding:"required"`
	Reference     string           `gorm:"size:255" json:"reference"`
	Notes         string           `gorm:"type:text" json:"notes"`
	IsDeleted     bool             `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	prev *Payment `gorm:"-" json:"-"`
}

// countsTowardBalance mirrors the exclusion rules every ledger feed and
// balance sum apply to payments.
func (p *Payment) countsTowardBalance() bool {
	return !p.IsDeleted && p.ChequeStatus != ChequeStatusPending
}
