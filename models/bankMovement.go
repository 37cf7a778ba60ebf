package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankMovement moves money between the till and a bank account, or pays
// a supplier by cheque straight from the bank (cheque_payment, which
// also debits the supplier's ledger).
type BankMovement struct {
	ID              int              `gorm:"primary_key" json:"id"`
	BusinessId      int              `gorm:"index;not null" json:"business_id" binding:"required"`
	BankAccountId   int              `gorm:"index;not null" json:"bank_account_id" binding:"required"`
	PartyId         *int             `gorm:"index;default:null" json:"party_id"`
	PurchaseOrderId *int             `gorm:"index;default:null" json:"purchase_order_id"`
	MovementType    BankMovementType `gorm:"type:enum('deposit','withdrawal','cheque_payment');not null" json:"movement_type" binding:"required"`
	Amount          decimal.Decimal  `gorm:"type:decimal(20,2);default:0" json:"amount" binding:"required"`
	MovementDate    time.Time        `gorm:"index;not null" json:"movement_date"`
	Reference       string           `gorm:"size:255" json:"reference"`
	IsDeleted       bool             `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	prev *BankMovement `gorm:"-" json:"-"`
}
