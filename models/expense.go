package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense records money spent. SALARY expenses linked to a staff member
// debit that staff ledger; expenses linked to a purchase order surface
// as landed-cost credit rows on the supplier ledger until they are
// distributed into item cost.
type Expense struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      int             `gorm:"index;not null" json:"business_id" binding:"required"`
	StaffId         *int            `gorm:"index;default:null" json:"staff_id"`
	PurchaseOrderId *int            `gorm:"index;default:null" json:"purchase_order_id"`
	Category        ExpenseCategory `gorm:"type:enum('SALARY','FREIGHT','RENT','UTILITY','OTHER');default:OTHER" json:"category"`
	PaymentSource   PaymentSource   `gorm:"type:enum('cash','bank');default:cash" json:"payment_source"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount" binding:"required"`
	IsDistributed   bool            `gorm:"not null;default:false" json:"is_distributed"`
	ExpenseDate     time.Time       `gorm:"index;not null" json:"expense_date"`
	Description     string          `gorm:"type:text" json:"description"`
	Reference       string          `gorm:"size:255" json:"reference"`
	IsDeleted       bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	prev *Expense `gorm:"-" json:"-"`
}
