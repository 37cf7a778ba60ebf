package models

import (
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
)

// PurchaseReturn is goods going back to a supplier. Its ledger rows
// mirror a purchase order's polarity: Dr items, Dr tax, Cr discount,
// keeping NetTotal = items + tax - discount uniform with the other
// document kinds.
type PurchaseReturn struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      int             `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId      int             `gorm:"index;not null" json:"supplier_id" binding:"required"`
	ReturnNo        string          `gorm:"size:50" json:"return_no"`
	PurchaseOrderId *int            `gorm:"index;default:null" json:"purchase_order_id"`
	Status          OrderStatus     `gorm:"type:enum('OPEN','COMPLETED','CANCELLED');default:OPEN" json:"status"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"tax_percent"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"discount_percent"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	NetTotal        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"net_total"`
	Notes           string          `gorm:"type:text" json:"notes"`
	IsDeleted       bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Items []PurchaseReturnItem `json:"items"`

	prev *PurchaseReturn `gorm:"-" json:"-"`
}

type PurchaseReturnItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PurchaseReturnId int             `gorm:"index;not null" json:"purchase_return_id"`
	ProductId        int             `gorm:"index;default:null" json:"product_id"`
	ProductName      string          `gorm:"size:255" json:"product_name"`
	UomCode          string          `gorm:"size:20" json:"uom_code"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"quantity"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"unit_cost"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (item *PurchaseReturnItem) LineTotal() decimal.Decimal {
	return utils.Quantize2(item.Quantity.Mul(item.UnitCost))
}

// PurchaseReturnRefund is money received back from the supplier against
// a return.
type PurchaseReturnRefund struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PurchaseReturnId int             `gorm:"index;not null" json:"purchase_return_id" binding:"required"`
	PaymentId        int             `gorm:"index;not null" json:"payment_id" binding:"required"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount" binding:"required"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	PurchaseReturn *PurchaseReturn `json:"purchase_return"`
	Payment        *Payment       `json:"payment"`
}

func (pr *PurchaseReturn) countsTowardBalance() bool {
	return !pr.IsDeleted && pr.Status != OrderStatusCancelled
}

func (pr *PurchaseReturn) itemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range pr.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (pr *PurchaseReturn) TaxAmount() decimal.Decimal {
	return utils.Quantize2(pr.itemsTotal().Mul(pr.TaxPercent).Div(decimal.NewFromInt(100)))
}

func (pr *PurchaseReturn) DiscountAmount() decimal.Decimal {
	return utils.Quantize2(pr.itemsTotal().Mul(pr.DiscountPercent).Div(decimal.NewFromInt(100)))
}

func (pr *PurchaseReturn) ComputeTotals() {
	pr.TotalAmount = pr.itemsTotal()
	pr.NetTotal = pr.TotalAmount.Add(pr.TaxAmount()).Sub(pr.DiscountAmount())
}
