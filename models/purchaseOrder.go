package models

import (
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
)

// PurchaseOrder polarity is the supplier-side mirror of a sales order:
// Cr items, Cr tax, Dr discount, plus Cr rows for linked non-distributed
// expenses (landed cost). NetTotal includes those expenses so it always
// equals what the document's ledger rows sum to.
type PurchaseOrder struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      int             `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId      int             `gorm:"index;not null" json:"supplier_id" binding:"required"`
	OrderNo         string          `gorm:"size:50" json:"order_no"`
	Status          OrderStatus     `gorm:"type:enum('OPEN','COMPLETED','CANCELLED');default:OPEN" json:"status"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"tax_percent"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"discount_percent"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	NetTotal        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"net_total"`
	Notes           string          `gorm:"type:text" json:"notes"`
	IsDeleted       bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Items    []PurchaseOrderItem `json:"items"`
	Expenses []Expense           `gorm:"foreignKey:PurchaseOrderId" json:"expenses"`

	prev *PurchaseOrder `gorm:"-" json:"-"`
}

type PurchaseOrderItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId int             `gorm:"index;not null" json:"purchase_order_id"`
	ProductId       int             `gorm:"index;default:null" json:"product_id"`
	ProductName     string          `gorm:"size:255" json:"product_name"`
	UomCode         string          `gorm:"size:20" json:"uom_code"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"unit_cost"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (item *PurchaseOrderItem) LineTotal() decimal.Decimal {
	return utils.Quantize2(item.Quantity.Mul(item.UnitCost))
}

// PurchaseOrderPayment applies one payment against one purchase order.
type PurchaseOrderPayment struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId int             `gorm:"index;not null" json:"purchase_order_id" binding:"required"`
	PaymentId       int             `gorm:"index;not null" json:"payment_id" binding:"required"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount" binding:"required"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	PurchaseOrder *PurchaseOrder `json:"purchase_order"`
	Payment       *Payment       `json:"payment"`
}

func (po *PurchaseOrder) countsTowardBalance() bool {
	return !po.IsDeleted && po.Status != OrderStatusCancelled
}

func (po *PurchaseOrder) itemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range po.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (po *PurchaseOrder) TaxAmount() decimal.Decimal {
	return utils.Quantize2(po.itemsTotal().Mul(po.TaxPercent).Div(decimal.NewFromInt(100)))
}

func (po *PurchaseOrder) DiscountAmount() decimal.Decimal {
	return utils.Quantize2(po.itemsTotal().Mul(po.DiscountPercent).Div(decimal.NewFromInt(100)))
}

func (po *PurchaseOrder) linkedExpensesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, exp := range po.Expenses {
		if exp.IsDeleted || exp.IsDistributed {
			continue
		}
		total = total.Add(utils.Quantize2(exp.Amount))
	}
	return total
}

func (po *PurchaseOrder) ComputeTotals() {
	po.TotalAmount = po.itemsTotal()
	po.NetTotal = po.TotalAmount.Add(po.TaxAmount()).Sub(po.DiscountAmount()).Add(po.linkedExpensesTotal())
}
