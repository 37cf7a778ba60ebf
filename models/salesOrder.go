package models

import (
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
)

type SalesOrder struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      int             `gorm:"index;not null" json:"business_id" binding:"required"`
	CustomerId      int             `gorm:"index;not null" json:"customer_id" binding:"required"`
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

	Items []SalesOrderItem `json:"items"`

	prev *SalesOrder `gorm:"-" json:"-"`
}

type SalesOrderItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SalesOrderId int             `gorm:"index;not null" json:"sales_order_id"`
	ProductId    int             `gorm:"index;default:null" json:"product_id"`
	ProductName  string          `gorm:"size:255" json:"product_name"`
	UomCode      string          `gorm:"size:20" json:"uom_code"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"unit_price"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (item *SalesOrderItem) LineTotal() decimal.Decimal {
	return utils.Quantize2(item.Quantity.Mul(item.UnitPrice))
}

// SalesOrderReceipt applies one payment (or part of one) against one
// sales order.
type SalesOrderReceipt struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SalesOrderId int             `gorm:"index;not null" json:"sales_order_id" binding:"required"`
	PaymentId    int             `gorm:"index;not null" json:"payment_id" binding:"required"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount" binding:"required"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	SalesOrder *SalesOrder `json:"sales_order"`
	Payment    *Payment    `json:"payment"`
}

func (o *SalesOrder) countsTowardBalance() bool {
	return !o.IsDeleted && o.Status != OrderStatusCancelled
}

func (o *SalesOrder) itemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// TaxAmount and DiscountAmount are derived from the item total, each
// quantized once, matching the amounts their ledger rows carry.
func (o *SalesOrder) TaxAmount() decimal.Decimal {
	return utils.Quantize2(o.itemsTotal().Mul(o.TaxPercent).Div(decimal.NewFromInt(100)))
}

func (o *SalesOrder) DiscountAmount() decimal.Decimal {
	return utils.Quantize2(o.itemsTotal().Mul(o.DiscountPercent).Div(decimal.NewFromInt(100)))
}

// ComputeTotals stamps TotalAmount and NetTotal from the items so that
// NetTotal always equals what the document's ledger rows sum to.
func (o *SalesOrder) ComputeTotals() {
	o.TotalAmount = o.itemsTotal()
	o.NetTotal = o.TotalAmount.Add(o.TaxAmount()).Sub(o.DiscountAmount())
}
