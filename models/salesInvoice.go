package models

import (
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
)

// SalesInvoice is an issued invoice. Unlike an order it has no status
// lifecycle; only the soft-delete flag removes it from balances.
type SalesInvoice struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      int             `gorm:"index;not null" json:"business_id" binding:"required"`
	CustomerId      int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	InvoiceNo       string          `gorm:"size:50" json:"invoice_no"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"tax_percent"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"discount_percent"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	NetTotal        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"net_total"`
	Notes           string          `gorm:"type:text" json:"notes"`
	IsDeleted       bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Items []SalesInvoiceItem `json:"items"`

	prev *SalesInvoice `gorm:"-" json:"-"`
}

type SalesInvoiceItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	SalesInvoiceId int             `gorm:"index;not null" json:"sales_invoice_id"`
	ProductId      int             `gorm:"index;default:null" json:"product_id"`
	ProductName    string          `gorm:"size:255" json:"product_name"`
	UomCode        string          `gorm:"size:20" json:"uom_code"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"unit_price"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (item *SalesInvoiceItem) LineTotal() decimal.Decimal {
	return utils.Quantize2(item.Quantity.Mul(item.UnitPrice))
}

type SalesInvoiceReceipt struct {
	ID             int             `gorm:"primary_key" json:"id"`
	SalesInvoiceId int             `gorm:"index;not null" json:"sales_invoice_id" binding:"required"`
	PaymentId      int             `gorm:"index;not null" json:"payment_id" binding:"required"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount" binding:"required"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	SalesInvoice *SalesInvoice `json:"sales_invoice"`
	Payment      *Payment      `json:"payment"`
}

func (inv *SalesInvoice) countsTowardBalance() bool {
	return !inv.IsDeleted
}

func (inv *SalesInvoice) itemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (inv *SalesInvoice) TaxAmount() decimal.Decimal {
	return utils.Quantize2(inv.itemsTotal().Mul(inv.TaxPercent).Div(decimal.NewFromInt(100)))
}

func (inv *SalesInvoice) DiscountAmount() decimal.Decimal {
	return utils.Quantize2(inv.itemsTotal().Mul(inv.DiscountPercent).Div(decimal.NewFromInt(100)))
}

func (inv *SalesInvoice) ComputeTotals() {
	inv.TotalAmount = inv.itemsTotal()
	inv.NetTotal = inv.TotalAmount.Add(inv.TaxAmount()).Sub(inv.DiscountAmount())
}
