package models

import (
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
)

// SalesReturn is goods coming back from a customer. Its ledger rows
// mirror a sales order's polarity: Cr items, Cr tax, Dr discount.
type SalesReturn struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      int             `gorm:"index;not null" json:"business_id" binding:"required"`
	CustomerId      int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	ReturnNo        string          `gorm:"size:50" json:"return_no"`
	SalesOrderId    *int            `gorm:"index;default:null" json:"sales_order_id"`
	Status          OrderStatus     `gorm:"type:enum('OPEN','COMPLETED','CANCELLED');default:OPEN" json:"status"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"tax_percent"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"discount_percent"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	NetTotal        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"net_total"`
	Notes           string          `gorm:"type:text" json:"notes"`
	IsDeleted       bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Items []SalesReturnItem `json:"items"`

	prev *SalesReturn `gorm:"-" json:"-"`
}

type SalesReturnItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	SalesReturnId int             `gorm:"index;not null" json:"sales_return_id"`
	ProductId     int             `gorm:"index;default:null" json:"product_id"`
	ProductName   string          `gorm:"size:255" json:"product_name"`
	UomCode       string          `gorm:"size:20" json:"uom_code"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"unit_price"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (item *SalesReturnItem) LineTotal() decimal.Decimal {
	return utils.Quantize2(item.Quantity.Mul(item.UnitPrice))
}

// SalesReturnRefund pays money back to the customer against a return.
type SalesReturnRefund struct {
	ID            int             `gorm:"primary_key" json:"id"`
	SalesReturnId int             `gorm:"index;not null" json:"sales_return_id" binding:"required"`
	PaymentId     int             `gorm:"index;not null" json:"payment_id" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount" binding:"required"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	SalesReturn *SalesReturn `json:"sales_return"`
	Payment     *Payment     `json:"payment"`
}

func (r *SalesReturn) countsTowardBalance() bool {
	return !r.IsDeleted && r.Status != OrderStatusCancelled
}

func (r *SalesReturn) itemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (r *SalesReturn) TaxAmount() decimal.Decimal {
	return utils.Quantize2(r.itemsTotal().Mul(r.TaxPercent).Div(decimal.NewFromInt(100)))
}

func (r *SalesReturn) DiscountAmount() decimal.Decimal {
	return utils.Quantize2(r.itemsTotal().Mul(r.DiscountPercent).Div(decimal.NewFromInt(100)))
}

func (r *SalesReturn) ComputeTotals() {
	r.TotalAmount = r.itemsTotal()
	r.NetTotal = r.TotalAmount.Add(r.TaxAmount()).Sub(r.DiscountAmount())
}
