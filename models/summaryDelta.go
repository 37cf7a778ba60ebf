package models

import (
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SummaryDelta is one typed balance-impact event. Every mutation hook
// emits exactly one (new minus old); subscribers decide how it is
// stored. All amounts are debit-positive signed values.
type SummaryDelta struct {
	BusinessId      int             `json:"business_id"`
	ReceivableDelta decimal.Decimal `json:"receivable_delta"`
	PayableDelta    decimal.Decimal `json:"payable_delta"`
	CashDelta       decimal.Decimal `json:"cash_delta"`
	InventoryDelta  decimal.Decimal `json:"inventory_delta"`
}

func (d SummaryDelta) IsZero() bool {
	return d.ReceivableDelta.IsZero() &&
		d.PayableDelta.IsZero() &&
		d.CashDelta.IsZero() &&
		d.InventoryDelta.IsZero()
}

// Add folds two deltas into one.
func (d SummaryDelta) Add(other SummaryDelta) SummaryDelta {
	return SummaryDelta{
		BusinessId:      d.BusinessId,
		ReceivableDelta: d.ReceivableDelta.Add(other.ReceivableDelta),
		PayableDelta:    d.PayableDelta.Add(other.PayableDelta),
		CashDelta:       d.CashDelta.Add(other.CashDelta),
		InventoryDelta:  d.InventoryDelta.Add(other.InventoryDelta),
	}
}

// Sub returns new-minus-old, the signed change a mutation applies.
func (d SummaryDelta) Sub(other SummaryDelta) SummaryDelta {
	return SummaryDelta{
		BusinessId:      d.BusinessId,
		ReceivableDelta: d.ReceivableDelta.Sub(other.ReceivableDelta),
		PayableDelta:    d.PayableDelta.Sub(other.PayableDelta),
		CashDelta:       d.CashDelta.Sub(other.CashDelta),
		InventoryDelta:  d.InventoryDelta.Sub(other.InventoryDelta),
	}
}

func (d SummaryDelta) Neg() SummaryDelta {
	return SummaryDelta{
		BusinessId:      d.BusinessId,
		ReceivableDelta: d.ReceivableDelta.Neg(),
		PayableDelta:    d.PayableDelta.Neg(),
		CashDelta:       d.CashDelta.Neg(),
		InventoryDelta:  d.InventoryDelta.Neg(),
	}
}

// SummaryDeltaHandler runs inside the mutating transaction; returning
// an error rolls the whole write back.
type SummaryDeltaHandler func(tx *gorm.DB, delta SummaryDelta) error

var (
	summaryDeltaMu       sync.RWMutex
	summaryDeltaHandlers = []SummaryDeltaHandler{applySummaryStatsDelta}
)

// SubscribeSummaryDeltas registers an additional handler for every
// published delta.
func SubscribeSummaryDeltas(handler SummaryDeltaHandler) {
	summaryDeltaMu.Lock()
	defer summaryDeltaMu.Unlock()
	summaryDeltaHandlers = append(summaryDeltaHandlers, handler)
}

func publishSummaryDelta(tx *gorm.DB, delta SummaryDelta) error {
	if delta.IsZero() {
		return nil
	}
	summaryDeltaMu.RLock()
	handlers := make([]SummaryDeltaHandler, len(summaryDeltaHandlers))
	copy(handlers, summaryDeltaHandlers)
	summaryDeltaMu.RUnlock()

	for _, handler := range handlers {
		if err := handler(tx, delta); err != nil {
			return err
		}
	}
	return nil
}
