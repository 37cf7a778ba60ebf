package models

import (
	"context"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BalanceOptions scopes a balance computation. BusinessId 0 means all
// businesses. The exclude lists drop in-flight documents being edited
// so a form can show the balance "as if" the open document were absent.
// DateTo caps every source at a calendar date (inclusive).
type BalanceOptions struct {
	BusinessId              int
	ExcludeSalesOrderIds    []int
	ExcludePurchaseOrderIds []int
	DateTo                  *time.Time
}

const balanceChunkSize = 500

// GetPartyBalances annotates each party's NetBalance with one grouped
// sum per source table; no ledger rows are materialized. The sign rules
// and exclusion rules here must match the ledger feeds exactly: for any
// (party, business scope) the result equals the unbounded ledger's
// final balance.
func GetPartyBalances(ctx context.Context, parties []*Party, opts BalanceOptions) error {
	return getPartyBalances(config.GetDB().WithContext(ctx), parties, opts)
}

func getPartyBalances(tx *gorm.DB, parties []*Party, opts BalanceOptions) error {
	if len(parties) == 0 {
		return nil
	}

	partyIds := make([]int, 0, len(parties))
	for _, party := range parties {
		partyIds = append(partyIds, party.ID)
	}

	net := make(map[int]decimal.Decimal, len(parties))
	addSums := func(sums map[int]decimal.Decimal, sign int) {
		for partyId, total := range sums {
			if sign < 0 {
				total = total.Neg()
			}
			net[partyId] = net[partyId].Add(total)
		}
	}

	// Debit contributors.
	sums, err := sumSalesOrders(tx, partyIds, opts)
	if err != nil {
		return err
	}
	addSums(sums, +1)

	sums, err = sumSalesInvoices(tx, partyIds, opts)
	if err != nil {
		return err
	}
	addSums(sums, +1)

	sums, err = sumPurchaseReturns(tx, partyIds, opts)
	if err != nil {
		return err
	}
	addSums(sums, +1)

	sums, err = sumPayments(tx, partyIds, opts, PaymentDirectionOut)
	if err != nil {
		return err
	}
	addSums(sums, +1)

	sums, err = sumChequePayments(tx, partyIds, opts)
	if err != nil {
		return err
	}
	addSums(sums, +1)

	// Credit contributors.
	sums, err = sumPurchaseOrders(tx, partyIds, opts)
	if err != nil {
		return err
	}
	addSums(sums, -1)

	sums, err = sumSalesReturns(tx, partyIds, opts)
	if err != nil {
		return err
	}
	addSums(sums, -1)

	sums, err = sumPayments(tx, partyIds, opts, PaymentDirectionIn)
	if err != nil {
		return err
	}
	addSums(sums, -1)

	// Opening balances, counted once per the resolution rule.
	var activeBusinesses []*Business
	if opts.BusinessId != 0 {
		activeBusinesses, err = GetActiveBusinesses(tx.Statement.Context)
		if err != nil {
			return err
		}
	}
	for _, party := range parties {
		if OpeningAppliesTo(party, opts.BusinessId, activeBusinesses) {
			net[party.ID] = net[party.ID].Add(OpeningSigned(party))
		}
	}

	for _, party := range parties {
		party.NetBalance = net[party.ID]
	}
	return nil
}

type partySum struct {
	PartyId int
	Total   decimal.Decimal
}

func groupedSums(q *gorm.DB) (map[int]decimal.Decimal, error) {
	var rows []partySum
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	sums := make(map[int]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.PartyId] = row.Total
	}
	return sums, nil
}

// dateCap turns an inclusive calendar-date cap into an exclusive
// timestamp bound.
func dateCap(dateTo time.Time) time.Time {
	return dateTo.AddDate(0, 0, 1)
}

func sumSalesOrders(tx *gorm.DB, partyIds []int, opts BalanceOptions) (map[int]decimal.Decimal, error) {
	q := tx.Model(&SalesOrder{}).
		Select("customer_id AS party_id, COALESCE(SUM(net_total), 0) AS total").
		Where("customer_id IN ?", partyIds).
		Where("is_deleted = 0 AND status <> ?", OrderStatusCancelled).
		Group("customer_id")
	if opts.BusinessId != 0 {
		q = q.Where("business_id = ?", opts.BusinessId)
	}
	if len(opts.ExcludeSalesOrderIds) > 0 {
		q = q.Where("id NOT IN ?", opts.ExcludeSalesOrderIds)
	}
	if opts.DateTo != nil {
		q = q.Where("created_at < ?", dateCap(*opts.DateTo))
	}
	return groupedSums(q)
}

func sumSalesInvoices(tx *gorm.DB, partyIds []int, opts BalanceOptions) (map[int]decimal.Decimal, error) {
	q := tx.Model(&SalesInvoice{}).
		Select("customer_id AS party_id, COALESCE(SUM(net_total), 0) AS total").
		Where("customer_id IN ?", partyIds).
		Where("is_deleted = 0").
		Group("customer_id")
	if opts.BusinessId != 0 {
		q = q.Where("business_id = ?", opts.BusinessId)
	}
	if opts.DateTo != nil {
		q = q.Where("created_at < ?", dateCap(*opts.DateTo))
	}
	return groupedSums(q)
}

func sumSalesReturns(tx *gorm.DB, partyIds []int, opts BalanceOptions) (map[int]decimal.Decimal, error) {
	q := tx.Model(&SalesReturn{}).
		Select("customer_id AS party_id, COALESCE(SUM(net_total), 0) AS total").
		Where("customer_id IN ?", partyIds).
		Where("is_deleted = 0 AND status <> ?", OrderStatusCancelled).
		Group("customer_id")
	if opts.BusinessId != 0 {
		q = q.Where("business_id = ?", opts.BusinessId)
	}
	if opts.DateTo != nil {
		q = q.Where("created_at < ?", dateCap(*opts.DateTo))
	}
	return groupedSums(q)
}

func sumPurchaseOrders(tx *gorm.DB, partyIds []int, opts BalanceOptions) (map[int]decimal.Decimal, error) {
	q := tx.Model(&PurchaseOrder{}).
		Select("supplier_id AS party_id, COALESCE(SUM(net_total), 0) AS total").
		Where("supplier_id IN ?", partyIds).
		Where("is_deleted = 0 AND status <> ?", OrderStatusCancelled).
		Group("supplier_id")
	if opts.BusinessId != 0 {
		q = q.Where("business_id = ?", opts.BusinessId)
	}
	if len(opts.ExcludePurchaseOrderIds) > 0 {
		q = q.Where("id NOT IN ?", opts.ExcludePurchaseOrderIds)
	}
	if opts.DateTo != nil {
		q = q.Where("created_at < ?", dateCap(*opts.DateTo))
	}
	return groupedSums(q)
}

func sumPurchaseReturns(tx *gorm.DB, partyIds []int, opts BalanceOptions) (map[int]decimal.Decimal, error) {
	q := tx.Model(&PurchaseReturn{}).
		Select("supplier_id AS party_id, COALESCE(SUM(net_total), 0) AS total").
		Where("supplier_id IN ?", partyIds).
		Where("is_deleted = 0 AND status <> ?", OrderStatusCancelled).
		Group("supplier_id")
	if opts.BusinessId != 0 {
		q = q.Where("business_id = ?", opts.BusinessId)
	}
	if opts.DateTo != nil {
		q = q.Where("created_at < ?", dateCap(*opts.DateTo))
	}
	return groupedSums(q)
}

func sumPayments(tx *gorm.DB, partyIds []int, opts BalanceOptions, direction PaymentDirection) (map[int]decimal.Decimal, error) {
	q := tx.Model(&Payment{}).
		Select("party_id, COALESCE(SUM(amount), 0) AS total").
		Where("party_id IN ?", partyIds).
		Where("direction = ? AND is_deleted = 0 AND cheque_status <> ?", direction, ChequeStatusPending).
		Group("party_id")
	if opts.BusinessId != 0 {
		q = q.Where("business_id = ?", opts.BusinessId)
	}
	if opts.DateTo != nil {
		q = q.Where("created_at < ?", dateCap(*opts.DateTo))
	}
	return groupedSums(q)
}

func sumChequePayments(tx *gorm.DB, partyIds []int, opts BalanceOptions) (map[int]decimal.Decimal, error) {
	q := tx.Model(&BankMovement{}).
		Select("party_id, COALESCE(SUM(amount), 0) AS total").
		Where("party_id IN ?", partyIds).
		Where("movement_type = ? AND is_deleted = 0", BankMovementTypeChequePayment).
		Group("party_id")
	if opts.BusinessId != 0 {
		q = q.Where("business_id = ?", opts.BusinessId)
	}
	if opts.DateTo != nil {
		q = q.Where("movement_date < ?", dateCap(*opts.DateTo))
	}
	return groupedSums(q)
}

// GetGlobalReceivablesPayables folds party net balances into the two
// global KPI totals: receivables from positive balances, payables from
// the absolute value of negative ones. This is the sole source of truth
// for those totals; caches are repaired against it.
func GetGlobalReceivablesPayables(ctx context.Context, businessId int) (decimal.Decimal, decimal.Decimal, error) {
	return getGlobalReceivablesPayables(config.GetDB().WithContext(ctx), businessId)
}

func getGlobalReceivablesPayables(tx *gorm.DB, businessId int) (decimal.Decimal, decimal.Decimal, error) {
	receivables := decimal.Zero
	payables := decimal.Zero

	lastId := 0
	for {
		var parties []*Party
		err := tx.Where("is_deleted = 0 AND id > ?", lastId).
			Order("id").
			Limit(balanceChunkSize).
			Find(&parties).Error
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if len(parties) == 0 {
			break
		}

		if err := getPartyBalances(tx, parties, BalanceOptions{BusinessId: businessId}); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		for _, party := range parties {
			if party.NetBalance.IsPositive() {
				receivables = receivables.Add(party.NetBalance)
			} else if party.NetBalance.IsNegative() {
				payables = payables.Add(party.NetBalance.Abs())
			}
		}
		lastId = parties[len(parties)-1].ID
	}
	return receivables, payables, nil
}
