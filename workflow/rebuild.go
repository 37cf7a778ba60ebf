package workflow

import (
	"context"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"bitbucket.org/barakasoft/wholesale_backend/models"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const rebuildChunkSize = 500

// Failed deltas are never replayed; these wholesale recomputations are
// the only repair path when a cached aggregate is suspected of drifting.

// SummaryDrift compares the maintained singleton against the recomputed
// truth, field by field. Zero differences mean no drift.
type SummaryDrift struct {
	ReceivablesDiff decimal.Decimal `json:"receivables_diff"`
	PayablesDiff    decimal.Decimal `json:"payables_diff"`
	CashDiff        decimal.Decimal `json:"cash_diff"`
	InventoryDiff   decimal.Decimal `json:"inventory_diff"`
}

func (d SummaryDrift) IsZero() bool {
	return d.ReceivablesDiff.IsZero() && d.PayablesDiff.IsZero() &&
		d.CashDiff.IsZero() && d.InventoryDiff.IsZero()
}

// CheckSummaryDrift recomputes the global position and reports how far
// the singleton has drifted from it. Read-only; repair is a separate,
// explicit call.
func CheckSummaryDrift(ctx context.Context) (*SummaryDrift, error) {
	stats, err := models.GetSummaryStats(ctx)
	if err != nil {
		return nil, err
	}
	fin, err := models.GetBusinessFinancials(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &SummaryDrift{
		ReceivablesDiff: stats.TotalReceivables.Sub(fin.TotalReceivables),
		PayablesDiff:    stats.TotalPayables.Sub(fin.TotalPayables),
		CashDiff:        stats.CashInHand.Sub(fin.CashInHand),
		InventoryDiff:   stats.TotalInventoryValuation.Sub(fin.InventoryValue),
	}, nil
}

// RecalculateSummaryStats overwrites the global singleton with freshly
// recomputed values. Absolute assignment, not deltas: this is the
// repair path, so it must converge no matter how far the cache drifted.
func RecalculateSummaryStats(ctx context.Context, logger *logrus.Logger) (*models.SummaryStats, error) {
	if logger == nil {
		logger = config.GetLogger()
	}

	fin, err := models.GetBusinessFinancials(ctx, 0)
	if err != nil {
		config.LogError(logger, "workflow", "RecalculateSummaryStats", "recompute global financials", nil, err)
		return nil, err
	}

	db := config.GetDB().WithContext(ctx)
	if _, err := models.GetSummaryStats(ctx); err != nil {
		return nil, err
	}
	err = db.Model(&models.SummaryStats{}).
		Where("id = ?", models.SummaryStatsID).
		UpdateColumns(map[string]interface{}{
			"total_receivables":         fin.TotalReceivables,
			"total_payables":            fin.TotalPayables,
			"cash_in_hand":              fin.CashInHand,
			"total_inventory_valuation": fin.InventoryValue,
		}).Error
	if err != nil {
		config.LogError(logger, "workflow", "RecalculateSummaryStats", "write singleton", fin, err)
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"total_receivables": fin.TotalReceivables,
		"total_payables":    fin.TotalPayables,
		"cash_in_hand":      fin.CashInHand,
		"inventory_value":   fin.InventoryValue,
	}).Info("summary stats recalculated")

	return models.GetSummaryStats(ctx)
}

// BackfillBusinessSummaries recomputes every active business's summary
// row from scratch, one business at a time under that business's lock.
func BackfillBusinessSummaries(ctx context.Context, logger *logrus.Logger) error {
	if logger == nil {
		logger = config.GetLogger()
	}

	businesses, err := models.GetActiveBusinesses(ctx)
	if err != nil {
		return err
	}

	for _, business := range businesses {
		lock, err := utils.BusinessLock(ctx, business.ID, "summary", "workflow", "BackfillBusinessSummaries")
		if err != nil {
			config.LogError(logger, "workflow", "BackfillBusinessSummaries", "acquire lock", business.ID, err)
			return err
		}

		summary, err := models.UpdateBusinessSummary(ctx, business.ID)
		if lock != nil {
			_ = lock.Release(ctx)
		}
		if err != nil {
			config.LogError(logger, "workflow", "BackfillBusinessSummaries", "update summary", business.ID, err)
			return err
		}

		logger.WithFields(logrus.Fields{
			"business_id":  business.ID,
			"cash_in_hand": summary.CashInHand,
			"receivables":  summary.TotalReceivables,
			"payables":     summary.TotalPayables,
		}).Info("business summary backfilled")
	}
	return nil
}

// RecalculatePartyBalances refreshes every party's cached balance from
// the grouped sums, chunked by id so the working set stays bounded.
// Returns how many parties were written.
func RecalculatePartyBalances(ctx context.Context, logger *logrus.Logger) (int, error) {
	if logger == nil {
		logger = config.GetLogger()
	}
	db := config.GetDB().WithContext(ctx)

	updated := 0
	lastId := 0
	for {
		var parties []*models.Party
		err := db.Where("is_deleted = 0 AND id > ?", lastId).
			Order("id").
			Limit(rebuildChunkSize).
			Find(&parties).Error
		if err != nil {
			return updated, err
		}
		if len(parties) == 0 {
			break
		}

		if err := models.GetPartyBalances(ctx, parties, models.BalanceOptions{}); err != nil {
			config.LogError(logger, "workflow", "RecalculatePartyBalances", "compute balances", lastId, err)
			return updated, err
		}

		now := time.Now().UTC()
		for _, party := range parties {
			err := db.Model(&models.Party{}).
				Where("id = ?", party.ID).
				UpdateColumns(map[string]interface{}{
					"cached_balance":            party.NetBalance,
					"cached_balance_updated_at": now,
				}).Error
			if err != nil {
				config.LogError(logger, "workflow", "RecalculatePartyBalances", "write cached balance", party.ID, err)
				return updated, err
			}
			updated++
		}
		lastId = parties[len(parties)-1].ID
	}

	logger.WithField("parties", updated).Info("party balances recalculated")
	return updated, nil
}

// RebuildAll is the full repair sweep: party caches, per-business
// summaries, then the global singleton, in one pass.
func RebuildAll(ctx context.Context, logger *logrus.Logger) error {
	if logger == nil {
		logger = config.GetLogger()
	}
	if _, err := RecalculatePartyBalances(ctx, logger); err != nil {
		return err
	}
	if err := BackfillBusinessSummaries(ctx, logger); err != nil {
		return err
	}
	if _, err := RecalculateSummaryStats(ctx, logger); err != nil {
		return err
	}
	return nil
}
