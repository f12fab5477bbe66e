package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sellerdesk/orders-backoffice/config"
	"github.com/sellerdesk/orders-backoffice/finance"
	"github.com/sellerdesk/orders-backoffice/models"
	"github.com/sellerdesk/orders-backoffice/reports"
	"github.com/sellerdesk/orders-backoffice/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OrderReader is the point-read half of the store.
type OrderReader interface {
	GetByItemID(ctx context.Context, orderItemId int64) (*models.Order, error)
}

// SupplierCostUpdater writes restored supplier costs for one line item.
type SupplierCostUpdater interface {
	UpdateSupplierCosts(ctx context.Context, orderItemId int64, price, tax decimal.NullDecimal) error
}

// RestoreStore is everything the restore procedure touches.
type RestoreStore interface {
	OrderReader
	SupplierCostUpdater
	FinancialsUpdater
}

type RestoreOptions struct {
	// Apply writes to the store; the default simulates and only logs what
	// would change.
	Apply bool
	// UpdateCalculations re-fetches each restored row and refreshes
	// profit/margin/roi from the restored supplier costs.
	UpdateCalculations bool
	Logger             *logrus.Logger
	RunID              string
}

type RestoreSummary struct {
	Entries      int
	Restored     int
	Recalculated int
	Skipped      int
	Errors       int
}

// RestoreSupplierValues writes the pre-corruption supplier_price/supplier_tax
// from a restore file back into the store, then optionally recomputes the
// derived fields. Any per-entry failure is logged and counted; the remaining
// entries are still processed.
func RestoreSupplierValues(ctx context.Context, store RestoreStore, entries []reports.RestoreEntry, opts RestoreOptions) (RestoreSummary, error) {
	if opts.Logger == nil {
		opts.Logger = config.GetLogger()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	logger := opts.Logger.WithFields(logrus.Fields{
		"run_id": opts.RunID,
		"apply":  opts.Apply,
	})

	summary := RestoreSummary{Entries: len(entries)}

	logger.WithFields(logrus.Fields{
		"entries":             len(entries),
		"update_calculations": opts.UpdateCalculations,
	}).Info("supplier.restore.start")

	valid := make([]reports.RestoreEntry, 0, len(entries))
	for _, entry := range entries {
		if err := utils.ValidateStruct(entry); err != nil {
			summary.Skipped++
			logger.WithFields(logrus.Fields{
				"order_item_id": entry.OrderItemId,
				"fields":        utils.ProcessValidationErrors(err),
			}).Warn("supplier.restore.invalid_entry")
			continue
		}
		valid = append(valid, entry)
	}

	for _, entry := range valid {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		entryLog := logger.WithFields(logrus.Fields{
			"order_item_id":  entry.OrderItemId,
			"supplier_price": reports.NullableMoneyString(entry.OriginalPrice),
			"supplier_tax":   reports.NullableMoneyString(entry.OriginalTax),
		})
		if !opts.Apply {
			entryLog.Info("supplier.restore.would_restore")
			summary.Restored++
			continue
		}
		if err := store.UpdateSupplierCosts(ctx, entry.OrderItemId, entry.OriginalPrice, entry.OriginalTax); err != nil {
			summary.Errors++
			entryLog.WithError(err).Error("supplier.restore.restore_failed")
			continue
		}
		entryLog.Info("supplier.restore.restored")
		summary.Restored++
	}

	if opts.UpdateCalculations {
		for _, entry := range valid {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			entryLog := logger.WithField("order_item_id", entry.OrderItemId)

			order, err := store.GetByItemID(ctx, entry.OrderItemId)
			if err != nil {
				if errors.Is(err, utils.ErrOrderNotFound) {
					summary.Skipped++
					entryLog.Warn("supplier.restore.order_missing")
				} else {
					summary.Errors++
					entryLog.WithError(err).Error("supplier.restore.fetch_failed")
				}
				continue
			}

			in := order.FinanceInputs()
			in.SupplierPrice = entry.OriginalPrice
			in.SupplierTax = entry.OriginalTax
			metrics := finance.SimpleProfit(in)

			calcLog := entryLog.WithFields(logrus.Fields{
				"profit": metrics.Profit.StringFixed(2),
				"margin": reports.NullableMoneyString(metrics.Margin),
				"roi":    reports.NullableMoneyString(metrics.Roi),
			})
			if !opts.Apply {
				calcLog.Info("supplier.restore.would_recalculate")
				summary.Recalculated++
				continue
			}
			if err := store.UpdateFinancials(ctx, entry.OrderItemId, metrics); err != nil {
				summary.Errors++
				calcLog.WithError(err).Error("supplier.restore.recalculate_failed")
				continue
			}
			calcLog.Info("supplier.restore.recalculated")
			summary.Recalculated++
		}
	}

	logger.WithFields(logrus.Fields{
		"restored":     summary.Restored,
		"recalculated": summary.Recalculated,
		"skipped":      summary.Skipped,
		"errors":       summary.Errors,
	}).Info("supplier.restore.done")

	return summary, nil
}
