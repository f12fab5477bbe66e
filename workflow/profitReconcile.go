package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerdesk/orders-backoffice/config"
	"github.com/sellerdesk/orders-backoffice/finance"
	"github.com/sellerdesk/orders-backoffice/models"
	"github.com/sellerdesk/orders-backoffice/reports"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultPageSize is how many orders one scan page fetches.
const DefaultPageSize = 1000

// DefaultTolerance is the divergence noise filter: stored and calculated
// profit must differ by strictly more than one cent before a record is
// reported. Exact one-cent differences are ignored on purpose.
var DefaultTolerance = decimal.NewFromFloat(0.01)

// OrderPager fetches one ordered page of the orders table.
type OrderPager interface {
	FetchPage(ctx context.Context, offset, limit int) ([]models.Order, error)
}

// FinancialsUpdater writes back the three derived columns for one line item.
type FinancialsUpdater interface {
	UpdateFinancials(ctx context.Context, orderItemId int64, m finance.Metrics) error
}

// DiffSink receives one row per divergent order.
type DiffSink interface {
	Append(r reports.DiffRecord) error
}

type ReconcileOptions struct {
	PageSize  int
	Tolerance decimal.Decimal
	// Apply writes corrected values back to the store. Default is dry-run:
	// the audit file is produced either way.
	Apply bool
	// Continue is called after every full page; returning false stops the
	// scan cleanly. Nil means run unattended.
	Continue func(s ReconcileSummary) bool
	Logger   *logrus.Logger
	RunID    string
}

type ReconcileSummary struct {
	Pages        int
	Scanned      int
	Divergent    int
	Updated      int
	UpdateErrors int
	CalcErrors   int
}

// ReconcileProfits pages through the order store, recomputes profit, margin
// and ROI for every record, and appends one audit row per divergence. In
// apply mode it also writes the corrected values back; a failed write is
// logged and counted but never aborts the scan.
//
// Cancellation (SIGINT routed through ctx) returns the partial summary with
// ctx.Err(); every row appended so far has already been flushed by the sink.
func ReconcileProfits(ctx context.Context, pager OrderPager, updater FinancialsUpdater, sink DiffSink, opts ReconcileOptions) (ReconcileSummary, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Tolerance.IsZero() {
		opts.Tolerance = DefaultTolerance
	}
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

	var summary ReconcileSummary
	offset := 0

	logger.WithField("page_size", opts.PageSize).Info("profit.reconcile.start")

	for {
		select {
		case <-ctx.Done():
			logger.WithField("scanned", summary.Scanned).Warn("profit.reconcile.interrupted")
			return summary, ctx.Err()
		default:
		}

		page, err := pager.FetchPage(ctx, offset, opts.PageSize)
		if err != nil {
			return summary, err
		}

		for i := range page {
			if ctx.Err() != nil {
				logger.WithField("scanned", summary.Scanned).Warn("profit.reconcile.interrupted")
				return summary, ctx.Err()
			}
			order := page[i]
			summary.Scanned++

			existing := finance.RoundMoney(finance.ToMoney(order.Profit))
			calc, err := finance.Calculate(order.FinanceInputs())
			if err != nil {
				summary.CalcErrors++
				logger.WithFields(logrus.Fields{
					"order_item_id": order.OrderItemId,
					"order_status":  order.OrderStatus,
				}).WithError(err).Error("profit.reconcile.calc_failed")
				continue
			}

			difference := finance.RoundMoney(calc.Profit.Sub(existing))
			if difference.Abs().Cmp(opts.Tolerance) <= 0 {
				continue
			}
			summary.Divergent++

			rec := reports.DiffRecord{
				OrderId:          order.OrderId,
				OrderItemId:      order.OrderItemId,
				ExistingProfit:   existing,
				CalculatedProfit: calc.Profit,
				Difference:       difference,
				ExistingMargin:   order.Margin,
				CalculatedMargin: calc.Margin,
				ExistingRoi:      order.Roi,
				CalculatedRoi:    calc.Roi,
			}
			// A divergence that cannot be recorded must stop the run: the
			// audit file is the whole point of the scan.
			if err := sink.Append(rec); err != nil {
				return summary, err
			}

			if opts.Apply {
				if err := updater.UpdateFinancials(ctx, order.OrderItemId, calc); err != nil {
					summary.UpdateErrors++
					logger.WithFields(logrus.Fields{
						"order_item_id": order.OrderItemId,
					}).WithError(err).Error("profit.reconcile.update_failed")
				} else {
					summary.Updated++
				}
			}
		}

		summary.Pages++
		logger.WithFields(logrus.Fields{
			"pages":         summary.Pages,
			"scanned":       summary.Scanned,
			"divergent":     summary.Divergent,
			"updated":       summary.Updated,
			"update_errors": summary.UpdateErrors,
		}).Info("profit.reconcile.page_done")

		// A short page means the table is exhausted; no further fetch.
		if len(page) < opts.PageSize {
			break
		}
		offset += opts.PageSize

		if opts.Continue != nil && !opts.Continue(summary) {
			logger.WithField("scanned", summary.Scanned).Info("profit.reconcile.stopped_by_operator")
			break
		}
	}

	logger.WithFields(logrus.Fields{
		"scanned":       summary.Scanned,
		"divergent":     summary.Divergent,
		"updated":       summary.Updated,
		"update_errors": summary.UpdateErrors,
		"calc_errors":   summary.CalcErrors,
	}).Info("profit.reconcile.done")

	return summary, nil
}
