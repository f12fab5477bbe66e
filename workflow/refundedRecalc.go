package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerdesk/orders-backoffice/config"
	"github.com/sellerdesk/orders-backoffice/finance"
	"github.com/sellerdesk/orders-backoffice/models"
	"github.com/sellerdesk/orders-backoffice/reports"
	"github.com/sirupsen/logrus"
)

// StatusFetcher lists every order currently in one status.
type StatusFetcher interface {
	FetchByStatus(ctx context.Context, status string) ([]models.Order, error)
}

type RefundedRecalcOptions struct {
	Apply  bool
	Logger *logrus.Logger
	RunID  string
}

type RefundedRecalcSummary struct {
	Fetched int
	Updated int
	Errors  int
}

// RecalculateRefunded reapplies the refund penalty formula to every refunded
// order. It exists because refunds historically carried stale derived values
// computed under the regular formula.
func RecalculateRefunded(ctx context.Context, fetcher StatusFetcher, updater FinancialsUpdater, opts RefundedRecalcOptions) (RefundedRecalcSummary, error) {
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

	var summary RefundedRecalcSummary

	orders, err := fetcher.FetchByStatus(ctx, "Refunded")
	if err != nil {
		return summary, err
	}
	summary.Fetched = len(orders)
	logger.WithField("orders", len(orders)).Info("refunded.recalc.start")

	for i := range orders {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		order := orders[i]

		metrics, err := finance.Calculate(order.FinanceInputs())
		if err != nil {
			summary.Errors++
			logger.WithField("order_item_id", order.OrderItemId).WithError(err).Error("refunded.recalc.calc_failed")
			continue
		}

		orderLog := logger.WithFields(logrus.Fields{
			"order_item_id": order.OrderItemId,
			"profit":        metrics.Profit.StringFixed(2),
			"margin":        reports.NullableMoneyString(metrics.Margin),
			"roi":           reports.NullableMoneyString(metrics.Roi),
		})
		if !opts.Apply {
			orderLog.Info("refunded.recalc.would_update")
			continue
		}
		if err := updater.UpdateFinancials(ctx, order.OrderItemId, metrics); err != nil {
			summary.Errors++
			orderLog.WithError(err).Error("refunded.recalc.update_failed")
			continue
		}
		summary.Updated++
		orderLog.Info("refunded.recalc.updated")
	}

	logger.WithFields(logrus.Fields{
		"fetched": summary.Fetched,
		"updated": summary.Updated,
		"errors":  summary.Errors,
	}).Info("refunded.recalc.done")

	return summary, nil
}
