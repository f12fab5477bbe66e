package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sellerdesk/orders-backoffice/config"
	"github.com/sellerdesk/orders-backoffice/reports"
	"github.com/sellerdesk/orders-backoffice/utils"
	"github.com/sirupsen/logrus"
)

type ExtractSummary struct {
	Entries int
	Found   int
	Missing int
	Errors  int
}

// ExtractSupplierOrders point-reads every order_item_id from a restore file
// and joins it with the stored supplier order reference and money fields,
// producing the rows for the enriched extraction CSV. Missing rows and read
// failures are logged and counted, never fatal.
func ExtractSupplierOrders(ctx context.Context, reader OrderReader, entries []reports.RestoreEntry, logger *logrus.Logger, runID string) ([]reports.SupplierOrderRow, ExtractSummary) {
	if logger == nil {
		logger = config.GetLogger()
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	log := logger.WithField("run_id", runID)

	summary := ExtractSummary{Entries: len(entries)}
	rows := make([]reports.SupplierOrderRow, 0, len(entries))

	for _, entry := range entries {
		if ctx.Err() != nil {
			return rows, summary
		}
		order, err := reader.GetByItemID(ctx, entry.OrderItemId)
		if err != nil {
			if errors.Is(err, utils.ErrOrderNotFound) {
				summary.Missing++
				log.WithField("order_item_id", entry.OrderItemId).Warn("supplier.extract.order_missing")
			} else {
				summary.Errors++
				log.WithField("order_item_id", entry.OrderItemId).WithError(err).Error("supplier.extract.fetch_failed")
			}
			continue
		}

		rows = append(rows, reports.SupplierOrderRow{
			OrderItemId:      order.OrderItemId,
			OrderId:          order.OrderId,
			SupplierOrderId:  order.SupplierOrderId,
			QuantitySold:     order.QuantitySold,
			OriginalPrice:    entry.OriginalPrice,
			SupplierPrice:    order.SupplierPrice,
			SupplierTax:      order.SupplierTax,
			AmazonPrice:      order.AmazonPrice,
			AmazonFee:        order.AmazonFee,
			SupplierShipping: order.SupplierShipping,
			CustomerShipping: order.CustomerShipping,
			Profit:           order.Profit,
			Margin:           order.Margin,
			Roi:              order.Roi,
		})
		summary.Found++
	}

	log.WithFields(logrus.Fields{
		"entries": summary.Entries,
		"found":   summary.Found,
		"missing": summary.Missing,
		"errors":  summary.Errors,
	}).Info("supplier.extract.done")

	return rows, summary
}
