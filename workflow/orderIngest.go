package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sellerdesk/orders-backoffice/config"
	"github.com/sellerdesk/orders-backoffice/finance"
	"github.com/sellerdesk/orders-backoffice/marketplace"
	"github.com/sellerdesk/orders-backoffice/models"
	"github.com/sellerdesk/orders-backoffice/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// MarketplaceAPI is the slice of the SP-API client the ingest loop needs.
type MarketplaceAPI interface {
	ListOrders(ctx context.Context, createdAfter time.Time, nextToken string) (*marketplace.OrdersPage, error)
	ListOrderItems(ctx context.Context, orderId string) ([]marketplace.OrderItem, error)
	FeesEstimate(ctx context.Context, asin string, price decimal.Decimal) (decimal.Decimal, error)
	ShippingCost(ctx context.Context, asin string) (decimal.Decimal, error)
}

// IngestStore is what the ingest loop needs from the order store.
type IngestStore interface {
	ExistsByOrderID(ctx context.Context, orderId string) (bool, error)
	Insert(ctx context.Context, order *models.Order) error
	StatusByOrderID(ctx context.Context, orderId string) (string, decimal.NullDecimal, error)
	UpdateStatus(ctx context.Context, orderId string, status string) error
	UpdateFees(ctx context.Context, orderId, asin string, fee, shipping decimal.NullDecimal) error
}

// allowedTransitions gates status updates for orders we already track. Only
// Pending may move, and only forward to Unshipped or Canceled; anything else
// is operator territory and stays untouched.
var allowedTransitions = map[string][]string{
	"Pending": {"Unshipped", "Canceled"},
}

type IngestOptions struct {
	// Days back from now for the CreatedAfter cutoff.
	Days   int
	Apply  bool
	Logger *logrus.Logger
	RunID  string
}

type IngestSummary struct {
	Fetched     int
	SkippedAFN  int
	Inserted    int
	StatusMoves int
	FeeUpdates  int
	Errors      int
}

// ProcessOrders pulls recent MFN orders from the marketplace and reconciles
// them against the store: unknown orders are inserted line item by line item
// with fee and shipping lookups, known orders get gated status moves and a
// fee backfill when the stored fee is still zero. Per-order failures are
// counted and skipped so one bad order never sinks the run.
func ProcessOrders(ctx context.Context, api MarketplaceAPI, store IngestStore, opts IngestOptions) (IngestSummary, error) {
	if opts.Days <= 0 {
		opts.Days = 2
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
		"days":   opts.Days,
	})

	var summary IngestSummary
	createdAfter := time.Now().AddDate(0, 0, -opts.Days)
	logger.WithField("created_after", createdAfter.UTC().Format(time.RFC3339)).Info("ingest.start")

	nextToken := ""
	for {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		page, err := api.ListOrders(ctx, createdAfter, nextToken)
		if err != nil {
			return summary, err
		}

		for i := range page.Orders {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			order := page.Orders[i]
			summary.Fetched++

			if order.FulfillmentChannel != "MFN" {
				summary.SkippedAFN++
				continue
			}
			if err := processOne(ctx, api, store, order, opts.Apply, logger, &summary); err != nil {
				summary.Errors++
				logger.WithField("order_id", order.AmazonOrderId).WithError(err).Error("ingest.order_failed")
			}
		}

		if page.NextToken == "" {
			break
		}
		nextToken = page.NextToken
	}

	logger.WithFields(logrus.Fields{
		"fetched":      summary.Fetched,
		"skipped_afn":  summary.SkippedAFN,
		"inserted":     summary.Inserted,
		"status_moves": summary.StatusMoves,
		"fee_updates":  summary.FeeUpdates,
		"errors":       summary.Errors,
	}).Info("ingest.done")

	return summary, nil
}

func processOne(ctx context.Context, api MarketplaceAPI, store IngestStore, order marketplace.Order, apply bool, logger *logrus.Entry, summary *IngestSummary) error {
	exists, err := store.ExistsByOrderID(ctx, order.AmazonOrderId)
	if err != nil {
		return err
	}
	if !exists {
		return insertOrder(ctx, api, store, order, apply, logger, summary)
	}
	return updateOrder(ctx, api, store, order, apply, logger, summary)
}

func insertOrder(ctx context.Context, api MarketplaceAPI, store IngestStore, order marketplace.Order, apply bool, logger *logrus.Entry, summary *IngestSummary) error {
	items, err := api.ListOrderItems(ctx, order.AmazonOrderId)
	if err != nil {
		return err
	}

	purchaseDate := parseMarketplaceTime(order.PurchaseDate)
	latestShipDate := parseMarketplaceTime(order.LatestShipDate)

	for _, item := range items {
		price := finance.ToDecimal(item.ItemPrice.Amount, finance.Zero)

		fee, err := api.FeesEstimate(ctx, item.ASIN, price)
		if err != nil {
			logger.WithField("asin", item.ASIN).WithError(err).Warn("ingest.fee_lookup_failed")
			fee = decimal.Zero
		}
		shipping, err := api.ShippingCost(ctx, item.ASIN)
		if err != nil {
			logger.WithField("asin", item.ASIN).WithError(err).Warn("ingest.shipping_lookup_failed")
			shipping = decimal.Zero
		}

		row := models.Order{
			OrderId:            order.AmazonOrderId,
			OrderStatus:        order.OrderStatus,
			FulfillmentChannel: order.FulfillmentChannel,
			PurchaseDate:       purchaseDate,
			LatestShipDate:     latestShipDate,
			Title:              item.Title,
			Sku:                item.SellerSKU,
			Asin:               item.ASIN,
			AmazonPrice:        decimal.NewNullDecimal(price),
			AmazonFee:          decimal.NewNullDecimal(fee),
			CustomerShipping:   decimal.NewNullDecimal(shipping),
			QuantitySold:       item.QuantityOrdered,
		}

		itemLog := logger.WithFields(logrus.Fields{
			"order_id": order.AmazonOrderId,
			"asin":     item.ASIN,
			"status":   order.OrderStatus,
		})
		if !apply {
			itemLog.Info("ingest.would_insert")
			summary.Inserted++
			continue
		}
		if err := store.Insert(ctx, &row); err != nil {
			return err
		}
		summary.Inserted++
		itemLog.Info("ingest.inserted")
	}
	return nil
}

func updateOrder(ctx context.Context, api MarketplaceAPI, store IngestStore, order marketplace.Order, apply bool, logger *logrus.Entry, summary *IngestSummary) error {
	stored, storedFee, err := store.StatusByOrderID(ctx, order.AmazonOrderId)
	if err != nil {
		// The order exists by id but the point read raced a delete; treat
		// as gone and let the next run reinsert it.
		if errors.Is(err, utils.ErrOrderNotFound) {
			return nil
		}
		return err
	}

	orderLog := logger.WithFields(logrus.Fields{
		"order_id":    order.AmazonOrderId,
		"stored":      stored,
		"marketplace": order.OrderStatus,
	})

	if stored != order.OrderStatus && transitionAllowed(stored, order.OrderStatus) {
		if apply {
			if err := store.UpdateStatus(ctx, order.AmazonOrderId, order.OrderStatus); err != nil {
				return err
			}
			orderLog.Info("ingest.status_updated")
		} else {
			orderLog.Info("ingest.would_update_status")
		}
		summary.StatusMoves++
	}

	// Fee backfill: pending orders get no fee estimate from the marketplace,
	// so once the order leaves Pending and the stored fee is still zero we
	// fetch the real numbers.
	if order.OrderStatus == "Pending" || !finance.ToMoney(storedFee).IsZero() {
		return nil
	}

	items, err := api.ListOrderItems(ctx, order.AmazonOrderId)
	if err != nil {
		return err
	}
	for _, item := range items {
		price := finance.ToDecimal(item.ItemPrice.Amount, finance.Zero)
		fee, err := api.FeesEstimate(ctx, item.ASIN, price)
		if err != nil {
			orderLog.WithField("asin", item.ASIN).WithError(err).Warn("ingest.fee_lookup_failed")
			continue
		}
		shipping, err := api.ShippingCost(ctx, item.ASIN)
		if err != nil {
			orderLog.WithField("asin", item.ASIN).WithError(err).Warn("ingest.shipping_lookup_failed")
			shipping = decimal.Zero
		}
		if !apply {
			orderLog.WithField("asin", item.ASIN).Info("ingest.would_update_fees")
			summary.FeeUpdates++
			continue
		}
		if err := store.UpdateFees(ctx, order.AmazonOrderId, item.ASIN,
			decimal.NewNullDecimal(fee), decimal.NewNullDecimal(shipping)); err != nil {
			return err
		}
		summary.FeeUpdates++
		orderLog.WithField("asin", item.ASIN).Info("ingest.fees_updated")
	}
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func parseMarketplaceTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
