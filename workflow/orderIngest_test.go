package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/sellerdesk/orders-backoffice/marketplace"
	"github.com/sellerdesk/orders-backoffice/models"
	"github.com/shopspring/decimal"
)

type fakeAPI struct {
	pages     []*marketplace.OrdersPage
	pageCalls int
	items     map[string][]marketplace.OrderItem
	fee       decimal.Decimal
	shipping  decimal.Decimal
}

func (f *fakeAPI) ListOrders(ctx context.Context, createdAfter time.Time, nextToken string) (*marketplace.OrdersPage, error) {
	page := f.pages[f.pageCalls]
	f.pageCalls++
	return page, nil
}

func (f *fakeAPI) ListOrderItems(ctx context.Context, orderId string) ([]marketplace.OrderItem, error) {
	return f.items[orderId], nil
}

func (f *fakeAPI) FeesEstimate(ctx context.Context, asin string, price decimal.Decimal) (decimal.Decimal, error) {
	return f.fee, nil
}

func (f *fakeAPI) ShippingCost(ctx context.Context, asin string) (decimal.Decimal, error) {
	return f.shipping, nil
}

type fakeIngestStore struct {
	status   map[string]string // order_id -> stored status
	fees     map[string]decimal.NullDecimal
	inserted []models.Order
	moves    map[string]string
	feeCalls []string // "orderId/asin"
}

func newFakeIngestStore() *fakeIngestStore {
	return &fakeIngestStore{
		status: map[string]string{},
		fees:   map[string]decimal.NullDecimal{},
		moves:  map[string]string{},
	}
}

func (f *fakeIngestStore) ExistsByOrderID(ctx context.Context, orderId string) (bool, error) {
	_, ok := f.status[orderId]
	return ok, nil
}

func (f *fakeIngestStore) Insert(ctx context.Context, order *models.Order) error {
	f.inserted = append(f.inserted, *order)
	return nil
}

func (f *fakeIngestStore) StatusByOrderID(ctx context.Context, orderId string) (string, decimal.NullDecimal, error) {
	return f.status[orderId], f.fees[orderId], nil
}

func (f *fakeIngestStore) UpdateStatus(ctx context.Context, orderId, status string) error {
	f.moves[orderId] = status
	return nil
}

func (f *fakeIngestStore) UpdateFees(ctx context.Context, orderId, asin string, fee, shipping decimal.NullDecimal) error {
	f.feeCalls = append(f.feeCalls, orderId+"/"+asin)
	return nil
}

func singlePage(orders ...marketplace.Order) []*marketplace.OrdersPage {
	return []*marketplace.OrdersPage{{Orders: orders}}
}

func mfnOrder(id, status string) marketplace.Order {
	return marketplace.Order{
		AmazonOrderId:      id,
		OrderStatus:        status,
		FulfillmentChannel: "MFN",
		PurchaseDate:       "2026-08-30T10:00:00Z",
	}
}

func item(asin, price string) marketplace.OrderItem {
	it := marketplace.OrderItem{ASIN: asin, SellerSKU: "SKU-" + asin, Title: "Item " + asin, QuantityOrdered: 1}
	it.ItemPrice.Amount = price
	it.ItemPrice.CurrencyCode = "USD"
	return it
}

func TestProcessOrders_SkipsFulfilledByAmazon(t *testing.T) {
	afn := mfnOrder("111-1", "Shipped")
	afn.FulfillmentChannel = "AFN"
	api := &fakeAPI{pages: singlePage(afn)}
	store := newFakeIngestStore()

	summary, err := ProcessOrders(context.Background(), api, store, IngestOptions{
		Apply:  true,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.SkippedAFN != 1 || summary.Inserted != 0 {
		t.Fatalf("expected skipped_afn=1 inserted=0, got %+v", summary)
	}
}

func TestProcessOrders_InsertsUnknownOrder(t *testing.T) {
	api := &fakeAPI{
		pages:    singlePage(mfnOrder("111-2", "Unshipped")),
		items:    map[string][]marketplace.OrderItem{"111-2": {item("B0A", "25.00"), item("B0B", "10.00")}},
		fee:      decimal.RequireFromString("3.75"),
		shipping: decimal.RequireFromString("4.50"),
	}
	store := newFakeIngestStore()

	summary, err := ProcessOrders(context.Background(), api, store, IngestOptions{
		Apply:  true,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Inserted != 2 {
		t.Fatalf("expected inserted=2, got %+v", summary)
	}
	if len(store.inserted) != 2 {
		t.Fatalf("expected 2 rows inserted, got %d", len(store.inserted))
	}
	row := store.inserted[0]
	if row.OrderId != "111-2" || row.Asin != "B0A" {
		t.Fatalf("unexpected first row: %+v", row)
	}
	if !row.AmazonPrice.Valid || row.AmazonPrice.Decimal.StringFixed(2) != "25.00" {
		t.Fatalf("amazon_price expected 25.00, got %+v", row.AmazonPrice)
	}
	if !row.AmazonFee.Valid || row.AmazonFee.Decimal.StringFixed(2) != "3.75" {
		t.Fatalf("amazon_fee expected 3.75, got %+v", row.AmazonFee)
	}
	if row.PurchaseDate == nil {
		t.Fatalf("purchase_date should be parsed")
	}
}

func TestProcessOrders_DryRunNeverWrites(t *testing.T) {
	api := &fakeAPI{
		pages: singlePage(mfnOrder("111-3", "Unshipped")),
		items: map[string][]marketplace.OrderItem{"111-3": {item("B0A", "25.00")}},
	}
	store := newFakeIngestStore()

	summary, err := ProcessOrders(context.Background(), api, store, IngestOptions{
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Inserted != 1 {
		t.Fatalf("dry run should still count would-be inserts, got %+v", summary)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("dry run must not insert, got %d rows", len(store.inserted))
	}
}

func TestProcessOrders_StatusTransitionGate(t *testing.T) {
	cases := []struct {
		name    string
		stored  string
		remote  string
		allowed bool
	}{
		{"pending to unshipped", "Pending", "Unshipped", true},
		{"pending to canceled", "Pending", "Canceled", true},
		{"pending to shipped", "Pending", "Shipped", false},
		{"shipped to canceled", "Shipped", "Canceled", false},
		{"unshipped to pending", "Unshipped", "Pending", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{pages: singlePage(mfnOrder("111-4", tc.remote))}
			store := newFakeIngestStore()
			store.status["111-4"] = tc.stored
			store.fees["111-4"] = money(t, "3.00") // non-zero: no fee backfill

			summary, err := ProcessOrders(context.Background(), api, store, IngestOptions{
				Apply:  true,
				Logger: testLogger(),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.allowed {
				if store.moves["111-4"] != tc.remote || summary.StatusMoves != 1 {
					t.Fatalf("expected move to %s, got moves=%v summary=%+v", tc.remote, store.moves, summary)
				}
			} else {
				if len(store.moves) != 0 || summary.StatusMoves != 0 {
					t.Fatalf("expected no move, got moves=%v summary=%+v", store.moves, summary)
				}
			}
		})
	}
}

func TestProcessOrders_FeeBackfillWhenStoredFeeZero(t *testing.T) {
	api := &fakeAPI{
		pages: singlePage(mfnOrder("111-5", "Shipped")),
		items: map[string][]marketplace.OrderItem{"111-5": {item("B0C", "30.00")}},
		fee:   decimal.RequireFromString("4.20"),
	}
	store := newFakeIngestStore()
	store.status["111-5"] = "Shipped"
	store.fees["111-5"] = money(t, "0.00")

	summary, err := ProcessOrders(context.Background(), api, store, IngestOptions{
		Apply:  true,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.FeeUpdates != 1 {
		t.Fatalf("expected fee_updates=1, got %+v", summary)
	}
	if len(store.feeCalls) != 1 || store.feeCalls[0] != "111-5/B0C" {
		t.Fatalf("unexpected fee calls: %v", store.feeCalls)
	}
}

func TestProcessOrders_NoBackfillWhilePending(t *testing.T) {
	api := &fakeAPI{pages: singlePage(mfnOrder("111-6", "Pending"))}
	store := newFakeIngestStore()
	store.status["111-6"] = "Pending"
	store.fees["111-6"] = money(t, "0.00")

	summary, err := ProcessOrders(context.Background(), api, store, IngestOptions{
		Apply:  true,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.FeeUpdates != 0 || len(store.feeCalls) != 0 {
		t.Fatalf("pending orders must not be backfilled, got %+v", summary)
	}
}

func TestProcessOrders_FollowsNextToken(t *testing.T) {
	api := &fakeAPI{
		pages: []*marketplace.OrdersPage{
			{Orders: []marketplace.Order{mfnOrder("111-7", "Unshipped")}, NextToken: "page2"},
			{Orders: []marketplace.Order{mfnOrder("111-8", "Unshipped")}},
		},
		items: map[string][]marketplace.OrderItem{
			"111-7": {item("B0A", "10.00")},
			"111-8": {item("B0B", "20.00")},
		},
	}
	store := newFakeIngestStore()

	summary, err := ProcessOrders(context.Background(), api, store, IngestOptions{
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.pageCalls != 2 || summary.Fetched != 2 {
		t.Fatalf("expected both pages fetched, got calls=%d summary=%+v", api.pageCalls, summary)
	}
}
