package workflow

import (
	"context"
	"testing"

	"github.com/sellerdesk/orders-backoffice/models"
)

type fakeStatusFetcher struct {
	orders []models.Order
	asked  string
}

func (f *fakeStatusFetcher) FetchByStatus(ctx context.Context, status string) ([]models.Order, error) {
	f.asked = status
	return f.orders, nil
}

func TestRecalculateRefunded_AppliesPenaltyFormula(t *testing.T) {
	fetcher := &fakeStatusFetcher{orders: []models.Order{{
		OrderItemId:      1,
		OrderStatus:      "Refunded",
		AmazonFee:        money(t, "20.00"),
		CustomerShipping: money(t, "2.00"),
	}}}
	updater := newFakeUpdater()

	summary, err := RecalculateRefunded(context.Background(), fetcher, updater, RefundedRecalcOptions{
		Apply:  true,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.asked != "Refunded" {
		t.Fatalf("expected fetch by Refunded, got %q", fetcher.asked)
	}
	if summary.Updated != 1 {
		t.Fatalf("expected updated=1, got %+v", summary)
	}
	m := updater.updates[1]
	if got := m.Profit.StringFixed(2); got != "-6.00" {
		t.Fatalf("profit expected -6.00, got %s", got)
	}
}

func TestRecalculateRefunded_DryRun(t *testing.T) {
	fetcher := &fakeStatusFetcher{orders: []models.Order{{
		OrderItemId: 1,
		OrderStatus: "Refunded",
		AmazonFee:   money(t, "10.00"),
	}}}
	updater := newFakeUpdater()

	summary, err := RecalculateRefunded(context.Background(), fetcher, updater, RefundedRecalcOptions{
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Updated != 0 || len(updater.updates) != 0 {
		t.Fatalf("dry run must not write, got %+v", summary)
	}
}

func TestRecalculateRefunded_BadDataCounted(t *testing.T) {
	fetcher := &fakeStatusFetcher{orders: []models.Order{{
		OrderItemId: 1,
		OrderStatus: "Refunded",
		AmazonFee:   money(t, "-5.00"),
	}}}
	updater := newFakeUpdater()

	summary, err := RecalculateRefunded(context.Background(), fetcher, updater, RefundedRecalcOptions{
		Apply:  true,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Errors != 1 || summary.Updated != 0 {
		t.Fatalf("expected errors=1 updated=0, got %+v", summary)
	}
}
