package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sellerdesk/orders-backoffice/config"
	"github.com/sellerdesk/orders-backoffice/marketplace"
	"github.com/sellerdesk/orders-backoffice/models"
	"github.com/sellerdesk/orders-backoffice/workflow"
)

// orders-ingest pulls recent merchant-fulfilled orders from the marketplace
// and reconciles them into the orders table: new orders are inserted with fee
// and shipping lookups, known orders get gated status updates and a fee
// backfill once they leave Pending.
//
// Dry-run (default): log what would change
//   go run ./cmd/orders-ingest -days=2
//
// Execute:
//   go run ./cmd/orders-ingest -days=2 -apply -confirm=INGEST
func main() {
	days := flag.Int("days", 2, "How many days back to fetch orders for")
	apply := flag.Bool("apply", false, "Write to the database (default: log only)")
	confirm := flag.String("confirm", "", "Type INGEST to proceed when -apply is set")
	flag.Parse()

	if *apply && strings.TrimSpace(*confirm) != "INGEST" {
		fmt.Fprintln(os.Stderr, "set -confirm=INGEST to proceed with -apply")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.ConnectDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "database connect failed: %v\n", err)
		os.Exit(1)
	}
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	models.MigrateTable()
	store := models.NewOrderStore(db)

	cred, err := models.LatestAmazonCredential(ctx, db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load marketplace credentials: %v\n", err)
		os.Exit(1)
	}

	client := marketplace.NewClient(marketplace.Config{
		Endpoint:      os.Getenv("SP_API_ENDPOINT"),
		TokenURL:      os.Getenv("LWA_TOKEN_URL"),
		MarketplaceId: os.Getenv("MARKETPLACE_ID"),
		LogisticsURL:  os.Getenv("LOGISTICS_API_URL"),
		Credentials: marketplace.Credentials{
			ClientId:     cred.ClientId,
			ClientSecret: cred.ClientSecret,
			RefreshToken: cred.RefreshToken,
		},
	}, config.GetLogger())

	summary, err := workflow.ProcessOrders(ctx, client, store, workflow.IngestOptions{
		Days:  *days,
		Apply: *apply,
	})

	fmt.Printf("fetched=%d skipped_afn=%d inserted=%d status_moves=%d fee_updates=%d errors=%d\n",
		summary.Fetched, summary.SkippedAFN, summary.Inserted, summary.StatusMoves,
		summary.FeeUpdates, summary.Errors)
	if !*apply {
		fmt.Println("dry run; rerun with -apply -confirm=INGEST to execute")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest stopped: %v\n", err)
		os.Exit(1)
	}
}
