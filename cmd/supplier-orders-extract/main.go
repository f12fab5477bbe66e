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
	"github.com/sellerdesk/orders-backoffice/models"
	"github.com/sellerdesk/orders-backoffice/reports"
	"github.com/sellerdesk/orders-backoffice/workflow"
)

// supplier-orders-extract joins the order_item_ids from a restore CSV with
// the stored supplier order reference and money columns, producing an
// enriched CSV for the purchasing side. Read only.
//
//	go run ./cmd/supplier-orders-extract -input-csv=backup.csv -output-csv=supplier_orders.csv
func main() {
	inputCSV := flag.String("input-csv", "", "Required: CSV with order_item_id column")
	outputCSV := flag.String("output-csv", "supplier_orders.csv", "Path of the extraction CSV")
	flag.Parse()

	if strings.TrimSpace(*inputCSV) == "" {
		fmt.Fprintln(os.Stderr, "-input-csv is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := reports.ReadRestoreFile(*inputCSV)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", *inputCSV, err)
		os.Exit(1)
	}

	if err := config.ConnectDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "database connect failed: %v\n", err)
		os.Exit(1)
	}
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	store := models.NewOrderStore(db)

	rows, summary := workflow.ExtractSupplierOrders(ctx, store, entries, nil, "")

	if err := reports.WriteSupplierOrders(*outputCSV, rows); err != nil {
		fmt.Fprintf(os.Stderr, "cannot write %s: %v\n", *outputCSV, err)
		os.Exit(1)
	}

	fmt.Printf("entries=%d found=%d missing=%d errors=%d\n",
		summary.Entries, summary.Found, summary.Missing, summary.Errors)
	fmt.Printf("written to %s\n", *outputCSV)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "interrupted; output contains everything processed so far")
		os.Exit(1)
	}
}
