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

// supplier-restore writes pre-corruption supplier_price/supplier_tax values
// from a backup CSV back into the orders table.
//
// Simulate (default): log what would change, write nothing
//   go run ./cmd/supplier-restore -csv-file=backup.csv
//
// Execute:
//   go run ./cmd/supplier-restore -csv-file=backup.csv -apply -confirm=RESTORE
//
// Also refresh profit/margin/roi from the restored costs:
//   go run ./cmd/supplier-restore -csv-file=backup.csv -apply -confirm=RESTORE -update-calculations
func main() {
	csvFile := flag.String("csv-file", "", "Required: restore CSV with order_item_id and original supplier values")
	apply := flag.Bool("apply", false, "Write to the database (default: simulate)")
	confirm := flag.String("confirm", "", "Type RESTORE to proceed when -apply is set")
	updateCalc := flag.Bool("update-calculations", false, "Recompute profit/margin/roi from the restored values")
	flag.Parse()

	if strings.TrimSpace(*csvFile) == "" {
		fmt.Fprintln(os.Stderr, "-csv-file is required")
		os.Exit(1)
	}
	if *apply && strings.TrimSpace(*confirm) != "RESTORE" {
		fmt.Fprintln(os.Stderr, "set -confirm=RESTORE to proceed with -apply")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := reports.ReadRestoreFile(*csvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", *csvFile, err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("restore file has no rows; nothing to do")
		return
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

	summary, err := workflow.RestoreSupplierValues(ctx, store, entries, workflow.RestoreOptions{
		Apply:              *apply,
		UpdateCalculations: *updateCalc,
	})

	fmt.Printf("entries=%d restored=%d recalculated=%d skipped=%d errors=%d\n",
		summary.Entries, summary.Restored, summary.Recalculated, summary.Skipped, summary.Errors)
	if !*apply {
		fmt.Println("simulation only; rerun with -apply -confirm=RESTORE to execute")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "restore stopped: %v\n", err)
		os.Exit(1)
	}
}
