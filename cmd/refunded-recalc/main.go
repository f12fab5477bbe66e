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
	"github.com/sellerdesk/orders-backoffice/workflow"
)

// refunded-recalc reapplies the refund penalty formula to every order in
// status Refunded. Historical refunds carry derived values computed under the
// regular profit formula; this tool moves them to the penalty formula.
//
// Dry-run (default):
//   go run ./cmd/refunded-recalc
//
// Execute:
//   go run ./cmd/refunded-recalc -apply -confirm=UPDATE
func main() {
	apply := flag.Bool("apply", false, "Write updated values (default: log only)")
	confirm := flag.String("confirm", "", "Type UPDATE to proceed when -apply is set")
	flag.Parse()

	if *apply && strings.TrimSpace(*confirm) != "UPDATE" {
		fmt.Fprintln(os.Stderr, "set -confirm=UPDATE to proceed with -apply")
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
	store := models.NewOrderStore(db)

	summary, err := workflow.RecalculateRefunded(ctx, store, store, workflow.RefundedRecalcOptions{
		Apply: *apply,
	})

	fmt.Printf("fetched=%d updated=%d errors=%d\n", summary.Fetched, summary.Updated, summary.Errors)
	if !*apply {
		fmt.Println("dry run; rerun with -apply -confirm=UPDATE to execute")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "recalc stopped: %v\n", err)
		os.Exit(1)
	}
}
