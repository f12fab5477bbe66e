package main

import (
	"bufio"
	"context"
	"errors"
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

// profit-reconcile recomputes profit/margin/roi for every order row and writes
// one CSV row per divergence beyond one cent.
//
// Dry-run (default): report only, nothing written to the database
//   go run ./cmd/profit-reconcile -out=profit_comparison.csv
//
// Execute (writes corrected values back):
//   go run ./cmd/profit-reconcile -update -confirm=UPDATE
//
// Unattended (no pause between pages):
//   go run ./cmd/profit-reconcile -no-pause
func main() {
	update := flag.Bool("update", false, "Write corrected values back (default: report only)")
	confirm := flag.String("confirm", "", "Type UPDATE to proceed when -update is set")
	batchSize := flag.Int("batch-size", workflow.DefaultPageSize, "Orders fetched per page")
	out := flag.String("out", "profit_comparison.csv", "Path of the CSV audit report")
	xlsxOut := flag.String("xlsx", "", "Optional: also write the report as an .xlsx file")
	noPause := flag.Bool("no-pause", false, "Do not ask for confirmation between pages")
	flag.Parse()

	if *update && strings.TrimSpace(*confirm) != "UPDATE" {
		fmt.Fprintln(os.Stderr, "set -confirm=UPDATE to proceed with -update")
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

	writer, err := reports.NewDiffWriter(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open report file %s: %v\n", *out, err)
		os.Exit(1)
	}
	defer writer.Close()

	var sink workflow.DiffSink = writer
	var collected *collectSink
	if *xlsxOut != "" {
		collected = &collectSink{inner: writer}
		sink = collected
	}

	opts := workflow.ReconcileOptions{
		PageSize: *batchSize,
		Apply:    *update,
	}
	if !*noPause {
		stdin := bufio.NewReader(os.Stdin)
		opts.Continue = func(s workflow.ReconcileSummary) bool {
			fmt.Printf("page %d done: scanned=%d divergent=%d. continue? [Y/n] ",
				s.Pages, s.Scanned, s.Divergent)
			line, err := stdin.ReadString('\n')
			if err != nil {
				return false
			}
			line = strings.ToLower(strings.TrimSpace(line))
			return line == "" || line == "y" || line == "yes"
		}
	}

	summary, runErr := workflow.ReconcileProfits(ctx, store, store, sink, opts)

	fmt.Printf("scanned=%d divergent=%d updated=%d update_errors=%d calc_errors=%d\n",
		summary.Scanned, summary.Divergent, summary.Updated, summary.UpdateErrors, summary.CalcErrors)
	fmt.Printf("report written to %s\n", *out)

	if collected != nil && len(collected.rows) > 0 {
		if err := reports.ExportDiffXLSX(*xlsxOut, collected.rows); err != nil {
			fmt.Fprintf(os.Stderr, "xlsx export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("xlsx written to %s\n", *xlsxOut)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted; report contains everything processed so far")
		} else {
			fmt.Fprintf(os.Stderr, "reconcile failed: %v\n", runErr)
		}
		os.Exit(1)
	}
}

// collectSink keeps every divergence in memory for the xlsx export on top of
// streaming it to the CSV writer.
type collectSink struct {
	inner workflow.DiffSink
	rows  []reports.DiffRecord
}

func (c *collectSink) Append(r reports.DiffRecord) error {
	if err := c.inner.Append(r); err != nil {
		return err
	}
	c.rows = append(c.rows, r)
	return nil
}
